package safety

import (
	pgquery "github.com/pganalyze/pg_query_go/v6"

	"github.com/pg-lang-server/pgls/pkg/analyser"
	"github.com/pg-lang-server/pgls/pkg/diagnostic"
)

func init() {
	analyser.Register(disallowUniqueConstraint{})
}

// disallowUniqueConstraint flags ADD CONSTRAINT ... UNIQUE and inline
// column UNIQUE that don't reuse an existing index, since building the
// implicit index takes an ACCESS EXCLUSIVE lock. A table created earlier in
// the same file is exempt: there are no concurrent readers to block yet.
type disallowUniqueConstraint struct{}

func (disallowUniqueConstraint) Metadata() analyser.Metadata {
	return analyser.Metadata{
		Group:       "safety",
		Name:        "disallowUniqueConstraint",
		Severity:    diagnostic.SeverityError,
		Recommended: false,
		Sources:     []analyser.Source{{Tool: "squawk", Name: "disallow-unique-constraint"}},
	}
}

const lockWarning = "Adding a UNIQUE constraint requires an ACCESS EXCLUSIVE lock."
const lockNote = "Create a unique index CONCURRENTLY and then add the constraint using that index."

func (disallowUniqueConstraint) Run(ctx *analyser.RuleContext) []diagnostic.Diagnostic {
	stmt, ok := ctx.Node.GetNode().(*pgquery.Node_AlterTableStmt)
	if !ok {
		return nil
	}

	if stmt.AlterTableStmt.Relation != nil {
		if _, created := ctx.PreviousCreateStmt(stmt.AlterTableStmt.Relation.Relname); created {
			return nil
		}
	}

	var diags []diagnostic.Diagnostic
	for _, cmdNode := range stmt.AlterTableStmt.Cmds {
		cmd, ok := cmdNode.GetNode().(*pgquery.Node_AlterTableCmd)
		if !ok {
			continue
		}

		switch cmd.AlterTableCmd.Subtype {
		case pgquery.AlterTableType_AT_AddConstraint:
			constr, ok := cmd.AlterTableCmd.Def.GetNode().(*pgquery.Node_Constraint)
			if !ok {
				continue
			}
			if constr.Constraint.Contype == pgquery.ConstrType_CONSTR_UNIQUE && constr.Constraint.Indexname == "" {
				diags = append(diags, analyser.NewDiagnostic(lockWarning).Note(lockNote).Build())
			}
		case pgquery.AlterTableType_AT_AddColumn:
			colDefNode, ok := cmd.AlterTableCmd.Def.GetNode().(*pgquery.Node_ColumnDef)
			if !ok {
				continue
			}
			for _, c := range colDefNode.ColumnDef.Constraints {
				constr, ok := c.GetNode().(*pgquery.Node_Constraint)
				if !ok {
					continue
				}
				if constr.Constraint.Contype == pgquery.ConstrType_CONSTR_UNIQUE {
					diags = append(diags, analyser.NewDiagnostic(lockWarning).Note(lockNote).Build())
				}
			}
		}
	}
	return diags
}

package safety

import (
	"strings"

	pgquery "github.com/pganalyze/pg_query_go/v6"

	"github.com/pg-lang-server/pgls/pkg/analyser"
	"github.com/pg-lang-server/pgls/pkg/diagnostic"
)

func init() {
	analyser.Register(addSerialColumn{})
}

// addSerialColumn flags ADD COLUMN of a SERIAL type or a GENERATED ALWAYS
// AS ... STORED column, both of which force Postgres to rewrite the whole
// table under an ACCESS EXCLUSIVE lock.
type addSerialColumn struct{}

func (addSerialColumn) Metadata() analyser.Metadata {
	return analyser.Metadata{
		Group:       "safety",
		Name:        "addSerialColumn",
		Severity:    diagnostic.SeverityWarning,
		Recommended: true,
		Sources:     []analyser.Source{{Tool: "eugene", Name: "E11"}},
	}
}

func (addSerialColumn) Run(ctx *analyser.RuleContext) []diagnostic.Diagnostic {
	stmt, ok := ctx.Node.GetNode().(*pgquery.Node_AlterTableStmt)
	if !ok {
		return nil
	}

	var diags []diagnostic.Diagnostic
	for _, cmdNode := range stmt.AlterTableStmt.Cmds {
		cmd, ok := cmdNode.GetNode().(*pgquery.Node_AlterTableCmd)
		if !ok || cmd.AlterTableCmd.Subtype != pgquery.AlterTableType_AT_AddColumn {
			continue
		}
		colDefNode, ok := cmd.AlterTableCmd.Def.GetNode().(*pgquery.Node_ColumnDef)
		if !ok {
			continue
		}
		colDef := colDefNode.ColumnDef

		if typeName := colDef.TypeName; typeName != nil {
			if t := typeNameString(typeName); isSerialType(t) {
				diags = append(diags, analyser.NewDiagnostic(
					"Adding a column with type "+t+" requires a table rewrite.").
					Detail(nil, "SERIAL types require rewriting the entire table with an ACCESS EXCLUSIVE lock, blocking all reads and writes.").
					Note("SERIAL types cannot be added to existing tables without a full table rewrite. Consider using a non-serial type with a sequence instead.").
					Build())
				continue
			}
		}

		if hasStoredGenerated(colDef) {
			diags = append(diags, analyser.NewDiagnostic(
				"Adding a column with GENERATED ALWAYS AS ... STORED requires a table rewrite.").
				Detail(nil, "GENERATED ... STORED columns require rewriting the entire table with an ACCESS EXCLUSIVE lock, blocking all reads and writes.").
				Note("GENERATED ... STORED columns cannot be added to existing tables without a full table rewrite.").
				Build())
		}
	}
	return diags
}

func hasStoredGenerated(colDef *pgquery.ColumnDef) bool {
	for _, c := range colDef.Constraints {
		constr, ok := c.GetNode().(*pgquery.Node_Constraint)
		if !ok {
			continue
		}
		if constr.Constraint.Contype == pgquery.ConstrType_CONSTR_GENERATED && constr.Constraint.GeneratedWhen == "a" {
			return true
		}
	}
	return false
}

func typeNameString(t *pgquery.TypeName) string {
	parts := make([]string, 0, len(t.Names))
	for _, n := range t.Names {
		if s, ok := n.GetNode().(*pgquery.Node_String_); ok {
			parts = append(parts, s.String_.Sval)
		}
	}
	return strings.Join(parts, ".")
}

func isSerialType(t string) bool {
	switch t {
	case "serial", "bigserial", "smallserial",
		"serial2", "serial4", "serial8",
		"pg_catalog.serial", "pg_catalog.bigserial", "pg_catalog.smallserial",
		"pg_catalog.serial2", "pg_catalog.serial4", "pg_catalog.serial8":
		return true
	default:
		return false
	}
}

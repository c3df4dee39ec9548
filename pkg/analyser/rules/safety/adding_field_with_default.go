package safety

import (
	"strings"

	pgquery "github.com/pganalyze/pg_query_go/v6"

	"github.com/pg-lang-server/pgls/pkg/analyser"
	"github.com/pg-lang-server/pgls/pkg/diagnostic"
	"github.com/pg-lang-server/pgls/pkg/schema"
)

func init() {
	analyser.Register(addingFieldWithDefault{})
}

// addingFieldWithDefault flags ADD COLUMN ... DEFAULT and ADD COLUMN ...
// GENERATED ALWAYS AS. Before Postgres 11 every DEFAULT forced a table
// rewrite; from 11 on only a volatile default (or a generated column,
// always) still does.
type addingFieldWithDefault struct{}

func (addingFieldWithDefault) Metadata() analyser.Metadata {
	return analyser.Metadata{
		Group:       "safety",
		Name:        "addingFieldWithDefault",
		Severity:    diagnostic.SeverityWarning,
		Recommended: true,
		Sources:     []analyser.Source{{Tool: "squawk", Name: "adding-field-with-default"}},
	}
}

func (addingFieldWithDefault) Run(ctx *analyser.RuleContext) []diagnostic.Diagnostic {
	stmt, ok := ctx.Node.GetNode().(*pgquery.Node_AlterTableStmt)
	if !ok {
		return nil
	}

	var pgMajor int
	var haveVersion bool
	if ctx.Schema != nil {
		pgMajor, haveVersion = ctx.Schema.MajorVersion()
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

		var defaultExpr *pgquery.Node
		hasDefault, hasGenerated := false, false
		for _, c := range colDef.Constraints {
			constr, ok := c.GetNode().(*pgquery.Node_Constraint)
			if !ok {
				continue
			}
			switch constr.Constraint.Contype {
			case pgquery.ConstrType_CONSTR_DEFAULT:
				hasDefault = true
				defaultExpr = constr.Constraint.RawExpr
			case pgquery.ConstrType_CONSTR_GENERATED:
				hasGenerated = true
			}
		}

		switch {
		case hasGenerated:
			diags = append(diags, analyser.NewDiagnostic("Adding a generated column requires a table rewrite.").
				Detail(nil, "This operation requires an ACCESS EXCLUSIVE lock and rewrites the entire table.").
				Note("Add the column as nullable, backfill existing rows, and add a trigger to update the column on write instead.").
				Build())
		case hasDefault && haveVersion && pgMajor >= 11:
			if !isSafeDefaultExpr(defaultExpr, ctx.Schema) {
				diags = append(diags, analyser.NewDiagnostic("Adding a column with a volatile default value causes a table rewrite.").
					Detail(nil, "Even in PostgreSQL 11+, volatile default values require a full table rewrite.").
					Note("Add the column without a default, then set the default in a separate statement.").
					Build())
			}
		case hasDefault:
			diags = append(diags, analyser.NewDiagnostic("Adding a column with a DEFAULT value causes a table rewrite.").
				Detail(nil, "This operation requires an ACCESS EXCLUSIVE lock and rewrites the entire table.").
				Note("Add the column without a default, then set the default in a separate statement.").
				Build())
		}
	}
	return diags
}

// isSafeDefaultExpr reports whether expr is known not to force a rewrite on
// PG 11+: a literal constant, a cast of one, or a call to a zero-argument
// non-volatile function the schema cache knows about.
func isSafeDefaultExpr(expr *pgquery.Node, cache *schema.Cache) bool {
	if expr == nil {
		return false
	}
	switch n := expr.GetNode().(type) {
	case *pgquery.Node_AConst:
		return true
	case *pgquery.Node_TypeCast:
		return isSafeDefaultExpr(n.TypeCast.Arg, cache)
	case *pgquery.Node_FuncCall:
		if len(n.FuncCall.Args) != 0 {
			return false
		}
		if cache == nil {
			return false
		}
		schemaName, name, ok := splitFuncName(n.FuncCall.Funcname)
		if !ok {
			return false
		}
		for _, f := range cache.Functions {
			if len(f.ArgTypes) != 0 {
				continue
			}
			if f.Behavior == schema.BehaviorVolatile {
				continue
			}
			if !strings.EqualFold(f.Name, name) {
				continue
			}
			if schemaName != "" && !strings.EqualFold(f.SchemaName, schemaName) {
				continue
			}
			return true
		}
		return false
	default:
		return false
	}
}

// splitFuncName reads a possibly schema-qualified function name out of a
// FuncCall's Funcname list (one or two String nodes).
func splitFuncName(parts []*pgquery.Node) (schemaName, name string, ok bool) {
	var names []string
	for _, p := range parts {
		s, isStr := p.GetNode().(*pgquery.Node_String_)
		if !isStr {
			return "", "", false
		}
		names = append(names, s.String_.Sval)
	}
	switch len(names) {
	case 1:
		return "", names[0], true
	case 2:
		return names[0], names[1], true
	default:
		return "", "", false
	}
}

// Package prettyprint renders a parsed Postgres statement back into SQL
// text. It is a contract, not a closed set of node types: Printer.Print
// accepts any *pgquery.Node, and this package implements emitters for a
// representative subset (SELECT, INSERT, CREATE TABLE) sufficient to
// exercise the round-trip property that parsing a pretty-printed statement
// yields the same AST. A node type without an emitter returns an error
// rather than guessing at its shape.
package prettyprint

import (
	"fmt"
	"strconv"
	"strings"

	pgquery "github.com/pganalyze/pg_query_go/v6"
)

// Printer renders a parsed node as SQL text.
type Printer interface {
	Print(node *pgquery.Node) (string, error)
}

// Default is the Printer used by callers that don't need a custom
// configuration.
var Default Printer = &printer{indentWidth: 2}

// New returns a Printer that indents nested clauses by indentWidth spaces.
func New(indentWidth int) Printer {
	if indentWidth <= 0 {
		indentWidth = 2
	}
	return &printer{indentWidth: indentWidth}
}

type printer struct {
	indentWidth int
}

func (p *printer) Print(node *pgquery.Node) (string, error) {
	if node == nil {
		return "", fmt.Errorf("prettyprint: nil node")
	}

	switch n := node.GetNode().(type) {
	case *pgquery.Node_SelectStmt:
		return p.printSelect(n.SelectStmt)
	case *pgquery.Node_InsertStmt:
		return p.printInsert(n.InsertStmt)
	case *pgquery.Node_CreateStmt:
		return p.printCreateTable(n.CreateStmt)
	default:
		return "", fmt.Errorf("prettyprint: no printer registered for %T", n)
	}
}

func (p *printer) printSelect(stmt *pgquery.SelectStmt) (string, error) {
	if stmt == nil {
		return "", fmt.Errorf("prettyprint: nil SelectStmt")
	}

	var b strings.Builder
	b.WriteString("SELECT")

	targets, err := p.targetList(stmt.TargetList)
	if err != nil {
		return "", err
	}
	if targets == "" {
		targets = "*"
	}
	b.WriteString("\n")
	b.WriteString(p.indent(1))
	b.WriteString(targets)

	if len(stmt.FromClause) > 0 {
		from, err := p.fromClause(stmt.FromClause)
		if err != nil {
			return "", err
		}
		b.WriteString("\nFROM\n")
		b.WriteString(p.indent(1))
		b.WriteString(from)
	}

	if stmt.WhereClause != nil {
		where, err := p.expr(stmt.WhereClause)
		if err != nil {
			return "", err
		}
		b.WriteString("\nWHERE\n")
		b.WriteString(p.indent(1))
		b.WriteString(where)
	}

	if len(stmt.SortClause) > 0 {
		order, err := p.sortClause(stmt.SortClause)
		if err != nil {
			return "", err
		}
		b.WriteString("\nORDER BY ")
		b.WriteString(order)
	}

	if stmt.LimitCount != nil {
		limit, err := p.expr(stmt.LimitCount)
		if err != nil {
			return "", err
		}
		b.WriteString("\nLIMIT ")
		b.WriteString(limit)
	}

	return b.String(), nil
}

func (p *printer) printInsert(stmt *pgquery.InsertStmt) (string, error) {
	if stmt == nil {
		return "", fmt.Errorf("prettyprint: nil InsertStmt")
	}
	if stmt.Relation == nil {
		return "", fmt.Errorf("prettyprint: INSERT with no target relation")
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(rangeVarName(stmt.Relation))

	if len(stmt.Cols) > 0 {
		names := make([]string, 0, len(stmt.Cols))
		for _, c := range stmt.Cols {
			target, ok := c.GetNode().(*pgquery.Node_ResTarget)
			if !ok {
				return "", fmt.Errorf("prettyprint: unsupported INSERT column node %T", c.GetNode())
			}
			names = append(names, target.ResTarget.Name)
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(names, ", "))
		b.WriteString(")")
	}

	if stmt.SelectStmt != nil {
		selNode, ok := stmt.SelectStmt.GetNode().(*pgquery.Node_SelectStmt)
		if !ok {
			return "", fmt.Errorf("prettyprint: unsupported INSERT source %T", stmt.SelectStmt.GetNode())
		}
		if len(selNode.SelectStmt.ValuesLists) > 0 {
			rows := make([]string, 0, len(selNode.SelectStmt.ValuesLists))
			for _, row := range selNode.SelectStmt.ValuesLists {
				list, ok := row.GetNode().(*pgquery.Node_List)
				if !ok {
					return "", fmt.Errorf("prettyprint: unsupported VALUES row node %T", row.GetNode())
				}
				vals := make([]string, 0, len(list.List.Items))
				for _, v := range list.List.Items {
					s, err := p.expr(v)
					if err != nil {
						return "", err
					}
					vals = append(vals, s)
				}
				rows = append(rows, "("+strings.Join(vals, ", ")+")")
			}
			b.WriteString("\nVALUES\n")
			b.WriteString(p.indent(1))
			b.WriteString(strings.Join(rows, ",\n"+p.indent(1)))
		} else {
			sub, err := p.printSelect(selNode.SelectStmt)
			if err != nil {
				return "", err
			}
			b.WriteString("\n")
			b.WriteString(sub)
		}
	}

	return b.String(), nil
}

func (p *printer) printCreateTable(stmt *pgquery.CreateStmt) (string, error) {
	if stmt == nil {
		return "", fmt.Errorf("prettyprint: nil CreateStmt")
	}
	if stmt.Relation == nil {
		return "", fmt.Errorf("prettyprint: CREATE TABLE with no relation")
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if stmt.IfNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(rangeVarName(stmt.Relation))
	b.WriteString(" (\n")

	cols := make([]string, 0, len(stmt.TableElts))
	for _, elt := range stmt.TableElts {
		switch e := elt.GetNode().(type) {
		case *pgquery.Node_ColumnDef:
			line, err := p.columnDef(e.ColumnDef)
			if err != nil {
				return "", err
			}
			cols = append(cols, line)
		case *pgquery.Node_Constraint:
			line, err := p.tableConstraint(e.Constraint)
			if err != nil {
				return "", err
			}
			cols = append(cols, line)
		default:
			return "", fmt.Errorf("prettyprint: unsupported table element %T", e)
		}
	}

	for i, col := range cols {
		b.WriteString(p.indent(1))
		b.WriteString(col)
		if i < len(cols)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")")

	return b.String(), nil
}

func (p *printer) columnDef(col *pgquery.ColumnDef) (string, error) {
	if col.TypeName == nil {
		return "", fmt.Errorf("prettyprint: column %q has no type", col.Colname)
	}

	var b strings.Builder
	b.WriteString(col.Colname)
	b.WriteString(" ")
	b.WriteString(typeNameString(col.TypeName))

	if col.IsNotNull {
		b.WriteString(" NOT NULL")
	}

	for _, c := range col.Constraints {
		constr, ok := c.GetNode().(*pgquery.Node_Constraint)
		if !ok {
			continue
		}
		switch constr.Constraint.Contype {
		case pgquery.ConstrType_CONSTR_NOTNULL:
			b.WriteString(" NOT NULL")
		case pgquery.ConstrType_CONSTR_PRIMARY:
			b.WriteString(" PRIMARY KEY")
		case pgquery.ConstrType_CONSTR_UNIQUE:
			b.WriteString(" UNIQUE")
		case pgquery.ConstrType_CONSTR_DEFAULT:
			if constr.Constraint.RawExpr != nil {
				v, err := p.expr(constr.Constraint.RawExpr)
				if err == nil {
					b.WriteString(" DEFAULT ")
					b.WriteString(v)
				}
			}
		}
	}

	return b.String(), nil
}

func (p *printer) tableConstraint(constr *pgquery.Constraint) (string, error) {
	switch constr.Contype {
	case pgquery.ConstrType_CONSTR_PRIMARY:
		cols := strings.Join(constr.Keys, ", ")
		return fmt.Sprintf("PRIMARY KEY (%s)", cols), nil
	case pgquery.ConstrType_CONSTR_UNIQUE:
		cols := strings.Join(constr.Keys, ", ")
		return fmt.Sprintf("UNIQUE (%s)", cols), nil
	default:
		return "", fmt.Errorf("prettyprint: unsupported table constraint type %v", constr.Contype)
	}
}

func (p *printer) targetList(list []*pgquery.Node) (string, error) {
	parts := make([]string, 0, len(list))
	for _, item := range list {
		target, ok := item.GetNode().(*pgquery.Node_ResTarget)
		if !ok {
			return "", fmt.Errorf("prettyprint: unsupported SELECT target %T", item.GetNode())
		}
		val, err := p.expr(target.ResTarget.Val)
		if err != nil {
			return "", err
		}
		if target.ResTarget.Name != "" {
			val = val + " AS " + target.ResTarget.Name
		}
		parts = append(parts, val)
	}
	return strings.Join(parts, ",\n"+p.indent(1)), nil
}

func (p *printer) fromClause(list []*pgquery.Node) (string, error) {
	parts := make([]string, 0, len(list))
	for _, item := range list {
		switch n := item.GetNode().(type) {
		case *pgquery.Node_RangeVar:
			parts = append(parts, rangeVarName(n.RangeVar))
		default:
			return "", fmt.Errorf("prettyprint: unsupported FROM item %T", n)
		}
	}
	return strings.Join(parts, ", "), nil
}

func (p *printer) sortClause(list []*pgquery.Node) (string, error) {
	parts := make([]string, 0, len(list))
	for _, item := range list {
		sb, ok := item.GetNode().(*pgquery.Node_SortBy)
		if !ok {
			return "", fmt.Errorf("prettyprint: unsupported ORDER BY item %T", item.GetNode())
		}
		val, err := p.expr(sb.SortBy.Node)
		if err != nil {
			return "", err
		}
		if sb.SortBy.SortbyDir == pgquery.SortByDir_SORTBY_DESC {
			val += " DESC"
		}
		parts = append(parts, val)
	}
	return strings.Join(parts, ", "), nil
}

func (p *printer) expr(node *pgquery.Node) (string, error) {
	if node == nil {
		return "", fmt.Errorf("prettyprint: nil expression")
	}

	switch n := node.GetNode().(type) {
	case *pgquery.Node_ColumnRef:
		return columnRefString(n.ColumnRef)
	case *pgquery.Node_AConst:
		return aConstString(n.AConst)
	case *pgquery.Node_AStar:
		return "*", nil
	case *pgquery.Node_AExpr:
		if n.AExpr.Kind != pgquery.A_Expr_Kind_AEXPR_OP || len(n.AExpr.Name) != 1 {
			return "", fmt.Errorf("prettyprint: unsupported operator expression %v", n.AExpr.Kind)
		}
		left, err := p.expr(n.AExpr.Lexpr)
		if err != nil {
			return "", err
		}
		right, err := p.expr(n.AExpr.Rexpr)
		if err != nil {
			return "", err
		}
		return left + " " + n.AExpr.Name[0].GetString_().GetSval() + " " + right, nil
	default:
		return "", fmt.Errorf("prettyprint: unsupported expression %T", n)
	}
}

func columnRefString(ref *pgquery.ColumnRef) (string, error) {
	parts := make([]string, 0, len(ref.Fields))
	for _, f := range ref.Fields {
		switch n := f.GetNode().(type) {
		case *pgquery.Node_String_:
			parts = append(parts, n.String_.Sval)
		case *pgquery.Node_AStar:
			parts = append(parts, "*")
		default:
			return "", fmt.Errorf("prettyprint: unsupported column reference field %T", n)
		}
	}
	return strings.Join(parts, "."), nil
}

func aConstString(c *pgquery.A_Const) (string, error) {
	if c.Isnull {
		return "NULL", nil
	}
	switch v := c.Val.(type) {
	case *pgquery.A_Const_Ival:
		return strconv.FormatInt(int64(v.Ival.Ival), 10), nil
	case *pgquery.A_Const_Fval:
		return v.Fval.Fval, nil
	case *pgquery.A_Const_Boolval:
		if v.Boolval.Boolval {
			return "TRUE", nil
		}
		return "FALSE", nil
	case *pgquery.A_Const_Sval:
		return "'" + strings.ReplaceAll(v.Sval.Sval, "'", "''") + "'", nil
	default:
		return "", fmt.Errorf("prettyprint: unsupported constant value %T", v)
	}
}

func rangeVarName(rv *pgquery.RangeVar) string {
	if rv.Schemaname != "" {
		return rv.Schemaname + "." + rv.Relname
	}
	return rv.Relname
}

func typeNameString(t *pgquery.TypeName) string {
	parts := make([]string, 0, len(t.Names))
	for _, n := range t.Names {
		if s, ok := n.GetNode().(*pgquery.Node_String_); ok {
			if s.String_.Sval == "pg_catalog" {
				continue
			}
			parts = append(parts, s.String_.Sval)
		}
	}
	return strings.Join(parts, ".")
}

func (p *printer) indent(depth int) string {
	return strings.Repeat(" ", p.indentWidth*depth)
}

package analyser

import (
	pgquery "github.com/pganalyze/pg_query_go/v6"

	"github.com/pg-lang-server/pgls/pkg/schema"
	"github.com/pg-lang-server/pgls/pkg/workspace"
)

// PreviousStatement pairs a statement already walked this file with its
// parsed top-level node, so a rule can look back at earlier DDL (e.g. "was
// this table created earlier in this same migration").
type PreviousStatement struct {
	Statement workspace.Statement
	Node      *pgquery.Node
}

// RuleContext is what a single Rule.Run call sees. It covers exactly one
// root statement; Previous and Transaction carry everything the Runner has
// learned about the file up to that point.
type RuleContext struct {
	Statement   workspace.Statement
	Node        *pgquery.Node
	Previous    []PreviousStatement
	Transaction workspace.TransactionState
	Schema      *schema.Cache // nil if no live database connection
	Options     map[string]any
}

// PreviousCreateStmt returns the CreateStmt node of an earlier statement in
// this file that creates tableName, if any. Name comparison is exact, as
// Postgres identifiers are case-sensitive once quoted and pg_query_go
// already folds unquoted ones to lowercase.
func (c *RuleContext) PreviousCreateStmt(tableName string) (*pgquery.CreateStmt, bool) {
	for _, p := range c.Previous {
		create, ok := p.Node.GetNode().(*pgquery.Node_CreateStmt)
		if !ok || create.CreateStmt.Relation == nil {
			continue
		}
		if create.CreateStmt.Relation.Relname == tableName {
			return create.CreateStmt, true
		}
	}
	return nil, false
}

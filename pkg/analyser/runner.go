package analyser

import (
	"context"
	"strings"

	pgquery "github.com/pganalyze/pg_query_go/v6"

	"github.com/pg-lang-server/pgls/pkg/diagnostic"
	"github.com/pg-lang-server/pgls/pkg/pgast"
	"github.com/pg-lang-server/pgls/pkg/schema"
	"github.com/pg-lang-server/pgls/pkg/suppression"
	"github.com/pg-lang-server/pgls/pkg/workspace"
)

// Runner executes every registered rule over a document's root statements,
// threading an AnalysedFileContext through them in document order. Child
// statements (dollar-quoted function bodies) are not analysed directly;
// rules that care about a function's body consult pkg/sqlfunc.
type Runner struct {
	AST    *pgast.Store
	Schema *schema.Cache // nil if no live database connection
}

// NewRunner returns a Runner backed by ast. Schema may be set afterward;
// a nil Schema just means schema-aware rules fail open.
func NewRunner(ast *pgast.Store) *Runner {
	return &Runner{AST: ast}
}

// Run analyses doc with every rule currently registered, skipping
// diagnostics a suppression comment in doc's text silences. Statements that
// fail to parse are skipped, not reported -- syntax errors are the syntax
// analyzer's job, not the linter's.
func (r *Runner) Run(ctx context.Context, doc *workspace.Document) []diagnostic.Diagnostic {
	rules := GetAll()
	if len(rules) == 0 {
		return nil
	}

	suppressed := suppression.Scan(doc.Text())
	text := doc.Text()

	var previous []PreviousStatement
	txn := workspace.NewTransactionState()
	var out []diagnostic.Diagnostic

	for _, stmt := range doc.Statements() {
		if stmt.ID.Kind() != workspace.KindRoot {
			continue
		}

		result := r.AST.Parse(ctx, stmt.ID, stmt.Text(doc))
		if result.Err != nil || result.AST == nil || len(result.AST.Stmts) == 0 {
			continue
		}
		node := result.AST.Stmts[0].Stmt
		line := lineAt(text, stmt.Span.Start)

		rc := &RuleContext{
			Statement:   stmt,
			Node:        node,
			Previous:    previous,
			Transaction: txn,
			Schema:      r.Schema,
		}

		for _, rule := range rules {
			meta := rule.Metadata()
			cat := meta.DiagnosticCategory()
			if suppressed.Suppressed(line, cat) {
				continue
			}
			for _, d := range rule.Run(rc) {
				d.Category = cat
				if d.Severity == 0 {
					d.Severity = meta.Severity
				}
				if d.Span == nil {
					s := stmt.Span
					d.Span = &s
				}
				out = append(out, d)
			}
		}

		updateTransactionState(&txn, node)
		previous = append(previous, PreviousStatement{Statement: stmt, Node: node})
	}

	diagnostic.ByDocumentOrder(out)
	return out
}

func lineAt(text string, offset int) int {
	if offset > len(text) {
		offset = len(text)
	}
	return 1 + strings.Count(text[:offset], "\n")
}

// updateTransactionState folds one statement's effects into txn, mirroring
// what a Postgres session would observe: a lock_timeout GUC set, an object
// created, or an ACCESS EXCLUSIVE lock taken by DDL on a pre-existing table.
func updateTransactionState(txn *workspace.TransactionState, node *pgquery.Node) {
	if node == nil {
		return
	}

	switch n := node.GetNode().(type) {
	case *pgquery.Node_VariableSetStmt:
		if strings.EqualFold(n.VariableSetStmt.Name, "lock_timeout") {
			txn.LockTimeoutSet = true
		}
	case *pgquery.Node_CreateStmt:
		if rel := n.CreateStmt.Relation; rel != nil {
			markCreated(txn, rel.Schemaname, rel.Relname)
		}
	case *pgquery.Node_IndexStmt:
		if n.IndexStmt.Idxname != "" {
			schemaName := ""
			if rel := n.IndexStmt.Relation; rel != nil {
				schemaName = rel.Schemaname
			}
			markCreated(txn, schemaName, n.IndexStmt.Idxname)
		}
	case *pgquery.Node_CreateTableAsStmt:
		if into := n.CreateTableAsStmt.Into; into != nil && into.Rel != nil {
			markCreated(txn, into.Rel.Schemaname, into.Rel.Relname)
		}
	}

	if n, ok := node.GetNode().(*pgquery.Node_AlterTableStmt); ok {
		if rel := n.AlterTableStmt.Relation; rel != nil {
			if !wasCreated(txn, rel.Schemaname, rel.Relname) {
				txn.HoldingAccessExclusive = true
			}
		}
	}
}

func objectKey(schemaName, name string) string {
	if schemaName == "" {
		schemaName = "public"
	}
	return strings.ToLower(schemaName) + "." + strings.ToLower(name)
}

func markCreated(txn *workspace.TransactionState, schemaName, name string) {
	txn.CreatedObjects[objectKey(schemaName, name)] = true
}

func wasCreated(txn *workspace.TransactionState, schemaName, name string) bool {
	return txn.CreatedObjects[objectKey(schemaName, name)]
}

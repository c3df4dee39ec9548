package analyser

import (
	"context"
	"testing"

	pgquery "github.com/pganalyze/pg_query_go/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pg-lang-server/pgls/pkg/diagnostic"
	"github.com/pg-lang-server/pgls/pkg/pgast"
	"github.com/pg-lang-server/pgls/pkg/workspace"
)

// stubRule flags every CreateStmt it sees, so tests can exercise the
// Runner without depending on any real rule package.
type stubRule struct{}

func (stubRule) Metadata() Metadata {
	return Metadata{Group: "test", Name: "flagCreate", Severity: diagnostic.SeverityWarning}
}

func (stubRule) Run(ctx *RuleContext) []diagnostic.Diagnostic {
	if _, ok := ctx.Node.GetNode().(*pgquery.Node_CreateStmt); !ok {
		return nil
	}
	return []diagnostic.Diagnostic{NewDiagnostic("saw a CREATE TABLE").Build()}
}

func TestRunnerAppliesRulesInDocumentOrder(t *testing.T) {
	Clear()
	defer Clear()
	Register(stubRule{})

	doc := workspace.NewDocument("file:///t.sql", "create table accounts (id int);\nselect 1;\n")
	runner := NewRunner(pgast.New())

	diags := runner.Run(context.Background(), doc)
	require.Len(t, diags, 1)
	assert.Equal(t, "test", diags[0].Category.Group)
	assert.Equal(t, "flagCreate", diags[0].Category.Rule)
	assert.NotNil(t, diags[0].Span)
}

func TestRunnerSkipsStatementsThatFailToParse(t *testing.T) {
	Clear()
	defer Clear()
	Register(stubRule{})

	doc := workspace.NewDocument("file:///t.sql", "not valid sql at all (((;\n")
	runner := NewRunner(pgast.New())

	diags := runner.Run(context.Background(), doc)
	assert.Empty(t, diags)
}

func TestRunnerHonorsSuppressionComments(t *testing.T) {
	Clear()
	defer Clear()
	Register(stubRule{})

	doc := workspace.NewDocument("file:///t.sql",
		"create table accounts (id int); -- pgls-ignore lint/test/flagCreate\n")
	runner := NewRunner(pgast.New())

	diags := runner.Run(context.Background(), doc)
	assert.Empty(t, diags)
}

func TestRunnerNoRulesReturnsNil(t *testing.T) {
	Clear()
	defer Clear()

	doc := workspace.NewDocument("file:///t.sql", "select 1;\n")
	runner := NewRunner(pgast.New())

	assert.Nil(t, runner.Run(context.Background(), doc))
}

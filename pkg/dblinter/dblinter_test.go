package dblinter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pg-lang-server/pgls/pkg/diagnostic"
)

type fakeRows struct {
	rows []Row
	i    int
}

func (r *fakeRows) Next() bool { return r.i < len(r.rows) }
func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.i]
	r.i++
	*dest[0].(*string) = row.RuleCode
	*dest[1].(*string) = row.Message
	*dest[2].(*string) = row.Severity
	*dest[3].(*string) = row.SchemaName
	*dest[4].(*string) = row.TableName
	return nil
}
func (r *fakeRows) Close()     {}
func (r *fakeRows) Err() error { return nil }

type fakeQuerier struct {
	rows []Row
}

func (f fakeQuerier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return &fakeRows{rows: f.rows}, nil
}

func TestCheckConvertsRowsAndSkipsDisabled(t *testing.T) {
	c := NewChecker(fakeQuerier{rows: []Row{
		{RuleCode: "unused_index", Message: "idx_foo unused", Severity: "warning", SchemaName: "public", TableName: "foo"},
		{RuleCode: "missing_primary_key", Message: "no primary key", Severity: "error", SchemaName: "public", TableName: "bar"},
	}})

	diags, err := c.Check(t.Context(), []string{"missing_primary_key"})
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "db-linter", diags[0].Category.Category)
	assert.Equal(t, "index", diags[0].Category.Group)
	assert.Equal(t, "unusedIndex", diags[0].Category.Rule)
	assert.Contains(t, diags[0].Message, "public.foo")
	assert.Equal(t, diagnostic.SeverityWarning, diags[0].Severity)
}

func TestCheckWithNilCheckerReturnsNothing(t *testing.T) {
	var c *Checker
	diags, err := c.Check(t.Context(), nil)
	require.NoError(t, err)
	assert.Nil(t, diags)
}

func TestMissingExtensionDiagnosticSuggestsInstall(t *testing.T) {
	d := MissingExtensionDiagnostic()
	require.Len(t, d.Advices, 1)
	require.NotNil(t, d.Advices[0].Suggestion)
	assert.Contains(t, d.Advices[0].Suggestion.Items[0], "CREATE EXTENSION")
}

func TestRuleDisabledDiagnosticSuggestsEnable(t *testing.T) {
	d := RuleDisabledDiagnostic("unused_index")
	assert.Equal(t, "index", d.Category.Group)
	require.Len(t, d.Advices, 1)
	assert.Contains(t, d.Advices[0].Suggestion.Items[0], "enable_rule('unused_index')")
}

package sqlfunc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pg-lang-server/pgls/pkg/workspace"
)

func TestDetectDollarQuotedSQLBodyAfterAS(t *testing.T) {
	stmt := "create function add(a int, b int) returns int as $$ select a + b; $$ language sql;"
	body, ok := Detect(stmt)
	require.True(t, ok)
	assert.Equal(t, "sql", body.Language)
	assert.True(t, body.IsSQLBody())
	assert.Equal(t, " select a + b; ", body.Text)
}

func TestDetectLanguageBeforeAS(t *testing.T) {
	stmt := "create or replace function f() returns void language plpgsql as $$ begin null; end; $$;"
	body, ok := Detect(stmt)
	require.True(t, ok)
	assert.Equal(t, "plpgsql", body.Language)
	assert.False(t, body.IsSQLBody())
}

func TestDetectSingleQuotedBody(t *testing.T) {
	stmt := "create function f() returns int as 'select 1' language sql;"
	body, ok := Detect(stmt)
	require.True(t, ok)
	assert.Equal(t, "select 1", body.Text)
}

func TestDetectUnescapesDoubledQuotesInSingleQuotedBody(t *testing.T) {
	stmt := "create function f() returns text as 'select ''hi''' language sql;"
	body, ok := Detect(stmt)
	require.True(t, ok)
	assert.Equal(t, "select 'hi'", body.Text)
}

func TestDetectRejectsNonFunctionDDL(t *testing.T) {
	_, ok := Detect("create table t (id int);")
	assert.False(t, ok)
}

func TestDetectRejectsMissingLanguageClause(t *testing.T) {
	_, ok := Detect("create function f() returns int as $$ select 1; $$;")
	assert.False(t, ok)
}

func TestStoreCachesLookup(t *testing.T) {
	store := New()
	id := workspace.NewRootID("x")
	stmt := "create function f() returns int as $$ select 1; $$ language sql;"

	b1, ok := store.Lookup(id, stmt)
	require.True(t, ok)
	b2, ok := store.Lookup(id, stmt)
	require.True(t, ok)
	assert.Equal(t, b1, b2)
}

func TestStoreCachesNegativeLookup(t *testing.T) {
	store := New()
	id := workspace.NewRootID("x")
	_, ok := store.Lookup(id, "create table t (id int);")
	assert.False(t, ok)
	_, ok = store.Lookup(id, "create table t (id int);")
	assert.False(t, ok)
}

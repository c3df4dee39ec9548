package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitBasicStatements(t *testing.T) {
	text := "select 1; select 2;"
	stmts := Split(text)
	require.Len(t, stmts, 2)
	assert.Equal(t, "select 1;", stmts[0].Text(&Document{text: text}))
	assert.Equal(t, "select 2;", stmts[1].Text(&Document{text: text}))
}

func TestSplitReconstructsAscendingNonOverlappingRanges(t *testing.T) {
	text := "select 1;\nselect 2;\ncreate table t (id int);"
	stmts := Split(text)
	require.Len(t, stmts, 3)
	for i := 1; i < len(stmts); i++ {
		assert.LessOrEqual(t, stmts[i-1].Span.End, stmts[i].Span.Start)
		assert.Less(t, stmts[i-1].Span.Start, stmts[i].Span.Start)
	}
}

func TestSplitTrailingStatementWithoutSemicolon(t *testing.T) {
	text := "select 1;\nselect 2"
	stmts := Split(text)
	require.Len(t, stmts, 2)
	assert.Equal(t, "select 2", stmts[1].Text(&Document{text: text}))
}

func TestSplitIgnoresSemicolonInsideString(t *testing.T) {
	text := "select 'a;b';"
	stmts := Split(text)
	require.Len(t, stmts, 1)
}

func TestSplitIgnoresSemicolonInsideComment(t *testing.T) {
	text := "select 1 -- not a terminator; really\n;"
	stmts := Split(text)
	require.Len(t, stmts, 1)
}

func TestSplitIgnoresSemicolonInsideParens(t *testing.T) {
	text := "create table t (id int, check (id > 0));"
	stmts := Split(text)
	require.Len(t, stmts, 1)
}

func TestSplitProducesChildForDollarQuotedFunctionBody(t *testing.T) {
	text := "create function f() returns int as $$ select 1; $$ language sql;"
	stmts := Split(text)
	require.Len(t, stmts, 2)

	root := stmts[0]
	child := stmts[1]
	assert.Equal(t, KindRoot, root.ID.Kind())
	assert.Equal(t, KindChild, child.ID.Kind())
	assert.True(t, child.ID.IsChildOf(root.ID))
}

func TestSplitEmptyDocumentHasNoStatements(t *testing.T) {
	assert.Empty(t, Split(""))
	assert.Empty(t, Split("   \n\t "))
}

func TestSplitIsDeterministic(t *testing.T) {
	text := "select 1; select 2; select 3;"
	a := Split(text)
	b := Split(text)
	require.Len(t, a, len(b))
	for i := range a {
		assert.True(t, a[i].ID.Equal(b[i].ID))
		assert.Equal(t, a[i].Span, b[i].Span)
	}
}

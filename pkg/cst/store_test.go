package cst

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pg-lang-server/pgls/pkg/workspace"
)

func TestParseCachesTree(t *testing.T) {
	store := New()
	id := workspace.NewRootID("select 1;")

	r1, err := store.Parse(context.Background(), id, "select 1;")
	require.NoError(t, err)
	require.NotNil(t, r1.Root())
	assert.Equal(t, 1, store.Len())

	r2, err := store.Parse(context.Background(), id, "select 1;")
	require.NoError(t, err)
	assert.Same(t, r1.Tree, r2.Tree)
}

func TestParseTolerantOfIncompleteStatement(t *testing.T) {
	store := New()
	id := workspace.NewRootID("select 1 from ")

	r, err := store.Parse(context.Background(), id, "select 1 from ")
	require.NoError(t, err)
	require.NotNil(t, r.Root(), "tree-sitter always returns a tree, even for incomplete input")
}

func TestEvictDropsCachedTree(t *testing.T) {
	store := New()
	id := workspace.NewRootID("select 1;")
	_, err := store.Parse(context.Background(), id, "select 1;")
	require.NoError(t, err)

	store.Evict(id)
	assert.Equal(t, 0, store.Len())
}

func TestNodeAtOffsetFindsLeaf(t *testing.T) {
	store := New()
	id := workspace.NewRootID("select 1;")
	r, err := store.Parse(context.Background(), id, "select 1;")
	require.NoError(t, err)

	node := NodeAtOffset(r.Root(), 7)
	require.NotNil(t, node)
	assert.LessOrEqual(t, node.StartByte(), uint32(7))
	assert.GreaterOrEqual(t, node.EndByte(), uint32(7))
}

func TestNodeAtOffsetOutOfRangeReturnsNil(t *testing.T) {
	store := New()
	id := workspace.NewRootID("select 1;")
	r, err := store.Parse(context.Background(), id, "select 1;")
	require.NoError(t, err)

	assert.Nil(t, NodeAtOffset(r.Root(), 1000))
}

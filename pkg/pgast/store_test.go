package pgast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pg-lang-server/pgls/pkg/workspace"
)

func TestParseCachesSuccessfulResult(t *testing.T) {
	store := New()
	id := workspace.NewRootID("select 1;")

	r1 := store.Parse(context.Background(), id, "select 1;")
	require.NoError(t, r1.Err)
	require.NotNil(t, r1.AST)
	assert.Equal(t, 1, store.Len())

	r2 := store.Parse(context.Background(), id, "select 1;")
	assert.Same(t, r1.AST, r2.AST, "second call must hit the cache, not reparse")
}

func TestParseCachesErrorResult(t *testing.T) {
	store := New()
	id := workspace.NewRootID("select select select;")

	r := store.Parse(context.Background(), id, "select select select;")
	assert.Error(t, r.Err)
	assert.Nil(t, r.AST)
	assert.Equal(t, 1, store.Len(), "a parse failure is cached too")
}

func TestEvictForcesReparse(t *testing.T) {
	store := New()
	id := workspace.NewRootID("select 1;")

	store.Parse(context.Background(), id, "select 1;")
	require.Equal(t, 1, store.Len())

	store.Evict(id)
	assert.Equal(t, 0, store.Len())
}

func TestParseHonorsCancelledContext(t *testing.T) {
	store := New()
	id := workspace.NewRootID("select 1;")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := store.Parse(ctx, id, "select 1;")
	assert.Error(t, r.Err)
}

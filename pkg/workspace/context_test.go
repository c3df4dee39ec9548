package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysedFileContextAccumulatesPreviousStatements(t *testing.T) {
	stmts := Split("select 1;\nselect 2;")
	ctx := NewAnalysedFileContext()

	assert.Empty(t, ctx.PreviousStatements)
	ctx.Advance(stmts[0])
	require.Len(t, ctx.PreviousStatements, 1)
	ctx.Advance(stmts[1])
	require.Len(t, ctx.PreviousStatements, 2)
}

func TestTransactionStateCloneIsIndependent(t *testing.T) {
	base := NewTransactionState()
	base.CreatedObjects["public.accounts"] = true

	clone := base.Clone()
	clone.CreatedObjects["public.sessions"] = true
	clone.LockTimeoutSet = true

	assert.False(t, base.LockTimeoutSet)
	assert.NotContains(t, base.CreatedObjects, "public.sessions")
	assert.Contains(t, clone.CreatedObjects, "public.accounts")
}

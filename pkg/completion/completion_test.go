package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pg-lang-server/pgls/pkg/schema"
)

func TestFuzzyScorePrefersExactThenPrefixThenSubstring(t *testing.T) {
	exact, ok := fuzzyScore("users", "users")
	require.True(t, ok)
	prefix, ok := fuzzyScore("users", "use")
	require.True(t, ok)
	substr, ok := fuzzyScore("users", "ser")
	require.True(t, ok)
	_, ok = fuzzyScore("users", "zzz")
	require.False(t, ok)

	assert.Greater(t, exact, prefix)
	assert.Greater(t, prefix, substr)
}

func TestCompleteScoresTablesAndColumnsFromCache(t *testing.T) {
	cache := &schema.Cache{
		Tables: []schema.Table{
			{Name: "users", SchemaName: "public", Columns: []schema.Column{{Name: "id", TableName: "users"}}},
			{Name: "audit_log", SchemaName: "pg_catalog"},
		},
	}

	items := Complete(t.Context(), Context{Prefix: "us", MentionedRelations: map[string]bool{}}, cache)
	require.NotEmpty(t, items)
	assert.Equal(t, "users", items[0].Label)
}

func TestCompleteAppliesSystemSchemaPenalty(t *testing.T) {
	cache := &schema.Cache{
		Tables: []schema.Table{
			{Name: "accounts", SchemaName: "public"},
			{Name: "pg_stat", SchemaName: "pg_catalog"},
		},
	}
	items := Complete(t.Context(), Context{MentionedRelations: map[string]bool{}}, cache)

	var publicScore, catalogScore float64
	for _, it := range items {
		if it.Label == "accounts" {
			publicScore = it.Score
		}
		if it.Label == "pg_stat" {
			catalogScore = it.Score
		}
	}
	assert.Greater(t, publicScore, catalogScore)
}

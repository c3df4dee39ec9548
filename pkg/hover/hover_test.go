package hover

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pg-lang-server/pgls/pkg/completion"
	"github.com/pg-lang-server/pgls/pkg/schema"
)

func defaultExpr(s string) *string { return &s }

func TestRenderIncludesHeadlineAndPrimaryKeyFlag(t *testing.T) {
	cache := &schema.Cache{Tables: []schema.Table{{
		Name: "users", SchemaName: "public",
		Columns: []schema.Column{{Name: "id", TypeName: "int4", IsPrimaryKey: true, DefaultExpr: defaultExpr("nextval('users_id_seq')")}},
	}}}

	out := Render("id", completion.Context{MentionedRelations: map[string]bool{}}, cache)
	require.NotEmpty(t, out)
	assert.Contains(t, out, "public.users.id")
	assert.Contains(t, out, "primary key")
	assert.Contains(t, out, "nextval")
}

func TestRenderReturnsEmptyForUnknownToken(t *testing.T) {
	cache := &schema.Cache{}
	assert.Empty(t, Render("nope", completion.Context{}, cache))
}

func TestGapFilterStopsAtFirstLargeDrop(t *testing.T) {
	in := []Candidate{{Headline: "a", score: 1.0}, {Headline: "b", score: 0.9}, {Headline: "c", score: 0.2}, {Headline: "d", score: 0.19}}
	out := gapFilter(in)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Headline)
	assert.Equal(t, "b", out[1].Headline)
}

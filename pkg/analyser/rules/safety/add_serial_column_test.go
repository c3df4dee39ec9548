package safety

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pg-lang-server/pgls/pkg/analyser"
	"github.com/pg-lang-server/pgls/pkg/pgast"
	"github.com/pg-lang-server/pgls/pkg/workspace"
)

func parseFirstStmt(t *testing.T, sql string) *analyser.RuleContext {
	t.Helper()
	store := pgast.New()
	id := workspace.NewRootID(sql)
	result := store.Parse(context.Background(), id, sql)
	require.NoError(t, result.Err)
	require.NotEmpty(t, result.AST.Stmts)
	return &analyser.RuleContext{Node: result.AST.Stmts[0].Stmt}
}

func TestAddSerialColumnFlagsSerialType(t *testing.T) {
	ctx := parseFirstStmt(t, "ALTER TABLE prices ADD COLUMN id serial;")
	diags := addSerialColumn{}.Run(ctx)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "serial")
}

func TestAddSerialColumnFlagsBigserial(t *testing.T) {
	ctx := parseFirstStmt(t, "ALTER TABLE prices ADD COLUMN id bigserial;")
	diags := addSerialColumn{}.Run(ctx)
	require.Len(t, diags, 1)
}

func TestAddSerialColumnFlagsStoredGenerated(t *testing.T) {
	ctx := parseFirstStmt(t, "ALTER TABLE prices ADD COLUMN total int GENERATED ALWAYS AS (price * quantity) STORED;")
	diags := addSerialColumn{}.Run(ctx)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "GENERATED ALWAYS")
}

func TestAddSerialColumnIgnoresPlainColumn(t *testing.T) {
	ctx := parseFirstStmt(t, "ALTER TABLE prices ADD COLUMN label text;")
	diags := addSerialColumn{}.Run(ctx)
	assert.Empty(t, diags)
}

func TestAddSerialColumnIgnoresOtherStatements(t *testing.T) {
	ctx := parseFirstStmt(t, "SELECT 1;")
	diags := addSerialColumn{}.Run(ctx)
	assert.Empty(t, diags)
}

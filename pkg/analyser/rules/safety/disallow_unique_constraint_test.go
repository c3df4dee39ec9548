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

func TestDisallowUniqueConstraintFlagsAddConstraint(t *testing.T) {
	ctx := parseFirstStmt(t, "ALTER TABLE table_name ADD CONSTRAINT field_name_constraint UNIQUE (field_name);")
	diags := disallowUniqueConstraint{}.Run(ctx)
	require.Len(t, diags, 1)
}

func TestDisallowUniqueConstraintFlagsInlineColumnUnique(t *testing.T) {
	ctx := parseFirstStmt(t, "ALTER TABLE foo ADD COLUMN bar text UNIQUE;")
	diags := disallowUniqueConstraint{}.Run(ctx)
	require.Len(t, diags, 1)
}

func TestDisallowUniqueConstraintAllowsConstraintUsingIndex(t *testing.T) {
	ctx := parseFirstStmt(t, "ALTER TABLE distributors ADD CONSTRAINT distributors_pkey PRIMARY KEY USING INDEX dist_id_temp_idx;")
	diags := disallowUniqueConstraint{}.Run(ctx)
	assert.Empty(t, diags)
}

func TestDisallowUniqueConstraintExemptsTableCreatedThisFile(t *testing.T) {
	store := pgast.New()
	createSQL := "CREATE TABLE table_name (field_name int);"
	createID := workspace.NewRootID(createSQL)
	createResult := store.Parse(context.Background(), createID, createSQL)
	require.NoError(t, createResult.Err)

	alterSQL := "ALTER TABLE table_name ADD CONSTRAINT c UNIQUE (field_name);"
	alterID := workspace.NewRootID(alterSQL)
	alterResult := store.Parse(context.Background(), alterID, alterSQL)
	require.NoError(t, alterResult.Err)

	ctx := &analyser.RuleContext{
		Node: alterResult.AST.Stmts[0].Stmt,
		Previous: []analyser.PreviousStatement{
			{Node: createResult.AST.Stmts[0].Stmt},
		},
	}

	diags := disallowUniqueConstraint{}.Run(ctx)
	assert.Empty(t, diags)
}

func TestDisallowUniqueConstraintIgnoresOtherStatements(t *testing.T) {
	ctx := parseFirstStmt(t, "SELECT 1;")
	diags := disallowUniqueConstraint{}.Run(ctx)
	assert.Empty(t, diags)
}

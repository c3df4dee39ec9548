package prettyprint

import (
	"testing"

	pgquery "github.com/pganalyze/pg_query_go/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func firstStmt(t *testing.T, sql string) *pgquery.Node {
	t.Helper()
	result, err := pgquery.Parse(sql)
	require.NoError(t, err, "parsing %q", sql)
	require.NotEmpty(t, result.Stmts)
	return result.Stmts[0].Stmt
}

func TestPrintSelectRoundTrips(t *testing.T) {
	node := firstStmt(t, "select id, name as label from users where id = 1 order by id desc limit 10")

	out, err := Default.Print(node)
	require.NoError(t, err)

	reparsed, err := pgquery.Parse(out)
	require.NoError(t, err, "pretty-printed output should reparse: %s", out)
	assert.Len(t, reparsed.Stmts, 1)

	_, ok := reparsed.Stmts[0].Stmt.GetNode().(*pgquery.Node_SelectStmt)
	assert.True(t, ok, "reparsed statement should still be a SELECT")
}

func TestPrintSelectStar(t *testing.T) {
	node := firstStmt(t, "select * from users")

	out, err := Default.Print(node)
	require.NoError(t, err)
	assert.Contains(t, out, "*")
	assert.Contains(t, out, "FROM")
	assert.Contains(t, out, "users")
}

func TestPrintInsertValues(t *testing.T) {
	node := firstStmt(t, "insert into users (id, name) values (1, 'ada')")

	out, err := Default.Print(node)
	require.NoError(t, err)

	reparsed, err := pgquery.Parse(out)
	require.NoError(t, err, "pretty-printed output should reparse: %s", out)

	_, ok := reparsed.Stmts[0].Stmt.GetNode().(*pgquery.Node_InsertStmt)
	assert.True(t, ok, "reparsed statement should still be an INSERT")
}

func TestPrintCreateTable(t *testing.T) {
	node := firstStmt(t, `create table if not exists users (
		id int not null primary key,
		name text not null,
		email text unique
	)`)

	out, err := Default.Print(node)
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS users")

	reparsed, err := pgquery.Parse(out)
	require.NoError(t, err, "pretty-printed output should reparse: %s", out)

	create, ok := reparsed.Stmts[0].Stmt.GetNode().(*pgquery.Node_CreateStmt)
	require.True(t, ok, "reparsed statement should still be a CREATE TABLE")
	assert.Equal(t, "users", create.CreateStmt.Relation.Relname)
	assert.Len(t, create.CreateStmt.TableElts, 3)
}

func TestPrintUnsupportedNodeReturnsError(t *testing.T) {
	node := firstStmt(t, "drop table users")

	_, err := Default.Print(node)
	assert.Error(t, err)
}

func TestNewWithCustomIndent(t *testing.T) {
	p := New(4)
	node := firstStmt(t, "select id from users")

	out, err := p.Print(node)
	require.NoError(t, err)
	assert.Contains(t, out, "\n    id")
}

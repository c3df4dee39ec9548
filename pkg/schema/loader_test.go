package schema

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAssemblesCacheFromAllQueries(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery(`show server_version`).
		WillReturnRows(pgxmock.NewRows([]string{"server_version"}).AddRow("16.3"))

	mock.ExpectQuery(`select c.oid, c.relname`).
		WillReturnRows(pgxmock.NewRows(
			[]string{"oid", "relname", "nspname", "relkind", "attname", "attnum", "atttypid",
				"typname", "is_nullable", "is_primary_key", "is_unique", "default_expr"}).
			AddRow(uint32(100), "accounts", "public", "r", "id", int16(1), uint32(23),
				"int4", false, true, true, (*string)(nil)))

	mock.ExpectQuery(`select p.oid, p.proname`).
		WillReturnRows(pgxmock.NewRows(
			[]string{"oid", "proname", "nspname", "prokind", "provolatile", "lanname",
				"proargtypes", "proargnames", "prorettype", "proretset", "prosrc"}))

	mock.ExpectQuery(`select pol.polname`).
		WillReturnRows(pgxmock.NewRows(
			[]string{"polname", "relname", "nspname", "polpermissive", "polcmd", "roles", "qual", "withcheck"}))

	mock.ExpectQuery(`select t.tgname`).
		WillReturnRows(pgxmock.NewRows([]string{"tgname", "relname", "nspname", "tgtype", "tgfoid"}))

	mock.ExpectQuery(`select t.oid, t.typname`).
		WillReturnRows(pgxmock.NewRows([]string{"oid", "typname", "nspname", "is_enum", "enumlabels"}))

	mock.ExpectQuery(`select rolname, rolsuper, rolcanlogin`).
		WillReturnRows(pgxmock.NewRows([]string{"rolname", "rolsuper", "rolcanlogin"}).
			AddRow("postgres", true, true))

	mock.ExpectQuery(`select e.extname, e.extversion, n.nspname`).
		WillReturnRows(pgxmock.NewRows([]string{"extname", "extversion", "nspname"}).
			AddRow("pgcrypto", "1.3", "public"))

	loader := NewLoader(mock, nil)
	cache, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "16.3", cache.Version)
	require.Len(t, cache.Tables, 1)
	assert.Equal(t, "accounts", cache.Tables[0].Name)
	require.Len(t, cache.Tables[0].Columns, 1)
	assert.True(t, cache.Tables[0].Columns[0].IsPrimaryKey)
	require.Len(t, cache.Roles, 1)
	require.Len(t, cache.Extensions, 1)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadFailsWholeCacheOnQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery(`show server_version`).WillReturnError(assertErr)
	mock.ExpectQuery(`select c.oid, c.relname`).
		WillReturnRows(pgxmock.NewRows([]string{"oid", "relname", "nspname", "relkind", "attname",
			"attnum", "atttypid", "typname", "is_nullable", "is_primary_key", "is_unique", "default_expr"}))
	mock.ExpectQuery(`select p.oid, p.proname`).
		WillReturnRows(pgxmock.NewRows([]string{"oid", "proname", "nspname", "prokind", "provolatile",
			"lanname", "proargtypes", "proargnames", "prorettype", "proretset", "prosrc"}))
	mock.ExpectQuery(`select pol.polname`).
		WillReturnRows(pgxmock.NewRows([]string{"polname", "relname", "nspname", "polpermissive",
			"polcmd", "roles", "qual", "withcheck"}))
	mock.ExpectQuery(`select t.tgname`).
		WillReturnRows(pgxmock.NewRows([]string{"tgname", "relname", "nspname", "tgtype", "tgfoid"}))
	mock.ExpectQuery(`select t.oid, t.typname`).
		WillReturnRows(pgxmock.NewRows([]string{"oid", "typname", "nspname", "is_enum", "enumlabels"}))
	mock.ExpectQuery(`select rolname, rolsuper, rolcanlogin`).
		WillReturnRows(pgxmock.NewRows([]string{"rolname", "rolsuper", "rolcanlogin"}))
	mock.ExpectQuery(`select e.extname, e.extversion, n.nspname`).
		WillReturnRows(pgxmock.NewRows([]string{"extname", "extversion", "nspname"}))

	loader := NewLoader(mock, nil)
	_, err = loader.Load(context.Background())
	assert.Error(t, err)
}

type sentinelError string

func (e sentinelError) Error() string { return string(e) }

const assertErr = sentinelError("boom")

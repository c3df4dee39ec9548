// Package dbpool owns the single pgx connection pool shared by the schema
// cache loader, typechecker, plpgsql-check bridge and db-linter bridge --
// the only mutable shared resource beyond the document map. Each of those
// packages depends on its own narrow interface (schema.Querier,
// typecheck.Preparer, plpgsqlcheck.Querier, dblinter.Querier) rather than
// on *pgxpool.Pool directly, so tests can substitute fakes (pgxmock for
// schema.Querier) without touching this package at all.
package dbpool

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pg-lang-server/pgls/internal/config"
	"github.com/pg-lang-server/pgls/pkg/dblinter"
	"github.com/pg-lang-server/pgls/pkg/plpgsqlcheck"
)

// Pool wraps a *pgxpool.Pool with the connect timeout and disable switch
// from the project's db config.
type Pool struct {
	*pgxpool.Pool
}

// Open connects using cfg.DB, honoring DisableConnection (returns nil, nil
// so callers can treat "no database configured" as a normal, schema-less
// mode rather than an error) and ConnTimeoutSecs.
func Open(ctx context.Context, cfg config.DBConfig) (*Pool, error) {
	if cfg.DisableConnection {
		return nil, nil
	}

	timeout := time.Duration(cfg.ConnTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(config.DefaultConnTimeoutSecs) * time.Second
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("dbpool: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("dbpool: connect: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("dbpool: ping: %w", err)
	}
	return &Pool{Pool: pool}, nil
}

// Close releases the pool's connections. Safe to call on a nil *Pool, which
// is the shape Open returns when the database is disabled.
func (p *Pool) Close() {
	if p == nil || p.Pool == nil {
		return
	}
	p.Pool.Close()
}

// PLPGSQLQuerier adapts Pool to plpgsqlcheck.Querier: pgxpool.Pool.Query
// returns pgx.Rows, a wider interface than plpgsqlcheck.Rows, and Go
// interface satisfaction needs the narrower signature spelled out
// explicitly rather than relying on return-type covariance.
func (p *Pool) PLPGSQLQuerier() plpgsqlcheck.Querier { return plpgsqlQuerier{p} }

type plpgsqlQuerier struct{ pool *Pool }

func (q plpgsqlQuerier) Query(ctx context.Context, sql string, args ...any) (plpgsqlcheck.Rows, error) {
	return q.pool.Query(ctx, sql, args...)
}

// DBLinterQuerier adapts Pool to dblinter.Querier for the same reason as
// PLPGSQLQuerier.
func (p *Pool) DBLinterQuerier() dblinter.Querier { return dbLinterQuerier{p} }

type dbLinterQuerier struct{ pool *Pool }

func (q dbLinterQuerier) Query(ctx context.Context, sql string, args ...any) (dblinter.Rows, error) {
	return q.pool.Query(ctx, sql, args...)
}

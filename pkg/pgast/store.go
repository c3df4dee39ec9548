// Package pgast is the memoized AST layer: it wraps pg_query_go's protobuf
// Postgres parser behind a per-statement cache keyed by StatementId, so a
// statement that hasn't changed is never reparsed. It never panics on
// malformed SQL -- a parse failure is reported as an error result and
// cached the same as a success, because a syntactically invalid statement
// stays invalid until its text changes.
package pgast

import (
	"context"
	"sync"

	pgquery "github.com/pganalyze/pg_query_go/v6"
	"golang.org/x/sync/singleflight"

	"github.com/pg-lang-server/pgls/pkg/workspace"
)

// Result is one statement's parse outcome: either a protobuf AST or the
// error pg_query_go returned trying to produce one.
type Result struct {
	AST *pgquery.ParseResult
	Err error
}

// Store is a memoized AST cache. The zero value is not usable; call New.
type Store struct {
	mu      sync.RWMutex
	entries map[workspace.StatementID]Result
	group   singleflight.Group
}

// New returns an empty AST store.
func New() *Store {
	return &Store{entries: make(map[workspace.StatementID]Result)}
}

// Parse returns the AST for a statement, computing and caching it on first
// request. Concurrent calls for the same id share one underlying parse via
// singleflight, so a burst of requests for a just-edited statement never
// runs pg_query_go more than once.
func (s *Store) Parse(ctx context.Context, id workspace.StatementID, sql string) Result {
	if err := ctx.Err(); err != nil {
		return Result{Err: err}
	}
	if r, ok := s.lookup(id); ok {
		return r
	}

	key := id.String()
	v, _, _ := s.group.Do(key, func() (interface{}, error) {
		if r, ok := s.lookup(id); ok {
			return r, nil
		}
		ast, err := pgquery.Parse(sql)
		r := Result{AST: ast, Err: err}
		s.store(id, r)
		return r, nil
	})
	return v.(Result)
}

func (s *Store) lookup(id workspace.StatementID) (Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.entries[id]
	return r, ok
}

func (s *Store) store(id workspace.StatementID, r Result) {
	s.mu.Lock()
	s.entries[id] = r
	s.mu.Unlock()
}

// Evict drops the cached entries for ids, forcing their next Parse call to
// reparse. Callers should evict the ids reported Deleted or Modified (old
// side) by a workspace.Diff.
func (s *Store) Evict(ids ...workspace.StatementID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.entries, id)
	}
}

// Len reports how many statements currently have a cached parse result.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

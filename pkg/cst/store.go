// Package cst is the memoized concrete-syntax-tree layer used by
// completion and hover: a tree-sitter SQL parse per statement, kept
// alongside its source bytes since tree-sitter nodes address content by
// byte range into the buffer they were parsed from. Unlike pgast, cst
// tolerates -- even expects -- syntactically incomplete statements, since
// completion runs while the user is still typing.
package cst

import (
	"context"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/sql"
	"golang.org/x/sync/singleflight"

	"github.com/pg-lang-server/pgls/pkg/workspace"
)

// Result is one statement's tree-sitter parse: the tree plus the exact
// source bytes it was parsed from (Node.Content needs both).
type Result struct {
	Tree   *sitter.Tree
	Source []byte
}

// Root returns the tree's root node, or nil if the parse failed entirely.
func (r Result) Root() *sitter.Node {
	if r.Tree == nil {
		return nil
	}
	return r.Tree.RootNode()
}

// Store is a memoized, per-statement CST cache.
type Store struct {
	mu      sync.RWMutex
	entries map[workspace.StatementID]Result
	group   singleflight.Group
}

// New returns an empty CST store.
func New() *Store {
	return &Store{entries: make(map[workspace.StatementID]Result)}
}

func newParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(sql.GetLanguage())
	return p
}

// Parse returns the CST for a statement, parsing and caching it on first
// request.
func (s *Store) Parse(ctx context.Context, id workspace.StatementID, source string) (Result, error) {
	if r, ok := s.lookup(id); ok {
		return r, nil
	}

	key := id.String()
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		if r, ok := s.lookup(id); ok {
			return r, nil
		}
		src := []byte(source)
		tree, err := newParser().ParseCtx(ctx, nil, src)
		if err != nil {
			return Result{}, err
		}
		r := Result{Tree: tree, Source: src}
		s.store(id, r)
		return r, nil
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

// ParseIncremental reparses source for id, seeding the parser with prev's
// tree so tree-sitter can reuse unaffected subtrees. Use this for the
// Modified half of a workspace.StatementChange, where prev is the old
// statement's cached result.
func (s *Store) ParseIncremental(ctx context.Context, id workspace.StatementID, source string, prev Result) (Result, error) {
	src := []byte(source)
	tree, err := newParser().ParseCtx(ctx, prev.Tree, src)
	if err != nil {
		return Result{}, err
	}
	r := Result{Tree: tree, Source: src}
	s.store(id, r)
	return r, nil
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

// Evict drops cached trees for ids.
func (s *Store) Evict(ids ...workspace.StatementID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.entries, id)
	}
}

// Len reports the number of statements with a cached tree.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// NodeAtOffset returns the smallest node of root whose byte range contains
// offset, or nil if root is nil or offset falls outside it. Completion and
// hover both start from this.
func NodeAtOffset(root *sitter.Node, offset uint32) *sitter.Node {
	if root == nil || offset < root.StartByte() || offset >= root.EndByte() {
		if root != nil && offset == root.EndByte() {
			return root
		}
		return nil
	}
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child == nil {
			continue
		}
		if offset >= child.StartByte() && offset <= child.EndByte() {
			if found := NodeAtOffset(child, offset); found != nil {
				return found
			}
		}
	}
	return root
}

// Package sqlfunc extracts the inline body of a SQL-language function or
// procedure (CREATE FUNCTION ... LANGUAGE sql ... AS $$ ... $$) so its
// statements can be split and analysed like any other SQL in the file.
// PL/pgSQL bodies are detected and returned too, with IsSQLBody reporting
// false for them; pkg/plpgsqlcheck is the package that understands
// PL/pgSQL control flow.
//
// Detection works by substring search over the statement's own text rather
// than by walking the protobuf AST: CREATE FUNCTION's LANGUAGE and AS
// clauses can appear in either order and the parser keeps no byte offsets
// for list-valued options, so a small lexer-aware scan is simpler and just
// as reliable for this narrow purpose.
package sqlfunc

import (
	"regexp"
	"strings"
	"sync"

	"github.com/pg-lang-server/pgls/pkg/lexer"
	"github.com/pg-lang-server/pgls/pkg/workspace"
)

var (
	ddlRe      = regexp.MustCompile(`(?i)^\s*create\s+(or\s+replace\s+)?(function|procedure)\b`)
	languageRe = regexp.MustCompile(`(?i)\blanguage\s+"?([a-zA-Z_][a-zA-Z0-9_]*)"?`)
	asRe       = regexp.MustCompile(`(?i)\bas\b`)
)

// Body is an extracted function/procedure body.
type Body struct {
	// Language is the lowercased LANGUAGE clause, e.g. "sql" or "plpgsql".
	Language string
	// Span is the body literal's byte range within the owning statement's
	// text, delimiters included (so it lines up with the Child statement
	// workspace.Split produced for the same dollar-quoted run).
	Span lexer.Span
	// Text is the body with its quoting (dollar-quote tags, or '' escaping
	// inside a plain string literal) stripped.
	Text string
}

// IsSQLBody reports whether b is a LANGUAGE sql body, the only kind this
// package's caller should hand to the statement splitter for re-analysis.
func (b Body) IsSQLBody() bool { return b.Language == "sql" }

// Detect inspects a root statement's text and returns its function body,
// if stmtText is a CREATE FUNCTION/PROCEDURE with a recognizable LANGUAGE
// and AS clause.
func Detect(stmtText string) (Body, bool) {
	if !ddlRe.MatchString(stmtText) {
		return Body{}, false
	}

	runs := lexer.Scan(stmtText)

	langLoc := languageRe.FindStringSubmatchIndex(stmtText)
	if langLoc == nil || !lexer.InCode(runs, langLoc[0]) {
		return Body{}, false
	}
	language := strings.ToLower(stmtText[langLoc[2]:langLoc[3]])

	for _, loc := range asRe.FindAllStringIndex(stmtText, -1) {
		if !lexer.InCode(runs, loc[0]) {
			continue
		}
		if run := findBodyAfter(runs, stmtText, loc[1]); run != nil {
			return Body{
				Language: language,
				Span:     run.Span,
				Text:     unquoteBody(run.State, stmtText[run.Span.Start:run.Span.End]),
			}, true
		}
	}
	return Body{}, false
}

// findBodyAfter finds the first dollar- or single-quoted run at or after
// byte offset pos, requiring every run strictly between pos and it to be
// blank StateCode (so "AS $$ ... $$" matches but "AS SECURITY DEFINER ..."
// does not).
func findBodyAfter(runs []lexer.Run, text string, pos int) *lexer.Run {
	for i := range runs {
		r := runs[i]
		if r.Span.End <= pos {
			continue
		}
		switch r.State {
		case lexer.StateDollarQuote, lexer.StateSingleQuote:
			return &runs[i]
		case lexer.StateCode:
			start := r.Span.Start
			if start < pos {
				start = pos
			}
			if strings.TrimSpace(text[start:r.Span.End]) != "" {
				return nil
			}
		default:
			return nil
		}
	}
	return nil
}

func unquoteBody(state lexer.State, raw string) string {
	switch state {
	case lexer.StateDollarQuote:
		if len(raw) < 2 {
			return raw
		}
		tagEnd := strings.IndexByte(raw[1:], '$')
		if tagEnd < 0 {
			return raw
		}
		opener := raw[:tagEnd+2]
		if len(raw) >= 2*len(opener) && strings.HasSuffix(raw, opener) {
			return raw[len(opener) : len(raw)-len(opener)]
		}
		return raw
	case lexer.StateSingleQuote:
		if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
			return strings.ReplaceAll(raw[1:len(raw)-1], "''", "'")
		}
		return raw
	default:
		return raw
	}
}

// Store memoizes function-body detection per root statement, since a
// large migration file can contain many CREATE FUNCTION statements that
// never change between edits.
type Store struct {
	mu      sync.RWMutex
	entries map[workspace.StatementID]*Body
}

// New returns an empty store.
func New() *Store {
	return &Store{entries: make(map[workspace.StatementID]*Body)}
}

// Lookup returns the detected body for a root statement, computing and
// caching it on first request. The second return is false if stmtText is
// not a function/procedure DDL with a recognizable body.
func (s *Store) Lookup(id workspace.StatementID, stmtText string) (Body, bool) {
	s.mu.RLock()
	cached, ok := s.entries[id]
	s.mu.RUnlock()
	if ok {
		if cached == nil {
			return Body{}, false
		}
		return *cached, true
	}

	body, found := Detect(stmtText)
	s.mu.Lock()
	if found {
		b := body
		s.entries[id] = &b
	} else {
		s.entries[id] = nil
	}
	s.mu.Unlock()
	return body, found
}

// Evict drops cached lookups for ids.
func (s *Store) Evict(ids ...workspace.StatementID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.entries, id)
	}
}

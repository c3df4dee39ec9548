// Package plpgsqlcheck bridges the plpgsql_check extension: for every
// CREATE FUNCTION statement whose language is plpgsql, it calls the
// extension's check function and converts each reported issue into a
// diagnostic anchored inside the function body.
package plpgsqlcheck

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pg-lang-server/pgls/pkg/diagnostic"
	"github.com/pg-lang-server/pgls/pkg/lexer"
)

// StatementRef locates the PL/pgSQL statement plpgsql_check reported
// against, by its 1-based line number within the function body.
type StatementRef struct {
	LineNumber int    `json:"lineno"`
	Text       string `json:"text"`
}

// QueryRef is the embedded SQL query a PL/pgSQL statement executes,
// plpgsql_check's 1-based byte position into it.
type QueryRef struct {
	Text     string `json:"text"`
	Position int    `json:"position"`
}

// Issue is one row plpgsql_check_function reports, decoded from its JSON
// output format.
type Issue struct {
	Level     string        `json:"level"`
	Message   string        `json:"message"`
	SQLState  string        `json:"sqlstate"`
	Statement *StatementRef `json:"statement"`
	Query     *QueryRef     `json:"query"`
}

// Querier is the subset of a pgx connection/pool needed to invoke the
// extension function.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}

// Rows is the minimal row-scanning surface Query needs; pgx.Rows already
// satisfies it.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close()
	Err() error
}

// Checker runs plpgsql_check_function over a live connection.
type Checker struct {
	Conn Querier
}

// NewChecker returns a Checker backed by conn.
func NewChecker(conn Querier) *Checker {
	return &Checker{Conn: conn}
}

const checkQuery = `select plpgsql_check_function($1, format => 'json')`

// Check invokes plpgsql_check_function for functionOID and converts every
// reported issue into a diagnostic positioned inside functionBody. A nil
// Checker returns no diagnostics: the caller is expected to have already
// confirmed the extension is installed (see MissingExtensionDiagnostic).
func (c *Checker) Check(ctx context.Context, functionOID uint32, functionBody string) ([]diagnostic.Diagnostic, error) {
	if c == nil || c.Conn == nil {
		return nil, nil
	}

	rows, err := c.Conn.Query(ctx, checkQuery, functionOID)
	if err != nil {
		return nil, fmt.Errorf("plpgsqlcheck: query function %d: %w", functionOID, err)
	}
	defer rows.Close()

	var out []diagnostic.Diagnostic
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("plpgsqlcheck: scan row: %w", err)
		}
		var issue Issue
		if err := json.Unmarshal([]byte(raw), &issue); err != nil {
			continue // malformed row from the extension; skip rather than fail the whole check
		}
		out = append(out, issue.toDiagnostic(functionBody))
	}
	return out, rows.Err()
}

func (issue Issue) toDiagnostic(functionBody string) diagnostic.Diagnostic {
	d := diagnostic.Diagnostic{
		Category: diagnostic.Category{Category: "plpgsql-check"},
		Severity: severityFor(issue.Level),
		Message:  issue.Message,
	}
	if issue.SQLState != "" {
		d.Advices = append(d.Advices, diagnostic.Advice{
			Log: &diagnostic.LogAdvice{Category: diagnostic.LogInfo, Message: "SQLSTATE " + issue.SQLState},
		})
	}
	if issue.Statement != nil {
		span := issue.spanInBody(functionBody)
		d.Span = &span
	}
	return d
}

func severityFor(level string) diagnostic.Severity {
	switch level {
	case "error":
		return diagnostic.SeverityError
	case "warning":
		return diagnostic.SeverityWarning
	case "notice":
		return diagnostic.SeverityHint
	default:
		return diagnostic.SeverityInformation
	}
}

// spanInBody computes the byte span plpgsql_check's line-number/position
// report corresponds to inside functionBody: the statement's line start,
// narrowed to the embedded query's reported position if present, else
// extended to the end of the statement (to the next THEN for an
// if/elsif, otherwise to the next top-level semicolon).
func (issue Issue) spanInBody(functionBody string) diagnostic.Span {
	lineStart := offsetOfLine(functionBody, issue.Statement.LineNumber)

	if issue.Query != nil && issue.Query.Text != "" {
		if at, ok := findOutsideStrings(functionBody, lineStart, issue.Query.Text); ok {
			pos := at + clampPosition(issue.Query.Position, len(issue.Query.Text))
			return diagnostic.Span{Start: pos, End: pos + 1}
		}
	}

	end := endOfStatement(functionBody, lineStart, issue.Statement.Text)
	return diagnostic.Span{Start: lineStart, End: end}
}

func clampPosition(pos, maxLen int) int {
	p := pos - 1
	if p < 0 {
		return 0
	}
	if p > maxLen {
		return maxLen
	}
	return p
}

func offsetOfLine(text string, lineNumber int) int {
	if lineNumber <= 1 {
		return 0
	}
	line := 1
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			line++
			if line == lineNumber {
				return i + 1
			}
		}
	}
	return len(text)
}

// findOutsideStrings finds the first occurrence of needle at or after
// start that is not inside a quoted or commented run.
func findOutsideStrings(text string, start int, needle string) (int, bool) {
	runs := lexer.Scan(text)
	search := text[start:]
	for {
		i := indexFrom(search, needle)
		if i < 0 {
			return 0, false
		}
		abs := start + i
		if lexer.InCode(runs, abs) {
			return abs, true
		}
		search = search[i+1:]
		start = abs + 1
	}
}

func indexFrom(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

// endOfStatement extends from lineStart to the end of the reported
// statement: for IF/ELSIF, to the next THEN keyword; otherwise to the
// next top-level semicolon.
func endOfStatement(text string, lineStart int, stmtText string) int {
	trimmed := trimLeadingSpace(stmtText)
	if hasPrefixFold(trimmed, "if") || hasPrefixFold(trimmed, "elsif") {
		if idx := indexFold(text[lineStart:], "then"); idx >= 0 {
			return lineStart + idx + len("then")
		}
	}
	runs := lexer.Scan(text)
	for i := lineStart; i < len(text); i++ {
		if text[i] == ';' && lexer.InCode(runs, i) {
			return i + 1
		}
	}
	return len(text)
}

func trimLeadingSpace(s string) string {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n') {
		i++
	}
	return s[i:]
}

func hasPrefixFold(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	for i := 0; i < len(prefix); i++ {
		a, b := s[i], prefix[i]
		if 'A' <= a && a <= 'Z' {
			a += 'a' - 'A'
		}
		if a != b {
			return false
		}
	}
	return true
}

func indexFold(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if hasPrefixFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}

// MissingExtensionDiagnostic is the single Error diagnostic surfaced when
// plpgsql_check is not installed in the target database, the same
// "extension not installed" failure shape pkg/dblinter uses.
func MissingExtensionDiagnostic() diagnostic.Diagnostic {
	return diagnostic.Diagnostic{
		Category: diagnostic.Category{Category: "plpgsql-check"},
		Severity: diagnostic.SeverityError,
		Message:  "plpgsql_check extension is not installed",
		Advices: []diagnostic.Advice{{Suggestion: &diagnostic.SuggestionAdvice{
			Header: "install the extension",
			Items:  []string{"CREATE EXTENSION plpgsql_check;"},
		}}},
	}
}

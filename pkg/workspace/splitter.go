package workspace

import (
	"github.com/pg-lang-server/pgls/pkg/diagnostic"
	"github.com/pg-lang-server/pgls/pkg/lexer"
)

// Split is the statement splitter: a total, deterministic function from
// document text to an ordered list of statements. It never errors -- an
// unterminated final statement becomes a trailing statement with no closing
// semicolon, and malformed strings/comments are handled the same way
// lexer.Scan handles them (by running to end of text).
//
// Splitting happens only on a top-level ';' -- one that lexer.Scan reports
// as StateCode and that is not nested inside parentheses. Semicolons inside
// string/identifier literals, comments, and dollar-quoted bodies never
// split. Every dollar-quoted run found inside a root statement's span also
// becomes a Child statement of that root, which is how a SQL- or
// PL/pgSQL-language function body gets its own StatementId.
func Split(text string) []Statement {
	runs := lexer.Scan(text)

	var roots []Statement
	depth := 0
	stmtStart := 0
	n := len(text)

	endRoot := func(end int) {
		for end > stmtStart && isBlank(text[end-1]) {
			end--
		}
		start := stmtStart
		for start < end && isBlank(text[start]) {
			start++
		}
		if start >= end {
			stmtStart = skipBlank(text, stmtStart, len(text))
			return
		}
		span := diagnostic.Span{Start: start, End: end}
		roots = append(roots, Statement{ID: NewRootID(text[start:end]), Span: span})
	}

	for _, r := range runs {
		if r.State != lexer.StateCode {
			continue
		}
		for i := r.Span.Start; i < r.Span.End; i++ {
			switch text[i] {
			case '(':
				depth++
			case ')':
				if depth > 0 {
					depth--
				}
			case ';':
				if depth == 0 {
					endRoot(i + 1)
					stmtStart = i + 1
				}
			}
		}
	}
	if stmtStart < n {
		endRoot(n)
	}

	// Attach dollar-quoted bodies found inside each root's span as children.
	var all []Statement
	for _, root := range roots {
		all = append(all, root)
		for _, r := range runs {
			if r.State != lexer.StateDollarQuote {
				continue
			}
			if r.Span.Start < root.Span.Start || r.Span.End > root.Span.End {
				continue
			}
			body := text[r.Span.Start:r.Span.End]
			all = append(all, Statement{
				ID:   NewChildID(root.ID, body),
				Span: diagnostic.Span{Start: r.Span.Start, End: r.Span.End},
			})
		}
	}
	return all
}

func isBlank(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}

func skipBlank(text string, from, to int) int {
	for from < to && isBlank(text[from]) {
		from++
	}
	return from
}

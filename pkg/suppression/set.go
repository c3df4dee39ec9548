package suppression

import (
	"strings"

	"github.com/pg-lang-server/pgls/pkg/diagnostic"
	"github.com/pg-lang-server/pgls/pkg/lexer"
)

// Range is a closed Start/End pair: every line from Start.Line through
// End.Line (inclusive) has Specifier suppressed.
type Range struct {
	Specifier Specifier
	StartLine int
	EndLine   int
}

// Set is every suppression comment found in a document, ready to answer
// whether a diagnostic is suppressed.
type Set struct {
	file   []Specifier
	line   map[int][]Specifier
	ranges []Range
	Errors []*ParseError
}

// Scan walks text's line comments and builds the suppression set for the
// whole document. It never errors itself -- a malformed suppression
// comment is recorded in Errors (so the caller can surface it as its own
// diagnostic) and otherwise ignored.
func Scan(text string) *Set {
	s := &Set{line: make(map[int][]Specifier)}

	var openStarts []Comment
	for _, r := range lexer.Scan(text) {
		if r.State != lexer.StateLineComment {
			continue
		}
		line := 1 + strings.Count(text[:r.Span.Start], "\n")
		commentText := text[r.Span.Start:r.Span.End]
		if !strings.HasPrefix(strings.TrimLeft(commentText, " \t"), tagPrefix) {
			continue
		}
		c, err := ParseComment(commentText, r.Span.Start, line)
		if err != nil {
			if pe, ok := err.(*ParseError); ok {
				s.Errors = append(s.Errors, pe)
			}
			continue
		}
		switch c.Kind {
		case KindFile:
			s.file = append(s.file, c.Specifier)
		case KindLine:
			s.line[c.Line] = append(s.line[c.Line], c.Specifier)
		case KindStart:
			openStarts = append(openStarts, c)
		case KindEnd:
			for i := len(openStarts) - 1; i >= 0; i-- {
				if openStarts[i].Specifier == c.Specifier {
					start := openStarts[i]
					s.ranges = append(s.ranges, Range{
						Specifier: start.Specifier,
						StartLine: start.Line,
						EndLine:   c.Line,
					})
					openStarts = append(openStarts[:i], openStarts[i+1:]...)
					break
				}
			}
		}
	}
	// Unmatched pgls-ignore-start comments suppress to end of file.
	lastLine := 1 + strings.Count(text, "\n")
	for _, start := range openStarts {
		s.ranges = append(s.ranges, Range{Specifier: start.Specifier, StartLine: start.Line, EndLine: lastLine})
	}
	return s
}

// Suppressed reports whether a diagnostic of category cat occurring on
// diagLine is silenced by any suppression comment in the set.
func (s *Set) Suppressed(diagLine int, cat diagnostic.Category) bool {
	for _, spec := range s.file {
		if spec.Matches(cat) {
			return true
		}
	}
	for _, spec := range s.line[diagLine] {
		if spec.Matches(cat) {
			return true
		}
	}
	for _, rg := range s.ranges {
		if diagLine >= rg.StartLine && diagLine <= rg.EndLine && rg.Specifier.Matches(cat) {
			return true
		}
	}
	return false
}

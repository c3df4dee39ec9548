// Package suppression parses `-- pgls-ignore[-all|-start|-end]` comments
// and answers whether a given diagnostic falls inside one.
package suppression

import (
	"fmt"
	"strings"

	"github.com/pg-lang-server/pgls/pkg/diagnostic"
	"github.com/pg-lang-server/pgls/pkg/lexer"
)

const tagPrefix = "-- pgls-ignore"

// Kind is which of the four suppression comment forms a comment used.
type Kind int

const (
	// KindLine suppresses diagnostics on the comment's own line.
	KindLine Kind = iota
	// KindFile suppresses a specifier for the whole document.
	KindFile
	// KindStart opens a suppressed range, closed by a matching KindEnd.
	KindStart
	// KindEnd closes the most recently opened KindStart with the same
	// specifier.
	KindEnd
)

func (k Kind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindFile:
		return "file"
	case KindStart:
		return "start"
	case KindEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Specifier names what a suppression comment silences: a bare category
// ("lint"), a category/group ("lint/safety"), or a full
// category/group/rule ("lint/safety/addSerialColumn").
type Specifier struct {
	Category string
	Group    string
	Rule     string
}

// ParseSpecifier parses a "category[/group[/rule]]" string.
func ParseSpecifier(s string) (Specifier, error) {
	parts := strings.Split(s, "/")
	if len(parts) == 0 || parts[0] == "" {
		return Specifier{}, fmt.Errorf("suppression: empty specifier")
	}
	if len(parts) > 3 {
		return Specifier{}, fmt.Errorf("suppression: too many '/' in specifier %q", s)
	}
	spec := Specifier{Category: parts[0]}
	if len(parts) > 1 {
		spec.Group = parts[1]
	}
	if len(parts) > 2 {
		spec.Rule = parts[2]
	}
	return spec, nil
}

// Matches reports whether cat falls under spec: an exact category match,
// and (if present) an exact group match, and (if present) an exact rule
// match.
func (spec Specifier) Matches(cat diagnostic.Category) bool {
	if spec.Category != cat.Category {
		return false
	}
	if spec.Group == "" {
		return true
	}
	if spec.Group != cat.Group {
		return false
	}
	if spec.Rule == "" {
		return true
	}
	return spec.Rule == cat.Rule
}

// Comment is one parsed suppression comment.
type Comment struct {
	Kind        Kind
	Specifier   Specifier
	Span        lexer.Span
	Line        int // 1-based
	Explanation string
}

// ParseError reports a malformed suppression comment: present but
// unparsable, which pgls surfaces as its own diagnostic rather than
// silently ignoring.
type ParseError struct {
	Span    lexer.Span
	Message string
}

func (e *ParseError) Error() string { return e.Message }

// ParseComment parses one suppression comment. text is the full line
// comment's text (including the leading "--"), lineStart is its byte
// offset within the document, and line is its 1-based line number.
func ParseComment(text string, lineStart, line int) (Comment, error) {
	trimmedStart := strings.TrimLeft(text, " \t")
	leading := len(text) - len(trimmedStart)
	trimmed := strings.TrimRight(trimmedStart, " \t\r")

	if !strings.HasPrefix(trimmed, "-- pgls-ignore") {
		return Comment{}, &ParseError{
			Span:    lexer.Span{Start: lineStart, End: lineStart + len(text)},
			Message: "not a pgls-ignore suppression comment",
		}
	}

	span := lexer.Span{Start: lineStart + leading, End: lineStart + leading + len(trimmed)}

	body, explanation, _ := strings.Cut(trimmed, ":")
	explanation = strings.TrimSpace(explanation)

	fields := strings.Fields(body)
	if len(fields) < 2 {
		return Comment{}, &ParseError{Span: span, Message: "missing suppression tag"}
	}

	var kind Kind
	switch fields[1] {
	case "pgls-ignore":
		kind = KindLine
	case "pgls-ignore-all":
		kind = KindFile
	case "pgls-ignore-start":
		kind = KindStart
	case "pgls-ignore-end":
		kind = KindEnd
	default:
		return Comment{}, &ParseError{
			Span:    span,
			Message: fmt.Sprintf("%q is not a valid suppression tag", fields[1]),
		}
	}

	if len(fields) < 3 {
		return Comment{}, &ParseError{Span: span, Message: "missing rule specifier to suppress"}
	}
	spec, err := ParseSpecifier(fields[2])
	if err != nil {
		return Comment{}, &ParseError{Span: span, Message: err.Error()}
	}

	c := Comment{Kind: kind, Specifier: spec, Span: span, Line: line}
	if explanation != "" {
		c.Explanation = explanation
	}
	return c, nil
}

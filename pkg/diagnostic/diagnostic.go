package diagnostic

import (
	"fmt"
	"sort"
)

// Span is a half-open byte range [Start, End) into an owning document.
type Span struct {
	Start int
	End   int
}

// Contains reports whether offset falls within the span.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// Overlaps reports whether s and other share at least one byte.
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// LogCategory classifies a LogAdvice entry.
type LogCategory int

const (
	LogNone LogCategory = iota
	LogInfo
	LogWarn
	LogError
)

// Advice is one entry in a diagnostic's ordered advice list: either a log
// line, a source frame pointing at a span, or a labeled list of suggestions.
type Advice struct {
	Log        *LogAdvice
	Frame      *FrameAdvice
	Suggestion *SuggestionAdvice
}

// LogAdvice is a free-form note attached to a diagnostic.
type LogAdvice struct {
	Category LogCategory
	Message  string
}

// FrameAdvice points at a span of source, optionally in another file.
type FrameAdvice struct {
	FilePath string // empty means the diagnostic's own document
	Span     Span
	Message  string
}

// SuggestionAdvice is a header plus an ordered list of candidate fixes.
type SuggestionAdvice struct {
	Header string
	Items  []string
}

// Category is a static, interned diagnostic source key of the form
// "category/group/rule" (e.g. "lint/safety/addSerialColumn"), or a bare
// category for non-lint sources ("syntax", "typecheck").
type Category struct {
	Category string // "lint", "syntax", "typecheck", "plpgsql-check", "db-linter"
	Group    string // e.g. "safety"; empty for non-lint categories
	Rule     string // e.g. "addSerialColumn"; empty for non-lint categories
}

// Key renders the category as its canonical "category/group/rule" string,
// omitting empty trailing components.
func (c Category) Key() string {
	switch {
	case c.Group == "":
		return c.Category
	case c.Rule == "":
		return c.Category + "/" + c.Group
	default:
		return c.Category + "/" + c.Group + "/" + c.Rule
	}
}

func (c Category) String() string { return c.Key() }

// Tag marks a diagnostic with additional rendering hints.
type Tag int

const (
	TagVerbose Tag = iota
	TagDeprecated
	TagUnnecessary
)

// Diagnostic is the uniform structure every analyzer (lint, typecheck,
// syntax, plpgsql-check, db-linter) produces.
type Diagnostic struct {
	Category    Category
	Severity    Severity
	Span        *Span // nil when the diagnostic has no source location
	Message     string
	Description string
	Advices     []Advice
	Tags        []Tag
}

// WithSpan returns a copy of d anchored at span.
func (d Diagnostic) WithSpan(span Span) Diagnostic {
	d.Span = &span
	return d
}

// HasTag reports whether d carries tag.
func (d Diagnostic) HasTag(tag Tag) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (d Diagnostic) String() string {
	if d.Span != nil {
		return fmt.Sprintf("%s[%s] %d-%d: %s", d.Severity, d.Category.Key(), d.Span.Start, d.Span.End, d.Message)
	}
	return fmt.Sprintf("%s[%s]: %s", d.Severity, d.Category.Key(), d.Message)
}

// ByDocumentOrder sorts diagnostics by span start, then by category key
// ascending, then by severity descending -- the ordering the LSP/CLI facades
// must preserve within a single pull.
func ByDocumentOrder(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		aStart, bStart := spanStart(a), spanStart(b)
		if aStart != bStart {
			return aStart < bStart
		}
		if a.Category.Key() != b.Category.Key() {
			return a.Category.Key() < b.Category.Key()
		}
		return a.Severity > b.Severity
	})
}

func spanStart(d Diagnostic) int {
	if d.Span == nil {
		return -1
	}
	return d.Span.Start
}

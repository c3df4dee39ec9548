package analyser

import "github.com/pg-lang-server/pgls/pkg/diagnostic"

// DiagnosticBuilder assembles a diagnostic.Diagnostic one piece at a time,
// the way a rule wants to describe a single finding: a title, then zero or
// more detail frames and footer notes. Category and Severity are filled in
// by the Runner from the rule's Metadata, so rules only need to set them
// when they deviate from their own metadata (none currently do).
type DiagnosticBuilder struct {
	d diagnostic.Diagnostic
}

// NewDiagnostic starts a builder for a diagnostic with the given message.
func NewDiagnostic(message string) *DiagnosticBuilder {
	return &DiagnosticBuilder{d: diagnostic.Diagnostic{Message: message}}
}

// Span anchors the diagnostic at span.
func (b *DiagnosticBuilder) Span(span diagnostic.Span) *DiagnosticBuilder {
	b.d.Span = &span
	return b
}

// Description sets an explicit plain-text summary, distinct from Message.
func (b *DiagnosticBuilder) Description(summary string) *DiagnosticBuilder {
	b.d.Description = summary
	return b
}

// Deprecated tags the diagnostic as pointing at deprecated code.
func (b *DiagnosticBuilder) Deprecated() *DiagnosticBuilder {
	b.d.Tags = append(b.d.Tags, diagnostic.TagDeprecated)
	return b
}

// Unnecessary tags the diagnostic as pointing at unnecessary code.
func (b *DiagnosticBuilder) Unnecessary() *DiagnosticBuilder {
	b.d.Tags = append(b.d.Tags, diagnostic.TagUnnecessary)
	return b
}

// Detail attaches a labeled source frame, optionally at its own span.
func (b *DiagnosticBuilder) Detail(span *diagnostic.Span, message string) *DiagnosticBuilder {
	var s diagnostic.Span
	if span != nil {
		s = *span
	}
	b.d.Advices = append(b.d.Advices, diagnostic.Advice{Frame: &diagnostic.FrameAdvice{Span: s, Message: message}})
	return b
}

// Note appends an informational footer.
func (b *DiagnosticBuilder) Note(message string) *DiagnosticBuilder {
	b.d.Advices = append(b.d.Advices, diagnostic.Advice{Log: &diagnostic.LogAdvice{Category: diagnostic.LogInfo, Message: message}})
	return b
}

// Warning appends a warning-level footer.
func (b *DiagnosticBuilder) Warning(message string) *DiagnosticBuilder {
	b.d.Advices = append(b.d.Advices, diagnostic.Advice{Log: &diagnostic.LogAdvice{Category: diagnostic.LogWarn, Message: message}})
	return b
}

// Suggestions appends a labeled list of candidate fixes.
func (b *DiagnosticBuilder) Suggestions(header string, items []string) *DiagnosticBuilder {
	if len(items) == 0 {
		return b
	}
	b.d.Advices = append(b.d.Advices, diagnostic.Advice{Suggestion: &diagnostic.SuggestionAdvice{Header: header, Items: items}})
	return b
}

// Build returns the assembled diagnostic.
func (b *DiagnosticBuilder) Build() diagnostic.Diagnostic {
	return b.d
}

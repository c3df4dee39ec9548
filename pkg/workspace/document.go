package workspace

import "github.com/pg-lang-server/pgls/pkg/diagnostic"

// Version is a document's monotonically increasing edit counter. Version 0
// is the document's initial content; every apply_change increments it.
type Version uint64

// Statement is one statement of a document: its id, its byte span within
// the document's current text, and (for a child) the parent it nests
// under.
type Statement struct {
	ID   StatementID
	Span diagnostic.Span
}

// Text returns the statement's source text, sliced out of doc.
func (s Statement) Text(doc *Document) string {
	return doc.text[s.Span.Start:s.Span.End]
}

// Document is a versioned, UTF-8 text buffer together with the statements
// it currently splits into. Documents are owned by the Workspace that
// produced them; callers should not construct one directly except in
// tests.
type Document struct {
	URI        string
	version    Version
	text       string
	statements []Statement
}

// NewDocument splits text into statements and returns the resulting
// document at version 0.
func NewDocument(uri, text string) *Document {
	d := &Document{URI: uri, version: 0, text: text}
	d.statements = Split(text)
	return d
}

// Version returns the document's current version.
func (d *Document) Version() Version { return d.version }

// Text returns the document's full current text.
func (d *Document) Text() string { return d.text }

// Statements returns the document's statements in ascending document
// order. The slice must not be mutated by callers.
func (d *Document) Statements() []Statement { return d.statements }

// Count returns the number of statements currently in the document.
func (d *Document) Count() int { return len(d.statements) }

// Statement looks up a statement by id, returning ok=false if no current
// statement has that id.
func (d *Document) Statement(id StatementID) (Statement, bool) {
	for _, s := range d.statements {
		if s.ID.Equal(id) {
			return s, true
		}
	}
	return Statement{}, false
}

// Children returns the direct child statements of parent, in document
// order.
func (d *Document) Children(parent StatementID) []Statement {
	var out []Statement
	for _, s := range d.statements {
		if s.ID.IsChildOf(parent) {
			out = append(out, s)
		}
	}
	return out
}

// Package lexer implements the lightweight, dialect-agnostic tokenizer that
// sits below the two real parsers (pg_query's protobuf AST and the
// tree-sitter CST). It never needs to know Postgres grammar: its only job is
// to track quoting/comment state so the statement splitter and the
// suppression-comment scanner can find statement boundaries and line
// comments without misfiring inside a string or a dollar-quoted body.
package lexer

// Position is a 1-based line/column plus 0-based byte offset into the
// source text.
type Position struct {
	Line   int
	Column int
	Offset int
}

// Advance returns the position after consuming byte b at the receiver.
func (p Position) Advance(b byte) Position {
	p.Offset++
	if b == '\n' {
		p.Line++
		p.Column = 1
	} else {
		p.Column++
	}
	return p
}

// StartPosition is the position of the first byte of a document.
func StartPosition() Position {
	return Position{Line: 1, Column: 1, Offset: 0}
}

package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reassemble(text string, runs []Run) string {
	var out []byte
	for _, r := range runs {
		out = append(out, text[r.Span.Start:r.Span.End]...)
	}
	return string(out)
}

func TestScanReassembles(t *testing.T) {
	cases := []string{
		`select 1;`,
		`select 'it''s fine' from t;`,
		`select "weird "" col" from t;`,
		`create function f() returns int as $$ select 1; $$ language sql;`,
		`create function f() returns int as $tag$ select 1; $tag$ language sql;`,
		"select 1 -- comment with ; inside\nfrom t;",
		"select 1 /* block ; comment */ from t;",
		"select 1 /* nested /* block */ comment */ from t;",
		`select 1`, // unterminated, no trailing semicolon
		`select '`, // unterminated string
	}
	for _, text := range cases {
		runs := Scan(text)
		assert.Equal(t, text, reassemble(text, runs), "must reassemble: %q", text)
	}
}

func TestScanClassifiesDollarQuote(t *testing.T) {
	text := `create function f() returns int as $$ select 1; $$ language sql;`
	runs := Scan(text)
	require.NotEmpty(t, runs)

	var found bool
	for _, r := range runs {
		if r.State == StateDollarQuote {
			found = true
			assert.Equal(t, "$$ select 1; $$", text[r.Span.Start:r.Span.End])
		}
	}
	assert.True(t, found, "expected a dollar-quote run")
}

func TestInCodeSkipsStringsAndComments(t *testing.T) {
	text := "select 1 -- ; not a terminator\n;"
	runs := Scan(text)

	// The semicolon inside the comment is not "in code".
	commentSemicolon := 12
	require.Equal(t, byte(';'), text[commentSemicolon])
	assert.False(t, InCode(runs, commentSemicolon))

	// The trailing semicolon is in code.
	lastSemicolon := len(text) - 1
	require.Equal(t, byte(';'), text[lastSemicolon])
	assert.True(t, InCode(runs, lastSemicolon))
}

func TestReadDollarTag(t *testing.T) {
	tag, n := readDollarTag("$$", 0)
	assert.Equal(t, "", tag)
	assert.Equal(t, 2, n)

	tag, n = readDollarTag("$body$", 0)
	assert.Equal(t, "body", tag)
	assert.Equal(t, 6, n)

	_, n = readDollarTag("$1abc$", 0) // leading digit still a valid tag char here
	assert.Equal(t, 6, n)

	_, n = readDollarTag("$ notag", 0)
	assert.Equal(t, 0, n)
}

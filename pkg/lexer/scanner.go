package lexer

import "strings"

// State is the lexical context a byte falls in.
type State int

const (
	// StateCode is plain SQL: keywords, identifiers, punctuation.
	StateCode State = iota
	// StateSingleQuote is inside a '...' string literal ('' is an escaped quote).
	StateSingleQuote
	// StateDoubleQuote is inside a "..." quoted identifier ("" is an escaped quote).
	StateDoubleQuote
	// StateDollarQuote is inside a $tag$...$tag$ body.
	StateDollarQuote
	// StateLineComment is a `-- ...` comment, up to but excluding the newline.
	StateLineComment
	// StateBlockComment is a `/* ... */` comment; Postgres block comments nest.
	StateBlockComment
)

// Run is a maximal contiguous byte range sharing one State.
type Run struct {
	State State
	Span  Span
}

// Span is a half-open byte range [Start, End).
type Span struct {
	Start int
	End   int
}

// Scan walks text once and returns the list of runs covering it end to end.
// It never errors: malformed input (an unterminated string or comment) simply
// produces a run that extends to end of text, matching the "splitter is
// total" contract it exists to support.
func Scan(text string) []Run {
	var runs []Run
	i := 0
	n := len(text)

	push := func(state State, start, end int) {
		if end > start {
			runs = append(runs, Run{State: state, Span: Span{Start: start, End: end}})
		}
	}

	for i < n {
		switch {
		case text[i] == '\'':
			start := i
			i++
			for i < n {
				if text[i] == '\'' {
					if i+1 < n && text[i+1] == '\'' {
						i += 2
						continue
					}
					i++
					break
				}
				i++
			}
			push(StateSingleQuote, start, i)

		case text[i] == '"':
			start := i
			i++
			for i < n {
				if text[i] == '"' {
					if i+1 < n && text[i+1] == '"' {
						i += 2
						continue
					}
					i++
					break
				}
				i++
			}
			push(StateDoubleQuote, start, i)

		case text[i] == '$' && dollarTagOK(text, i):
			tag, tagLen := readDollarTag(text, i)
			start := i
			i += tagLen
			closer := "$" + tag + "$"
			if idx := strings.Index(text[i:], closer); idx >= 0 {
				i += idx + len(closer)
			} else {
				i = n
			}
			push(StateDollarQuote, start, i)

		case i+1 < n && text[i] == '-' && text[i+1] == '-':
			start := i
			if idx := strings.IndexByte(text[i:], '\n'); idx >= 0 {
				i += idx
			} else {
				i = n
			}
			push(StateLineComment, start, i)

		case i+1 < n && text[i] == '/' && text[i+1] == '*':
			start := i
			i += 2
			depth := 1
			for i < n && depth > 0 {
				switch {
				case i+1 < n && text[i] == '/' && text[i+1] == '*':
					depth++
					i += 2
				case i+1 < n && text[i] == '*' && text[i+1] == '/':
					depth--
					i += 2
				default:
					i++
				}
			}
			push(StateBlockComment, start, i)

		case text[i] == '(' || text[i] == ')':
			codeStart := i
			i++
			push(StateCode, codeStart, i)

		default:
			start := i
			for i < n && !isRunBoundary(text, i) {
				i++
			}
			if i == start {
				i++
			}
			push(StateCode, start, i)
		}
	}

	return runs
}

// isRunBoundary reports whether position i starts a non-code run or a paren,
// so the default branch's plain-code scan stops there.
func isRunBoundary(text string, i int) bool {
	switch text[i] {
	case '\'', '"', '(', ')':
		return true
	case '$':
		return dollarTagOK(text, i)
	case '-':
		return i+1 < len(text) && text[i+1] == '-'
	case '/':
		return i+1 < len(text) && text[i+1] == '*'
	default:
		return false
	}
}

// dollarTagOK reports whether text[i] starts a $tag$ dollar-quote opener:
// '$', zero or more identifier characters, then '$'.
func dollarTagOK(text string, i int) bool {
	_, n := readDollarTag(text, i)
	return n > 0
}

// readDollarTag reads a dollar-quote opener starting at text[i] == '$'.
// Returns the tag (without the surrounding $) and the total length of the
// opener including both dollar signs, or ("", 0) if none is found.
func readDollarTag(text string, i int) (string, int) {
	n := len(text)
	if i >= n || text[i] != '$' {
		return "", 0
	}
	j := i + 1
	for j < n && isTagChar(text[j]) {
		j++
	}
	if j >= n || text[j] != '$' {
		return "", 0
	}
	return text[i+1 : j], j + 1 - i
}

func isTagChar(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_'
}

// InCode reports whether offset falls inside a StateCode run of runs, the
// default answer when offset is past the end (end of text is "code").
func InCode(runs []Run, offset int) bool {
	for _, r := range runs {
		if offset >= r.Span.Start && offset < r.Span.End {
			return r.State == StateCode
		}
	}
	return true
}

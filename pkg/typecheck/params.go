// Package typecheck validates a single statement's SQL against a live
// database without executing it: named/positional parameters are replaced
// with safe literals of their declared type, the rewritten text is
// submitted as a prepared-statement dry run, and any resulting database
// error is mapped back onto the original text and reworded around the
// parameter name rather than the synthetic literal.
package typecheck

import (
	"regexp"

	"github.com/pg-lang-server/pgls/pkg/diagnostic"
	"github.com/pg-lang-server/pgls/pkg/lexer"
)

// ParamKind distinguishes the parameter spellings pgls recognizes.
type ParamKind int

const (
	ParamNamed       ParamKind = iota // @name or :name
	ParamQuotedNamed                  // :'name'
	ParamPositional                   // $N
)

// Param is one occurrence of a parameter placeholder in a statement's text.
type Param struct {
	Kind  ParamKind
	Name  string // empty for ParamPositional
	Index int    // 1-based, only meaningful for ParamPositional
	Span  diagnostic.Span
}

var (
	namedRe      = regexp.MustCompile(`@([a-zA-Z_][a-zA-Z0-9_]*)|:([a-zA-Z_][a-zA-Z0-9_]*)\b`)
	quotedRe     = regexp.MustCompile(`:'([a-zA-Z_][a-zA-Z0-9_]*)'`)
	positionalRe = regexp.MustCompile(`\$([0-9]+)`)
)

// Detect scans a statement's text for parameter placeholders outside
// string literals, dollar-quoted bodies and comments.
func Detect(stmtText string) []Param {
	runs := lexer.Scan(stmtText)

	var params []Param
	for _, loc := range quotedRe.FindAllStringSubmatchIndex(stmtText, -1) {
		if !lexer.InCode(runs, loc[0]) {
			continue
		}
		params = append(params, Param{
			Kind: ParamQuotedNamed,
			Name: stmtText[loc[2]:loc[3]],
			Span: diagnostic.Span{Start: loc[0], End: loc[1]},
		})
	}
	for _, loc := range namedRe.FindAllStringSubmatchIndex(stmtText, -1) {
		if !lexer.InCode(runs, loc[0]) {
			continue
		}
		if overlapsQuoted(params, loc[0]) {
			continue
		}
		name := stmtText[loc[2]:loc[3]]
		if loc[4] >= 0 {
			name = stmtText[loc[4]:loc[5]]
		}
		params = append(params, Param{
			Kind: ParamNamed,
			Name: name,
			Span: diagnostic.Span{Start: loc[0], End: loc[1]},
		})
	}
	for _, loc := range positionalRe.FindAllStringSubmatchIndex(stmtText, -1) {
		if !lexer.InCode(runs, loc[0]) {
			continue
		}
		params = append(params, Param{
			Kind:  ParamPositional,
			Index: atoi(stmtText[loc[2]:loc[3]]),
			Span:  diagnostic.Span{Start: loc[0], End: loc[1]},
		})
	}

	sortParams(params)
	return params
}

func overlapsQuoted(params []Param, offset int) bool {
	for _, p := range params {
		if p.Kind == ParamQuotedNamed && p.Span.Contains(offset) {
			return true
		}
	}
	return false
}

func sortParams(params []Param) {
	for i := 1; i < len(params); i++ {
		for j := i; j > 0 && params[j].Span.Start < params[j-1].Span.Start; j-- {
			params[j], params[j-1] = params[j-1], params[j]
		}
	}
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

package lsp

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/pg-lang-server/pgls/pkg/lexer"
)

// semantic token type indices, matching tokenLegend.TokenTypes.
const (
	tokenTypeKeyword = iota
	tokenTypeIdentifier
	tokenTypeNumber
	tokenTypeOperator
	tokenTypeString
	tokenTypeComment
)

var tokenLegend = SemanticTokensLegend{
	TokenTypes:     []string{"keyword", "identifier", "number", "operator", "string", "comment"},
	TokenModifiers: []string{},
}

var sqlKeywords = map[string]bool{
	"select": true, "from": true, "where": true, "join": true, "left": true,
	"right": true, "inner": true, "outer": true, "on": true, "group": true,
	"by": true, "order": true, "having": true, "limit": true, "offset": true,
	"insert": true, "into": true, "values": true, "update": true, "set": true,
	"delete": true, "returning": true, "with": true, "as": true, "and": true,
	"or": true, "not": true, "null": true, "distinct": true, "union": true,
	"all": true, "create": true, "table": true, "alter": true, "drop": true,
	"function": true, "trigger": true, "index": true, "constraint": true,
	"primary": true, "key": true, "foreign": true, "references": true,
	"default": true, "begin": true, "end": true, "declare": true, "if": true,
	"then": true, "else": true, "loop": true, "return": true, "case": true,
	"when": true,
}

type rawToken struct {
	Line   uint32
	Char   uint32
	Length uint32
	Type   uint32
}

// buildSemanticTokens classifies text's lexer runs into a sorted stream of
// rawTokens: code runs are further split into keyword/identifier/number/
// operator sub-tokens, and multi-line string/comment runs are split one
// token per line since an LSP token may not span a line break.
func buildSemanticTokens(text string) []rawToken {
	var tokens []rawToken
	for _, run := range lexer.Scan(text) {
		switch run.State {
		case lexer.StateCode:
			tokens = append(tokens, subtokenizeCode(text, run.Span.Start, run.Span.End)...)
		case lexer.StateSingleQuote, lexer.StateDoubleQuote, lexer.StateDollarQuote:
			tokens = append(tokens, splitByLine(text, run.Span.Start, run.Span.End, tokenTypeString)...)
		case lexer.StateLineComment, lexer.StateBlockComment:
			tokens = append(tokens, splitByLine(text, run.Span.Start, run.Span.End, tokenTypeComment)...)
		}
	}
	sort.SliceStable(tokens, func(i, j int) bool {
		if tokens[i].Line != tokens[j].Line {
			return tokens[i].Line < tokens[j].Line
		}
		return tokens[i].Char < tokens[j].Char
	})
	return tokens
}

func splitByLine(text string, start, end int, tokenType uint32) []rawToken {
	var out []rawToken
	lineStart := start
	for i := start; i < end; i++ {
		if text[i] == '\n' {
			out = append(out, lineToken(text, lineStart, i, tokenType))
			lineStart = i + 1
		}
	}
	if lineStart < end {
		out = append(out, lineToken(text, lineStart, end, tokenType))
	}
	return out
}

func lineToken(text string, start, end int, tokenType uint32) rawToken {
	pos := positionAt(text, start)
	return rawToken{Line: pos.Line, Char: pos.Character, Length: uint32(end - start), Type: uint32(tokenType)}
}

func subtokenizeCode(text string, start, end int) []rawToken {
	var out []rawToken
	i := start
	for i < end {
		switch {
		case isSpaceByte(text[i]):
			i++
		case isIdentStart(text[i]):
			j := i + 1
			for j < end && isIdentChar(text[j]) {
				j++
			}
			out = append(out, lineToken(text, i, j, classifyWord(text[i:j])))
			i = j
		case isDigitByte(text[i]):
			j := i + 1
			for j < end && (isDigitByte(text[j]) || text[j] == '.') {
				j++
			}
			out = append(out, lineToken(text, i, j, tokenTypeNumber))
			i = j
		default:
			j := i + 1
			for j < end && isOperatorByte(text[j]) {
				j++
			}
			out = append(out, lineToken(text, i, j, tokenTypeOperator))
			i = j
		}
	}
	return out
}

func classifyWord(word string) uint32 {
	if sqlKeywords[strings.ToLower(word)] {
		return tokenTypeKeyword
	}
	return tokenTypeIdentifier
}

func isSpaceByte(b byte) bool { return b == ' ' || b == '\t' || b == '\r' || b == '\n' }
func isDigitByte(b byte) bool { return b >= '0' && b <= '9' }
func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
func isIdentChar(b byte) bool { return isIdentStart(b) || isDigitByte(b) }
func isOperatorByte(b byte) bool {
	return !isSpaceByte(b) && !isIdentChar(b) && b != '(' && b != ')'
}

// encode converts absolute rawTokens (already sorted) into the LSP
// delta-encoded quintuple stream: deltaLine, deltaStartChar, length,
// tokenType, tokenModifiers.
func encode(tokens []rawToken) []uint32 {
	data := make([]uint32, 0, len(tokens)*5)
	var prevLine, prevChar uint32
	for _, t := range tokens {
		deltaLine := t.Line - prevLine
		deltaChar := t.Char
		if deltaLine == 0 {
			deltaChar = t.Char - prevChar
		}
		data = append(data, deltaLine, deltaChar, t.Length, t.Type, 0)
		prevLine, prevChar = t.Line, t.Char
	}
	return data
}

func (s *Server) handleSemanticTokensFull(msg *JSONRPCMessage) error {
	var params SemanticTokensParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendResponse(msg.ID, nil, &JSONRPCError{Code: -32602, Message: err.Error()})
		return err
	}
	doc, ok := s.workspace.Document(params.TextDocument.URI)
	if !ok {
		s.sendResponse(msg.ID, SemanticTokens{}, nil)
		return nil
	}
	data := encode(buildSemanticTokens(doc.Text()))
	resultID := s.nextResultID(params.TextDocument.URI, data)
	s.sendResponse(msg.ID, SemanticTokens{ResultID: resultID, Data: data}, nil)
	return nil
}

func (s *Server) handleSemanticTokensDelta(msg *JSONRPCMessage) error {
	var params SemanticTokensDeltaParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendResponse(msg.ID, nil, &JSONRPCError{Code: -32602, Message: err.Error()})
		return err
	}
	doc, ok := s.workspace.Document(params.TextDocument.URI)
	if !ok {
		s.sendResponse(msg.ID, SemanticTokensDelta{}, nil)
		return nil
	}
	newData := encode(buildSemanticTokens(doc.Text()))

	s.tokensMu.Lock()
	prev := s.prevTokens[params.TextDocument.URI]
	s.tokensMu.Unlock()

	edit := diffTokens(prev, newData)
	resultID := s.nextResultID(params.TextDocument.URI, newData)
	s.sendResponse(msg.ID, SemanticTokensDelta{ResultID: resultID, Edits: []SemanticTokensEdit{edit}}, nil)
	return nil
}

func (s *Server) handleSemanticTokensRange(msg *JSONRPCMessage) error {
	var params SemanticTokensRangeParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendResponse(msg.ID, nil, &JSONRPCError{Code: -32602, Message: err.Error()})
		return err
	}
	doc, ok := s.workspace.Document(params.TextDocument.URI)
	if !ok {
		s.sendResponse(msg.ID, SemanticTokens{}, nil)
		return nil
	}
	all := buildSemanticTokens(doc.Text())
	var inRange []rawToken
	for _, t := range all {
		if t.Line >= params.Range.Start.Line && t.Line <= params.Range.End.Line {
			inRange = append(inRange, t)
		}
	}
	s.sendResponse(msg.ID, SemanticTokens{Data: encode(inRange)}, nil)
	return nil
}

// nextResultID bumps the per-document result counter and remembers data as
// the baseline for the next full/delta request.
func (s *Server) nextResultID(uri string, data []uint32) string {
	s.tokensMu.Lock()
	defer s.tokensMu.Unlock()
	s.resultSeq[uri]++
	s.prevTokens[uri] = data
	return uri + "#" + strconv.Itoa(s.resultSeq[uri])
}

// diffTokens finds the common prefix and suffix (in whole 5-uint32 tokens)
// between prev and next and returns the single edit replacing what changed
// in between. If prev is empty or the streams share nothing, the edit
// replaces the entire previous stream.
func diffTokens(prev, next []uint32) SemanticTokensEdit {
	const width = 5
	prevTok := len(prev) / width
	nextTok := len(next) / width

	common := 0
	for common < prevTok && common < nextTok {
		if !tokenEqual(prev, next, common, width) {
			break
		}
		common++
	}

	prevEnd := prevTok
	nextEnd := nextTok
	for prevEnd > common && nextEnd > common {
		if !tokenEqual(prev, next, prevEnd-1, width) {
			break
		}
		if !sameOffsetFromEnd(prev, next, prevTok, nextTok, prevEnd, nextEnd, width) {
			break
		}
		prevEnd--
		nextEnd--
	}

	return SemanticTokensEdit{
		Start:       common * width,
		DeleteCount: (prevEnd - common) * width,
		Data:        append([]uint32{}, next[common*width:nextEnd*width]...),
	}
}

func tokenEqual(a, b []uint32, idx, width int) bool {
	for k := 0; k < width; k++ {
		if a[idx*width+k] != b[idx*width+k] {
			return false
		}
	}
	return true
}

// sameOffsetFromEnd reports whether the two suffix cursors sit the same
// number of tokens from the ends of their streams. The suffix loop above
// moves both cursors in lockstep from the ends, so there it always holds;
// that loop stops on the first token pair tokenEqual rejects.
func sameOffsetFromEnd(prev, next []uint32, prevTok, nextTok, prevEnd, nextEnd, width int) bool {
	return (prevTok - prevEnd) == (nextTok - nextEnd)
}

package lsp

import (
	"context"
	"encoding/json"

	"github.com/pg-lang-server/pgls/pkg/completion"
)

func (s *Server) handleCompletion(msg *JSONRPCMessage) error {
	var params CompletionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendResponse(msg.ID, nil, &JSONRPCError{Code: -32602, Message: err.Error()})
		return err
	}

	cursorCtx, ok := s.cursorContext(params.TextDocument.URI, params.Position)
	if !ok {
		s.sendResponse(msg.ID, CompletionList{}, nil)
		return nil
	}

	items := completion.Complete(context.Background(), cursorCtx, s.currentSchema())
	out := make([]CompletionItem, 0, len(items))
	for _, it := range items {
		out = append(out, CompletionItem{Label: it.Label, Kind: completionKindToLSP(it.Kind), Detail: it.Description})
	}
	s.sendResponse(msg.ID, CompletionList{Items: out}, nil)
	return nil
}

func completionKindToLSP(k completion.Kind) CompletionItemKind {
	switch k {
	case completion.KindSchema:
		return CompletionItemKindModule
	case completion.KindTable:
		return CompletionItemKindClass
	case completion.KindColumn:
		return CompletionItemKindField
	case completion.KindFunction:
		return CompletionItemKindFunction
	default:
		return CompletionItemKindKeyword
	}
}

// cursorContext locates the statement at pos inside uri's document, parses
// it with the CST store and builds a completion.Context from the resulting
// tree, or reports ok=false if the document or statement can't be found.
func (s *Server) cursorContext(uri string, pos Position) (completion.Context, bool) {
	doc, ok := s.workspace.Document(uri)
	if !ok {
		return completion.Context{}, false
	}
	offset := offsetAt(doc.Text(), pos)
	stmt, ok := completion.StatementAt(doc, offset)
	if !ok {
		return completion.Context{}, false
	}

	result, err := s.cst.Parse(context.Background(), stmt.ID, stmt.Text(doc))
	if err != nil || result.Root() == nil {
		return completion.Context{}, false
	}
	localOffset := uint32(offset - stmt.Span.Start)
	return completion.BuildContext(result.Root(), result.Source, localOffset), true
}

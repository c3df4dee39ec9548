package lsp

import (
	"context"
	"encoding/json"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/pg-lang-server/pgls/pkg/completion"
	"github.com/pg-lang-server/pgls/pkg/hover"
)

func (s *Server) handleHover(msg *JSONRPCMessage) error {
	var params HoverParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendResponse(msg.ID, nil, &JSONRPCError{Code: -32602, Message: err.Error()})
		return err
	}

	doc, ok := s.workspace.Document(params.TextDocument.URI)
	if !ok {
		s.sendResponse(msg.ID, nil, nil)
		return nil
	}
	offset := offsetAt(doc.Text(), params.Position)
	cursorCtx, ok := s.cursorContext(params.TextDocument.URI, params.Position)
	if !ok {
		s.sendResponse(msg.ID, nil, nil)
		return nil
	}

	stmt, ok := completion.StatementAt(doc, offset)
	if !ok {
		s.sendResponse(msg.ID, nil, nil)
		return nil
	}
	result, err := s.cst.Parse(context.Background(), stmt.ID, stmt.Text(doc))
	if err != nil || result.Root() == nil {
		s.sendResponse(msg.ID, nil, nil)
		return nil
	}
	localOffset := uint32(offset - stmt.Span.Start)
	node := tokenAt(result.Root(), localOffset)
	if node == nil {
		s.sendResponse(msg.ID, nil, nil)
		return nil
	}
	token := string(result.Source[node.StartByte():node.EndByte()])

	body := hover.Render(token, cursorCtx, s.currentSchema())
	if body == "" {
		s.sendResponse(msg.ID, nil, nil)
		return nil
	}
	s.sendResponse(msg.ID, Hover{Contents: MarkupContent{Kind: "markdown", Value: body}}, nil)
	return nil
}

func tokenAt(root *sitter.Node, offset uint32) *sitter.Node {
	var best *sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil || n.StartByte() > offset || offset > n.EndByte() {
			return
		}
		best = n
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return best
}

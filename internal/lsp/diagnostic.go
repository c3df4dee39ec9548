package lsp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pg-lang-server/pgls/pkg/diagnostic"
	"github.com/pg-lang-server/pgls/pkg/typecheck"
	"github.com/pg-lang-server/pgls/pkg/workspace"
)

func (s *Server) handleDiagnostic(msg *JSONRPCMessage) error {
	var params DiagnosticParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendResponse(msg.ID, nil, &JSONRPCError{Code: -32602, Message: err.Error()})
		return err
	}

	doc, ok := s.workspace.Document(params.TextDocument.URI)
	if !ok {
		s.sendResponse(msg.ID, FullDocumentDiagnosticReport{Kind: "full"}, nil)
		return nil
	}

	ctx := context.Background()
	diags := s.runner.Run(ctx, doc)
	diags = append(diags, s.typecheckDiagnostics(ctx, doc)...)
	diags = append(diags, s.plpgsqlDiagnostics(ctx)...)
	diagnostic.ByDocumentOrder(diags)

	items := make([]Diagnostic, 0, len(diags))
	text := doc.Text()
	for _, d := range diags {
		items = append(items, toLSPDiagnostic(d, text))
	}
	s.sendResponse(msg.ID, FullDocumentDiagnosticReport{Kind: "full", Items: items}, nil)
	return nil
}

func (s *Server) typecheckDiagnostics(ctx context.Context, doc *workspace.Document) []diagnostic.Diagnostic {
	if s.typecheck == nil {
		return nil
	}
	var out []diagnostic.Diagnostic
	for _, stmt := range doc.Statements() {
		if stmt.ID.Kind() != workspace.KindRoot {
			continue
		}
		params := typecheck.Detect(stmt.Text(doc))
		if len(params) == 0 {
			continue
		}
		out = append(out, s.typecheck.Check(ctx, stmt.Text(doc), typecheck.StaticTypes{})...)
	}
	return out
}

func (s *Server) plpgsqlDiagnostics(ctx context.Context) []diagnostic.Diagnostic {
	if s.plpgsql == nil {
		return nil
	}
	cache := s.currentSchema()
	if cache == nil {
		return nil
	}
	var out []diagnostic.Diagnostic
	for _, fn := range cache.Functions {
		if !strings.EqualFold(fn.Language, "plpgsql") || fn.Body == nil {
			continue
		}
		diags, err := s.plpgsql.Check(ctx, fn.OID, *fn.Body)
		if err != nil {
			continue
		}
		out = append(out, diags...)
	}
	return out
}

func toLSPDiagnostic(d diagnostic.Diagnostic, text string) Diagnostic {
	var rng Range
	if d.Span != nil {
		rng = Range{Start: positionAt(text, d.Span.Start), End: positionAt(text, d.Span.End)}
	}
	return Diagnostic{
		Range:    rng,
		Severity: severityToLSP(d.Severity),
		Code:     d.Category.Key(),
		Source:   "pgls",
		Message:  d.Message,
	}
}

func severityToLSP(s diagnostic.Severity) DiagnosticSeverity {
	switch s.String() {
	case "fatal", "error":
		return DiagnosticSeverityError
	case "warning":
		return DiagnosticSeverityWarning
	case "information":
		return DiagnosticSeverityInformation
	default:
		return DiagnosticSeverityHint
	}
}

// positionAt converts a byte offset into text to a zero-based line/character
// Position, counting characters as bytes within the line to match
// offsetAt's inverse mapping.
func positionAt(text string, offset int) Position {
	if offset > len(text) {
		offset = len(text)
	}
	line := 0
	lineStart := 0
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	return Position{Line: uint32(line), Character: uint32(offset - lineStart)}
}

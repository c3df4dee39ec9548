// Package lsp is the thin JSON-RPC adapter between pgls's workspace,
// analyser, completion and hover packages and an LSP client: it maps
// document-sync notifications onto workspace.Workspace and Runner/
// completion/hover calls onto the corresponding LSP response shapes.
package lsp

// Position is zero-based line/character, per the LSP specification.
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

// Range is a half-open [Start, End) span expressed as Positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// TextDocumentIdentifier identifies a text document by URI.
type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// VersionedTextDocumentIdentifier adds a version to TextDocumentIdentifier.
type VersionedTextDocumentIdentifier struct {
	TextDocumentIdentifier
	Version int `json:"version"`
}

// TextDocumentItem is the document payload sent with didOpen.
type TextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
}

// TextDocumentPositionParams is shared by completion/hover requests.
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// TextDocumentContentChangeEvent is one incremental or full-text edit.
type TextDocumentContentChangeEvent struct {
	Range       *Range `json:"range,omitempty"`
	RangeLength uint32 `json:"rangeLength,omitempty"`
	Text        string `json:"text"`
}

// InitializeParams is the client's initialize request payload; only the
// fields pgls acts on are decoded.
type InitializeParams struct {
	ProcessID int    `json:"processId"`
	RootURI   string `json:"rootUri"`
}

// InitializeResult answers initialize with the server's capabilities.
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
}

// ServerCapabilities advertises document sync, pull-diagnostics,
// completion, hover and semantic tokens.
type ServerCapabilities struct {
	TextDocumentSync           *TextDocumentSyncOptions `json:"textDocumentSync,omitempty"`
	DiagnosticProvider         *DiagnosticOptions        `json:"diagnosticProvider,omitempty"`
	CompletionProvider         *CompletionOptions        `json:"completionProvider,omitempty"`
	HoverProvider              bool                      `json:"hoverProvider,omitempty"`
	SemanticTokensProvider     *SemanticTokensOptions    `json:"semanticTokensProvider,omitempty"`
}

// TextDocumentSyncKind selects full vs incremental sync; pgls advertises
// Incremental and reconstructs full text itself before handing it to
// workspace.Workspace.Change, which only accepts full text.
type TextDocumentSyncKind int

const (
	TextDocumentSyncKindNone        TextDocumentSyncKind = 0
	TextDocumentSyncKindFull        TextDocumentSyncKind = 1
	TextDocumentSyncKindIncremental TextDocumentSyncKind = 2
)

// TextDocumentSyncOptions describes how the client should send edits.
type TextDocumentSyncOptions struct {
	OpenClose bool                 `json:"openClose,omitempty"`
	Change    TextDocumentSyncKind `json:"change,omitempty"`
}

// DiagnosticOptions advertises pull-diagnostics support
// (textDocument/diagnostic) rather than server-pushed publishDiagnostics.
type DiagnosticOptions struct {
	InterFileDependencies bool `json:"interFileDependencies"`
	WorkspaceDiagnostics  bool `json:"workspaceDiagnostics"`
}

// CompletionOptions advertises completion trigger characters.
type CompletionOptions struct {
	TriggerCharacters []string `json:"triggerCharacters,omitempty"`
}

// SemanticTokensLegend maps token type/modifier indices to names, shared
// by every semantic tokens response in a session.
type SemanticTokensLegend struct {
	TokenTypes     []string `json:"tokenTypes"`
	TokenModifiers []string `json:"tokenModifiers"`
}

// SemanticTokensOptions advertises full, delta and range semantic token
// support.
type SemanticTokensOptions struct {
	Legend SemanticTokensLegend `json:"legend"`
	Range  bool                 `json:"range"`
	Full   struct {
		Delta bool `json:"delta"`
	} `json:"full"`
}

// DidOpenTextDocumentParams is the textDocument/didOpen payload.
type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

// DidChangeTextDocumentParams is the textDocument/didChange payload.
type DidChangeTextDocumentParams struct {
	TextDocument   VersionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

// DidCloseTextDocumentParams is the textDocument/didClose payload.
type DidCloseTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// DiagnosticParams is the textDocument/diagnostic (pull) request payload.
type DiagnosticParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// DiagnosticSeverity mirrors the LSP wire values (1=Error..4=Hint).
type DiagnosticSeverity int

const (
	DiagnosticSeverityError       DiagnosticSeverity = 1
	DiagnosticSeverityWarning     DiagnosticSeverity = 2
	DiagnosticSeverityInformation DiagnosticSeverity = 3
	DiagnosticSeverityHint        DiagnosticSeverity = 4
)

// Diagnostic is one LSP diagnostic entry.
type Diagnostic struct {
	Range    Range              `json:"range"`
	Severity DiagnosticSeverity `json:"severity"`
	Code     string             `json:"code,omitempty"`
	Source   string             `json:"source"`
	Message  string             `json:"message"`
}

// FullDocumentDiagnosticReport is the result of a full textDocument/diagnostic pull.
type FullDocumentDiagnosticReport struct {
	Kind  string       `json:"kind"`
	Items []Diagnostic `json:"items"`
}

// CompletionParams is the textDocument/completion request payload.
type CompletionParams struct {
	TextDocumentPositionParams
}

// CompletionItemKind mirrors the subset of LSP kinds pgls emits.
type CompletionItemKind int

const (
	CompletionItemKindKeyword CompletionItemKind = 14
	CompletionItemKindModule  CompletionItemKind = 9  // schema
	CompletionItemKindClass   CompletionItemKind = 7  // table
	CompletionItemKindField   CompletionItemKind = 5  // column
	CompletionItemKindFunction CompletionItemKind = 3
)

// CompletionItem is one ranked completion candidate.
type CompletionItem struct {
	Label  string             `json:"label"`
	Kind   CompletionItemKind `json:"kind"`
	Detail string             `json:"detail,omitempty"`
}

// CompletionList is the textDocument/completion response.
type CompletionList struct {
	IsIncomplete bool             `json:"isIncomplete"`
	Items        []CompletionItem `json:"items"`
}

// HoverParams is the textDocument/hover request payload.
type HoverParams struct {
	TextDocumentPositionParams
}

// MarkupContent is a hover's rendered body.
type MarkupContent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// Hover is the textDocument/hover response; nil (encoded as JSON null)
// when there is nothing to show.
type Hover struct {
	Contents MarkupContent `json:"contents"`
}

// SemanticTokensParams is the textDocument/semanticTokens/full request payload.
type SemanticTokensParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// SemanticTokensDeltaParams is the textDocument/semanticTokens/full/delta request payload.
type SemanticTokensDeltaParams struct {
	TextDocument  TextDocumentIdentifier `json:"textDocument"`
	PreviousResultID string              `json:"previousResultId"`
}

// SemanticTokensRangeParams is the textDocument/semanticTokens/range request payload.
type SemanticTokensRangeParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Range        Range                  `json:"range"`
}

// SemanticTokens is a full-document semantic tokens response: Data is the
// LSP-standard delta-encoded quintuple stream (deltaLine, deltaStartChar,
// length, tokenType, tokenModifiers) per token.
type SemanticTokens struct {
	ResultID string `json:"resultId,omitempty"`
	Data     []uint32 `json:"data"`
}

// SemanticTokensEdit is one edit in a semanticTokens/full/delta response.
type SemanticTokensEdit struct {
	Start       int      `json:"start"`
	DeleteCount int      `json:"deleteCount"`
	Data        []uint32 `json:"data,omitempty"`
}

// SemanticTokensDelta is the semanticTokens/full/delta response when the
// client's previous result can be diffed rather than resent whole.
type SemanticTokensDelta struct {
	ResultID string               `json:"resultId,omitempty"`
	Edits    []SemanticTokensEdit `json:"edits"`
}

// ShowMessageParams is a window/showMessage notification payload.
type ShowMessageParams struct {
	Type    int    `json:"type"`
	Message string `json:"message"`
}

const (
	MessageTypeError   = 1
	MessageTypeWarning = 2
	MessageTypeInfo    = 3
)

package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/pg-lang-server/pgls/internal/config"
	"github.com/pg-lang-server/pgls/internal/dbpool"
	"github.com/pg-lang-server/pgls/pkg/analyser"
	"github.com/pg-lang-server/pgls/pkg/cst"
	"github.com/pg-lang-server/pgls/pkg/dblinter"
	"github.com/pg-lang-server/pgls/pkg/pgast"
	"github.com/pg-lang-server/pgls/pkg/plpgsqlcheck"
	"github.com/pg-lang-server/pgls/pkg/schema"
	"github.com/pg-lang-server/pgls/pkg/typecheck"
	"github.com/pg-lang-server/pgls/pkg/workspace"
)

// Server implements pgls's LSP surface: document sync, pull-diagnostics,
// completion, hover and semantic tokens, over a JSON-RPC 2.0 connection
// framed the way the LSP specification requires (Content-Length headers).
type Server struct {
	workspace *workspace.Workspace
	ast       *pgast.Store
	cst       *cst.Store
	runner    *analyser.Runner

	projectDir string
	cfg        *config.Config
	pool       *dbpool.Pool
	schemaMu   sync.RWMutex
	schema     *schema.Cache
	typecheck  *typecheck.Checker
	plpgsql    *plpgsqlcheck.Checker
	dblinter   *dblinter.Checker

	reader  *bufio.Reader
	writer  io.Writer
	writeMu sync.Mutex

	logger *slog.Logger

	tokensMu sync.Mutex
	prevTokens map[string][]uint32
	resultSeq  map[string]int

	shutdownMu sync.RWMutex
	shutdown   bool
}

// NewServer returns a Server communicating over reader/writer with the
// default logger of NewServerWithLogger (Info level, to stderr).
func NewServer(reader io.Reader, writer io.Writer) *Server {
	return NewServerWithLogger(reader, writer, nil)
}

// NewServerWithLogger returns a Server using logger for diagnostics about
// its own operation (never for protocol output, which always goes through
// writer).
func NewServerWithLogger(reader io.Reader, writer io.Writer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	ast := pgast.New()
	return &Server{
		workspace:  workspace.New(),
		ast:        ast,
		cst:        cst.New(),
		runner:     analyser.NewRunner(ast),
		reader:     bufio.NewReader(reader),
		writer:     writer,
		logger:     logger,
		prevTokens: make(map[string][]uint32),
		resultSeq:  make(map[string]int),
	}
}

// Run starts the server's main read-dispatch loop; it returns nil when the
// client disconnects or once a shutdown request has been handled. An exit
// notification ends the process through os.Exit(0) instead of returning.
func (s *Server) Run() error {
	s.logger.Info("pgls LSP server starting")
	for {
		s.shutdownMu.RLock()
		done := s.shutdown
		s.shutdownMu.RUnlock()
		if done {
			return nil
		}

		msg, err := s.readMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Info("client disconnected")
				return nil
			}
			s.logger.Error("reading message", "error", err)
			continue
		}
		if err := s.handleMessage(msg); err != nil {
			s.logger.Error("handling message", "method", msg.Method, "error", err)
		}
	}
}

// JSONRPCMessage is a JSON-RPC 2.0 request, response or notification.
type JSONRPCMessage struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method,omitempty"`
	Params  json.RawMessage  `json:"params,omitempty"`
	Result  json.RawMessage  `json:"result,omitempty"`
	Error   *JSONRPCError    `json:"error,omitempty"`
}

// JSONRPCError is a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *Server) readMessage() (*JSONRPCMessage, error) {
	contentLength := 0
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if rest, ok := strings.CutPrefix(line, "Content-Length: "); ok {
			n, err := strconv.Atoi(rest)
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length: %w", err)
			}
			contentLength = n
		}
	}
	if contentLength == 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(s.reader, body); err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	var msg JSONRPCMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("parsing message: %w", err)
	}
	return &msg, nil
}

func (s *Server) sendResponse(id *json.RawMessage, result any, rpcErr *JSONRPCError) {
	msg := JSONRPCMessage{JSONRPC: "2.0", ID: id}
	if rpcErr != nil {
		msg.Error = rpcErr
	} else {
		b, _ := json.Marshal(result)
		msg.Result = b
	}
	s.writeMessage(&msg)
}

func (s *Server) sendNotification(method string, params any) {
	msg := JSONRPCMessage{JSONRPC: "2.0", Method: method}
	if params != nil {
		b, _ := json.Marshal(params)
		msg.Params = b
	}
	s.writeMessage(&msg)
}

func (s *Server) writeMessage(msg *JSONRPCMessage) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	body, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("marshaling message", "error", err)
		return
	}
	fmt.Fprintf(s.writer, "Content-Length: %d\r\n\r\n", len(body))
	s.writer.Write(body)
}

func (s *Server) handleMessage(msg *JSONRPCMessage) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		s.logger.Info("server exit")
		os.Exit(0)
		return nil
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/diagnostic":
		return s.handleDiagnostic(msg)
	case "textDocument/completion":
		return s.handleCompletion(msg)
	case "textDocument/hover":
		return s.handleHover(msg)
	case "textDocument/semanticTokens/full":
		return s.handleSemanticTokensFull(msg)
	case "textDocument/semanticTokens/full/delta":
		return s.handleSemanticTokensDelta(msg)
	case "textDocument/semanticTokens/range":
		return s.handleSemanticTokensRange(msg)
	default:
		if msg.ID != nil {
			s.sendResponse(msg.ID, nil, &JSONRPCError{Code: -32601, Message: "method not found: " + msg.Method})
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *JSONRPCMessage) error {
	var params InitializeParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendResponse(msg.ID, nil, &JSONRPCError{Code: -32602, Message: err.Error()})
		return err
	}
	s.projectDir = uriToPath(params.RootURI)

	cfg, _, err := config.LoadFromDir(s.projectDir)
	if err != nil {
		s.logger.Warn("loading config, continuing with defaults", "error", err)
		cfg = &config.Config{}
	}
	s.cfg = cfg
	go s.connectDatabase(context.Background())

	result := InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: &TextDocumentSyncOptions{OpenClose: true, Change: TextDocumentSyncKindIncremental},
			DiagnosticProvider: &DiagnosticOptions{},
			CompletionProvider: &CompletionOptions{TriggerCharacters: []string{".", " ", "("}},
			HoverProvider:      true,
			SemanticTokensProvider: &SemanticTokensOptions{
				Legend: tokenLegend,
				Range:  true,
				Full:   struct {
					Delta bool `json:"delta"`
				}{Delta: true},
			},
		},
	}
	s.sendResponse(msg.ID, result, nil)
	return nil
}

// connectDatabase opens the pool and loads the first schema snapshot in
// the background so initialize doesn't block on the network; diagnostics
// published before it completes simply run with no schema cache.
func (s *Server) connectDatabase(ctx context.Context) {
	if s.cfg == nil || s.cfg.DB.DisableConnection {
		return
	}
	pool, err := dbpool.Open(ctx, s.cfg.DB)
	if err != nil || pool == nil {
		s.logger.Warn("database unavailable", "error", err)
		return
	}
	s.pool = pool
	s.plpgsql = plpgsqlcheck.NewChecker(pool.PLPGSQLQuerier())
	s.dblinter = dblinter.NewChecker(pool.DBLinterQuerier())

	// typecheck.Checker needs Prepare, which only a single acquired
	// connection exposes (pgxpool.Pool itself does not); hold one
	// dedicated connection for the life of the server rather than
	// acquiring and releasing one per keystroke.
	conn, err := pool.Acquire(ctx)
	if err != nil {
		s.logger.Warn("acquiring typecheck connection", "error", err)
		return
	}
	s.typecheck = typecheck.NewChecker(conn.Conn())

	cache, err := schema.NewLoader(pool, s.logger).Load(ctx)
	if err != nil {
		s.logger.Warn("loading schema cache", "error", err)
		return
	}
	s.schemaMu.Lock()
	s.schema = cache
	s.runner.Schema = cache
	s.schemaMu.Unlock()
}

func (s *Server) currentSchema() *schema.Cache {
	s.schemaMu.RLock()
	defer s.schemaMu.RUnlock()
	return s.schema
}

func (s *Server) handleShutdown(msg *JSONRPCMessage) error {
	s.shutdownMu.Lock()
	s.shutdown = true
	s.shutdownMu.Unlock()
	if s.pool != nil {
		s.pool.Close()
	}
	s.sendResponse(msg.ID, nil, nil)
	return nil
}

func (s *Server) handleDidOpen(msg *JSONRPCMessage) error {
	var params DidOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	s.workspace.Open(params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

func (s *Server) handleDidChange(msg *JSONRPCMessage) error {
	var params DidChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	doc, ok := s.workspace.Document(params.TextDocument.URI)
	if !ok {
		return fmt.Errorf("didChange on unopened document: %s", params.TextDocument.URI)
	}

	text := doc.Text()
	for _, change := range params.ContentChanges {
		text = applyContentChange(text, change)
	}
	changes, err := s.workspace.Change(params.TextDocument.URI, text)
	if err != nil {
		return err
	}
	s.evictChanged(changes)
	return nil
}

func (s *Server) evictChanged(changes []workspace.StatementChange) {
	for _, c := range changes {
		if c.Old != nil {
			s.ast.Evict(c.Old.ID)
			s.cst.Evict(c.Old.ID)
		}
	}
}

func (s *Server) handleDidClose(msg *JSONRPCMessage) error {
	var params DidCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	s.workspace.Close(params.TextDocument.URI)
	s.tokensMu.Lock()
	delete(s.prevTokens, params.TextDocument.URI)
	delete(s.resultSeq, params.TextDocument.URI)
	s.tokensMu.Unlock()
	return nil
}

// applyContentChange applies one incremental or full-text edit to text.
// Positions are treated as byte offsets within a line; pgls's workspace
// splitter operates on byte spans throughout, so this keeps the sync layer
// consistent with the rest of the pipeline rather than introducing UTF-16
// accounting solely for this one boundary.
func applyContentChange(text string, change TextDocumentContentChangeEvent) string {
	if change.Range == nil {
		return change.Text
	}
	start := offsetAt(text, change.Range.Start)
	end := offsetAt(text, change.Range.End)
	return text[:start] + change.Text + text[end:]
}

func offsetAt(text string, pos Position) int {
	line := 0
	i := 0
	for line < int(pos.Line) && i < len(text) {
		if text[i] == '\n' {
			line++
		}
		i++
	}
	end := i + int(pos.Character)
	if end > len(text) {
		end = len(text)
	}
	return end
}

func uriToPath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}

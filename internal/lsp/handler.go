// Package lsp implements a language server exposing the verification
// pipeline's diagnostics over the Language Server Protocol, grounded on
// the teacher's glsp-based handler (spec SPEC_FULL.md ambient tooling
// section).
package lsp

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"covenant/grammar"
	"covenant/internal/astbuild"
	"covenant/internal/diag"
	"covenant/internal/driver"
	"covenant/internal/lang"
	"covenant/internal/smt"
)

// Handler implements the glsp protocol.Handler callbacks for covenant
// source files, caching the last successful parse per open document.
type Handler struct {
	mu      sync.RWMutex
	content map[string]string
	modules map[string][]*lang.Module

	cache *smt.Cache
}

func NewHandler() *Handler {
	return &Handler{
		content: make(map[string]string),
		modules: make(map[string][]*lang.Module),
		cache:   smt.NewCache(),
	}
}

func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
		},
	}, nil
}

func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (h *Handler) Shutdown(ctx *glsp.Context) error {
	return nil
}

func (h *Handler) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	return h.verifyAndPublish(ctx, params.TextDocument.URI)
}

func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	return h.verifyAndPublish(ctx, params.TextDocument.URI)
}

func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.content, path)
	delete(h.modules, path)
	return nil
}

// verifyAndPublish re-reads, re-parses, and re-runs the full driver
// pipeline for one document, then publishes its diagnostics (spec §5's
// "re-verify on every change" requirement for interactive tooling).
func (h *Handler) verifyAndPublish(ctx *glsp.Context, uri protocol.DocumentUri) error {
	path, err := uriToPath(uri)
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", uri, err)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}

	prog, parseErr := grammar.ParseString(path, string(source))
	if parseErr != nil {
		sendDiagnostics(ctx, uri, []protocol.Diagnostic{{
			Range:    protocol.Range{},
			Severity: ptrSeverity(protocol.DiagnosticSeverityError),
			Source:   ptrString("covenant-parser"),
			Message:  parseErr.Error(),
		}})
		return nil
	}

	mods := astbuild.Build(prog)
	sink := diag.NewCollector()
	for _, mod := range mods {
		driver.RunModule(mod, driver.DefaultOptions(), h.cache, sink)
	}

	h.mu.Lock()
	h.content[path] = string(source)
	h.modules[path] = mods
	h.mu.Unlock()

	sendDiagnostics(ctx, uri, convertDiagnostics(sink.Diagnostics))
	return nil
}

func sendDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, diagnostics []protocol.Diagnostic) {
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}
	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

func ptrBool(b bool) *bool { return &b }

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind { return &k }

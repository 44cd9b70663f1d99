package lsp

import (
	"amblels/internal/config"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"go.lsp.dev/uri"
)

var log = commonlog.GetLogger("amblels.lsp")

func (ls *Server) initialize(
	context *glsp.Context,
	params *protocol.InitializeParams,
) (any, error) {
	cfg := ls.loadConfig(params)
	ls.workspace.SetConfig(cfg)

	capabilities := ls.handler.CreateServerCapabilities()
	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &version,
		},
	}, nil
}

// loadConfig resolves the effective configuration: defaults, then the
// workspace amblels.yaml if a root is known, then initializationOptions
// on top.
func (ls *Server) loadConfig(params *protocol.InitializeParams) config.Config {
	cfg := config.Default()

	if root, ok := rootPath(params); ok {
		loaded, err := config.Load(root)
		if err != nil {
			log.Warningf("config load failed for %s: %s", root, err)
		} else {
			cfg = loaded
		}
	}

	if params.InitializationOptions != nil {
		overlaid, err := cfg.Overlay(params.InitializationOptions)
		if err != nil {
			log.Warningf("bad initializationOptions: %s", err)
		} else {
			cfg = overlaid
		}
	}
	return cfg
}

func rootPath(params *protocol.InitializeParams) (string, bool) {
	if len(params.WorkspaceFolders) > 0 {
		if p, err := uriFilename(params.WorkspaceFolders[0].URI); err == nil {
			return p, true
		}
	}
	if params.RootURI != nil {
		if p, err := uriFilename(*params.RootURI); err == nil {
			return p, true
		}
	}
	if params.RootPath != nil && *params.RootPath != "" {
		return *params.RootPath, true
	}
	return "", false
}

func uriFilename(raw string) (string, error) {
	parsed, err := uri.Parse(raw)
	if err != nil {
		return "", err
	}
	return parsed.Filename(), nil
}

func (ls *Server) initialized(context *glsp.Context, params *protocol.InitializedParams) error {
	log.Info("server initialized")
	return nil
}

func (ls *Server) shutdown(context *glsp.Context) error {
	log.Info("server shutting down")
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (ls *Server) setTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *Server) textDocumentDidOpen(
	context *glsp.Context,
	params *protocol.DidOpenTextDocumentParams,
) error {
	ls.workspace.DidOpen(params.TextDocument.URI, params.TextDocument.Text)
	ls.publishAllOpen(context)
	return nil
}

func (ls *Server) textDocumentDidChange(
	context *glsp.Context,
	params *protocol.DidChangeTextDocumentParams,
) error {
	for _, change := range params.ContentChanges {
		switch contentChange := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			ls.workspace.DidChange(params.TextDocument.URI, contentChange.Text)
		case protocol.TextDocumentContentChangeEvent:
			// full sync is negotiated, so a range event means a confused
			// client; take the text as the whole document
			ls.workspace.DidChange(params.TextDocument.URI, contentChange.Text)
		}
	}
	ls.publish(context, params.TextDocument.URI)
	return nil
}

func (ls *Server) textDocumentDidSave(
	context *glsp.Context,
	params *protocol.DidSaveTextDocumentParams,
) error {
	ls.workspace.DidSave(params.TextDocument.URI)
	ls.publishAllOpen(context)
	return nil
}

func (ls *Server) textDocumentDidClose(
	context *glsp.Context,
	params *protocol.DidCloseTextDocumentParams,
) error {
	ls.workspace.DidClose(params.TextDocument.URI)
	return nil
}

func (ls *Server) publish(context *glsp.Context, uriStr string) {
	context.Notify("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         uriStr,
		Diagnostics: ls.workspace.Diagnostics(uriStr),
	})
}

// publishAllOpen refreshes diagnostics for every open document. A scan
// of one file can invalidate or satisfy references in its siblings.
func (ls *Server) publishAllOpen(context *glsp.Context) {
	for _, u := range ls.workspace.OpenDocuments() {
		ls.publish(context, u)
	}
}

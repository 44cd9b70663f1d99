// Package lsp adapts the analysis workspace to the language server
// protocol: one handler per request, thin translation in both
// directions, no analysis logic of its own.
package lsp

import (
	"amblels/internal/analysis"
	"amblels/internal/config"

	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
)

const lsName = "amblels"

var version = "0.1.0"

type Server struct {
	workspace *analysis.Workspace
	handler   *protocol.Handler
}

func NewServer() (*server.Server, error) {
	ls := &Server{
		workspace: analysis.NewWorkspace(config.Default()),
	}

	ls.handler = &protocol.Handler{
		Initialize:             ls.initialize,
		Initialized:            ls.initialized,
		Shutdown:               ls.shutdown,
		SetTrace:               ls.setTrace,
		TextDocumentDidOpen:    ls.textDocumentDidOpen,
		TextDocumentDidChange:  ls.textDocumentDidChange,
		TextDocumentDidSave:    ls.textDocumentDidSave,
		TextDocumentDidClose:   ls.textDocumentDidClose,
		TextDocumentDefinition: ls.textDocumentDefinition,
		TextDocumentReferences: ls.textDocumentReferences,
		TextDocumentCompletion: ls.textDocumentCompletion,
		TextDocumentHover:      ls.textDocumentHover,
		TextDocumentRename:     ls.textDocumentRename,
		TextDocumentFormatting: ls.textDocumentFormatting,
	}

	return server.NewServer(ls.handler, lsName, false), nil
}

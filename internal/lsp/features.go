package lsp

import (
	"amblels/internal/symbol"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (ls *Server) textDocumentDefinition(
	context *glsp.Context,
	params *protocol.DefinitionParams,
) (any, error) {
	loc, ok := ls.workspace.Definition(params.TextDocument.URI, params.Position)
	if !ok {
		return nil, nil
	}
	return protocol.Location{URI: loc.URI, Range: loc.Range}, nil
}

func (ls *Server) textDocumentReferences(
	context *glsp.Context,
	params *protocol.ReferenceParams,
) ([]protocol.Location, error) {
	locs := ls.workspace.References(
		params.TextDocument.URI,
		params.Position,
		params.Context.IncludeDeclaration,
	)
	out := make([]protocol.Location, 0, len(locs))
	for _, loc := range locs {
		out = append(out, protocol.Location{URI: loc.URI, Range: loc.Range})
	}
	return out, nil
}

func (ls *Server) textDocumentCompletion(
	context *glsp.Context,
	params *protocol.CompletionParams,
) (any, error) {
	kind, ok := ls.workspace.CompletionContext(params.TextDocument.URI, params.Position)
	if !ok {
		return nil, nil
	}
	itemKind := completionItemKind(kind)
	detail := kind.String()
	names := ls.workspace.Store().DefinitionNames(kind)
	items := make([]protocol.CompletionItem, 0, len(names))
	for _, name := range names {
		items = append(items, protocol.CompletionItem{
			Label:  name,
			Kind:   &itemKind,
			Detail: &detail,
		})
	}
	return items, nil
}

func completionItemKind(kind symbol.Kind) protocol.CompletionItemKind {
	switch kind {
	case symbol.Room, symbol.Set:
		return protocol.CompletionItemKindModule
	case symbol.Flag:
		return protocol.CompletionItemKindVariable
	default:
		return protocol.CompletionItemKindValue
	}
}

func (ls *Server) textDocumentHover(
	context *glsp.Context,
	params *protocol.HoverParams,
) (*protocol.Hover, error) {
	card, ok := ls.workspace.Hover(params.TextDocument.URI, params.Position)
	if !ok {
		return nil, nil
	}
	hover := &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: card,
		},
	}
	if rng, ok := ls.workspace.HoverRange(params.TextDocument.URI, params.Position); ok {
		hover.Range = &rng
	}
	return hover, nil
}

func (ls *Server) textDocumentFormatting(
	context *glsp.Context,
	params *protocol.DocumentFormattingParams,
) ([]protocol.TextEdit, error) {
	return ls.workspace.FormatEdits(params.TextDocument.URI), nil
}

func (ls *Server) textDocumentRename(
	context *glsp.Context,
	params *protocol.RenameParams,
) (*protocol.WorkspaceEdit, error) {
	edits, ok := ls.workspace.Rename(params.TextDocument.URI, params.Position, params.NewName)
	if !ok {
		return nil, nil
	}
	return &protocol.WorkspaceEdit{Changes: edits}, nil
}

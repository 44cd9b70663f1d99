package analysis

import (
	"amblels/internal/symbol"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Definition resolves goto-definition for the position. Room references
// fall back to set definitions: a set name is usable anywhere a room is,
// and jumping to the set declaration is the useful answer there.
func (w *Workspace) Definition(uriStr string, pos protocol.Position) (symbol.Location, bool) {
	sym, ok := w.SymbolAt(uriStr, pos)
	if !ok {
		return symbol.Location{}, false
	}
	if def, ok := w.store.LookupDefinition(sym.Kind, sym.Name); ok {
		return def.Location, true
	}
	if sym.Kind == symbol.Room {
		if def, ok := w.store.LookupDefinition(symbol.Set, sym.Name); ok {
			return def.Location, true
		}
	}
	return symbol.Location{}, false
}

// References lists every reference to the symbol at the position, in
// indexing order, optionally including the definition site itself.
func (w *Workspace) References(uriStr string, pos protocol.Position, includeDeclaration bool) []symbol.Location {
	sym, ok := w.SymbolAt(uriStr, pos)
	if !ok {
		return nil
	}
	return w.store.LookupReferences(sym.Kind, sym.Name, includeDeclaration)
}

// Rename computes the workspace edits that rename the symbol at the
// position. The definition site and every reference get an edit; a
// sequence reference like "quest#2" only renames its base-name span so
// the "#2" suffix survives.
func (w *Workspace) Rename(uriStr string, pos protocol.Position, newName string) (map[string][]protocol.TextEdit, bool) {
	sym, ok := w.SymbolAt(uriStr, pos)
	if !ok {
		return nil, false
	}

	edits := make(map[string][]protocol.TextEdit)
	add := func(u string, rng protocol.Range) {
		edits[u] = append(edits[u], protocol.TextEdit{Range: rng, NewText: newName})
	}

	if def, ok := w.store.LookupDefinition(sym.Kind, sym.Name); ok {
		add(def.Location.URI, def.Location.Range)
	}
	for _, dup := range w.store.Duplicates(sym.Kind, sym.Name) {
		add(dup.Location.URI, dup.Location.Range)
	}
	w.store.EachReference(sym.Kind, func(name string, refs []symbol.Reference) {
		if name != sym.Name {
			return
		}
		for _, ref := range refs {
			rng := ref.Location.Range
			if ref.RenameRange != nil {
				rng = *ref.RenameRange
			}
			add(ref.Location.URI, rng)
		}
	})

	if len(edits) == 0 {
		return nil, false
	}
	return edits, true
}

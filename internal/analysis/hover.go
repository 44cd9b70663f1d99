package analysis

import (
	"fmt"
	"strings"

	"amblels/internal/symbol"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

const hoverDescriptionLimit = 100

// Hover renders a markdown card for the symbol at the position. Room
// references resolve through sets like goto-definition does.
func (w *Workspace) Hover(uriStr string, pos protocol.Position) (string, bool) {
	sym, ok := w.SymbolAt(uriStr, pos)
	if !ok {
		return "", false
	}
	kind := sym.Kind
	def, found := w.store.LookupDefinition(kind, sym.Name)
	if !found && kind == symbol.Room {
		if setDef, ok := w.store.LookupDefinition(symbol.Set, sym.Name); ok {
			kind, def, found = symbol.Set, setDef, true
		}
	}
	if !found {
		return "", false
	}
	return hoverCard(kind, sym.Name, def.Metadata), true
}

func hoverCard(kind symbol.Kind, name string, meta symbol.Metadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** `%s`", kind, name)
	if meta.DisplayName != "" {
		fmt.Fprintf(&b, "\n\n%s", meta.DisplayName)
	}
	if meta.Description != "" {
		fmt.Fprintf(&b, "\n\n%s", truncate(meta.Description, hoverDescriptionLimit))
	}

	switch kind {
	case symbol.Room:
		if len(meta.Exits) > 0 {
			fmt.Fprintf(&b, "\n\nExits: %s", strings.Join(meta.Exits, ", "))
		}
	case symbol.Item:
		if meta.HasPortability {
			if meta.Portable {
				b.WriteString("\n\nPortable")
			} else {
				b.WriteString("\n\nNot portable")
			}
		}
		if meta.ItemLocation != "" {
			fmt.Fprintf(&b, "\n\nLocation: %s", meta.ItemLocation)
		}
		if meta.ContainerState != "" {
			fmt.Fprintf(&b, "\n\nContainer: %s", meta.ContainerState)
		}
		if len(meta.Abilities) > 0 {
			fmt.Fprintf(&b, "\n\nAbilities: %s", strings.Join(meta.Abilities, ", "))
		}
		if len(meta.Requirements) > 0 {
			fmt.Fprintf(&b, "\n\nRequires: %s", strings.Join(meta.Requirements, ", "))
		}
	case symbol.Npc:
		if meta.NpcLocation != "" {
			fmt.Fprintf(&b, "\n\nLocation: %s", meta.NpcLocation)
		}
		if meta.NpcState != "" {
			fmt.Fprintf(&b, "\n\nState: %s", meta.NpcState)
		}
	case symbol.Flag:
		if meta.IsSequence {
			fmt.Fprintf(&b, "\n\nSequence flag, limit %d", meta.SequenceLimit)
		}
		if meta.DefinedIn != "" {
			fmt.Fprintf(&b, "\n\nDefined in trigger %q", meta.DefinedIn)
		}
	case symbol.Set:
		if len(meta.Rooms) > 0 {
			fmt.Fprintf(&b, "\n\nRooms: %s", strings.Join(meta.Rooms, ", "))
		}
	}
	return b.String()
}

// truncate keeps the first limit characters, not bytes, so multi-byte
// descriptions do not cut short.
func truncate(s string, limit int) string {
	count := 0
	for i := range s {
		if count == limit {
			return s[:i] + "..."
		}
		count++
	}
	return s
}

// HoverRange returns the identifier range to highlight for a hover at
// the position.
func (w *Workspace) HoverRange(uriStr string, pos protocol.Position) (protocol.Range, bool) {
	sym, ok := w.SymbolAt(uriStr, pos)
	if !ok {
		return protocol.Range{}, false
	}
	doc, ok := w.document(uriStr)
	if !ok {
		return protocol.Range{}, false
	}
	return doc.Doc.Range(sym.Node.Start, sym.Node.End), true
}

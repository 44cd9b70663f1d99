package analysis

import (
	"strings"

	"amblels/internal/query"
	"amblels/internal/symbol"
	"amblels/internal/syntax"
	"amblels/internal/text"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// scanFile re-derives one document: full re-parse, capture extraction for
// every kind/role pair, then one atomic replace of the file's entries in
// the symbol store. All heavy work happens before the store lock is
// taken.
func (w *Workspace) scanFile(uriStr string, content string, open bool) {
	doc := text.NewDocument(content)
	tree := syntax.Parse([]byte(content))

	symbols, starts := collectSymbols(uriStr, doc, tree)
	w.store.ReplaceFile(uriStr, symbols)

	w.mu.Lock()
	w.playerStart[uriStr] = starts
	w.mu.Unlock()

	w.setDocument(&Document{URI: uriStr, Doc: doc, Tree: tree, Open: open})
}

func collectSymbols(uriStr string, doc *text.Document, tree *syntax.Tree) (symbol.FileSymbols, []playerStart) {
	var out symbol.FileSymbols

	for _, kind := range symbol.Kinds {
		for _, cap := range query.New(kind, query.Definition).Run(tree) {
			out.Definitions = append(out.Definitions, symbol.ScannedDefinition{
				Kind: kind,
				Name: cap.Name,
				Definition: symbol.Definition{
					Location: symbol.Location{URI: uriStr, Range: doc.Range(cap.Start, cap.End)},
					Metadata: extractMetadata(kind, cap.Node, tree.Source()),
				},
			})
		}
		for _, cap := range query.New(kind, query.Reference).Run(tree) {
			name := cap.Name
			ref := symbol.Reference{
				Location: symbol.Location{URI: uriStr, Range: doc.Range(cap.Start, cap.End)},
				RawName:  cap.Name,
			}
			if kind == symbol.Flag {
				if base, seq := splitSequenceRef(cap.Name); seq {
					name = base
					ref.RenameRange = flagBaseRange(ref.Location.Range, base)
				}
			}
			out.References = append(out.References, symbol.ScannedReference{
				Kind: kind, Name: name, Reference: ref,
			})
		}
	}

	return out, collectPlayerStarts(uriStr, doc, tree)
}

// splitSequenceRef splits "quest#2" into its base name. References index
// under the base; the raw spelling is kept for diagnostics.
func splitSequenceRef(name string) (string, bool) {
	base, _, found := strings.Cut(name, "#")
	if !found || base == "" {
		return name, false
	}
	return base, true
}

// flagBaseRange narrows a sequence reference's range to the base name for
// rename edits. Identifiers are ASCII, so byte length equals UTF-16
// length here.
func flagBaseRange(full protocol.Range, base string) *protocol.Range {
	end := full.Start.Character + protocol.UInteger(len(base))
	if full.Start.Line == full.End.Line && end > full.End.Character {
		end = full.End.Character
	}
	return &protocol.Range{
		Start: full.Start,
		End:   protocol.Position{Line: full.Start.Line, Character: end},
	}
}

func collectPlayerStarts(uriStr string, doc *text.Document, tree *syntax.Tree) []playerStart {
	var out []playerStart
	tree.Walk(func(n *syntax.Node) bool {
		if n.Kind != syntax.KindPlayerStart {
			return true
		}
		if room := n.ChildByField("room_id"); room != nil {
			id := strings.TrimSpace(room.Text(tree.Source()))
			if id != "" {
				out = append(out, playerStart{
					roomID: id,
					rng:    doc.Range(room.Start, room.End),
					uri:    uriStr,
				})
			}
		}
		return false
	})
	return out
}

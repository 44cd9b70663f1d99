package analysis

import (
	"strings"

	"amblels/internal/query"
	"amblels/internal/symbol"
	"amblels/internal/syntax"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ResolvedSymbol is the symbol under a cursor position: its kind, the
// name it indexes under, and the raw spelling at the site.
type ResolvedSymbol struct {
	Kind    symbol.Kind
	Name    string
	RawName string
	IsDef   bool
	Node    *syntax.Node
}

// SymbolAt resolves the symbol at an LSP position. A cursor at the end
// of an identifier still resolves: both the offset and the byte before
// it are probed, matching how editors place the caret after a word.
func (w *Workspace) SymbolAt(uriStr string, pos protocol.Position) (ResolvedSymbol, bool) {
	doc, ok := w.document(uriStr)
	if !ok {
		return ResolvedSymbol{}, false
	}
	offset := doc.Doc.OffsetAt(pos)
	if offset < 0 {
		return ResolvedSymbol{}, false
	}

	for _, probe := range probeOffsets(offset) {
		node := doc.Tree.NodeAt(probe)
		for n := node; n != nil; n = n.Parent {
			kind, isIdent := query.KindOfIdent(n)
			if !isIdent {
				continue
			}
			raw := strings.TrimSpace(n.Text(doc.Tree.Source()))
			if raw == "" {
				break
			}
			name := raw
			if kind == symbol.Flag {
				if base, seq := splitSequenceRef(raw); seq {
					name = base
				}
			}
			return ResolvedSymbol{
				Kind:    kind,
				Name:    name,
				RawName: raw,
				IsDef:   query.IsDefinitionSite(n, kind),
				Node:    n,
			}, true
		}
	}
	return ResolvedSymbol{}, false
}

func probeOffsets(offset int) []int {
	if offset > 0 {
		return []int{offset, offset - 1}
	}
	return []int{offset}
}

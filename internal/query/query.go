// Package query extracts symbol captures from syntax trees.
//
// There is exactly one compiled query pair per symbol kind: a definition
// query and a reference query. The reference query leans on the grammar's
// one-identifier-kind-per-symbol-kind shape: every context that uses a
// room produces a room_id leaf, so matching room references is "every
// room_id leaf that is not a definition site" rather than an enumeration
// of contexts.
package query

import (
	"strings"

	"amblels/internal/symbol"
	"amblels/internal/syntax"
)

// Role selects which half of a kind's query pair runs.
type Role int

const (
	Definition Role = iota
	Reference
)

// Capture is one matched identifier: its trimmed text, byte range, and
// the node itself (whose parent is the enclosing construct).
type Capture struct {
	Name  string
	Start int
	End   int
	Node  *syntax.Node
}

// Query is a compiled (kind, role) pattern.
type Query struct {
	kind symbol.Kind
	role Role
}

func New(kind symbol.Kind, role Role) Query {
	return Query{kind: kind, role: role}
}

// Run returns captures in document order. Error nodes never match, so
// malformed regions contribute nothing without disturbing their siblings.
func (q Query) Run(tree *syntax.Tree) []Capture {
	src := tree.Source()
	identKind := identKindFor(q.kind)
	var out []Capture
	tree.Walk(func(n *syntax.Node) bool {
		if n.IsError() {
			return false
		}
		if n.Kind != identKind {
			return true
		}
		isDef := IsDefinitionSite(n, q.kind)
		if (q.role == Definition) != isDef {
			return true
		}
		name := strings.TrimSpace(n.Text(src))
		if name == "" {
			return true
		}
		out = append(out, Capture{Name: name, Start: n.Start, End: n.End, Node: n})
		return true
	})
	return out
}

// identKindFor maps a symbol kind to its identifier leaf node kind.
func identKindFor(k symbol.Kind) string {
	switch k {
	case symbol.Room:
		return syntax.KindRoomID
	case symbol.Item:
		return syntax.KindItemID
	case symbol.Npc:
		return syntax.KindNpcID
	case symbol.Flag:
		return syntax.KindFlagName
	case symbol.Set:
		return syntax.KindSetName
	}
	return ""
}

// KindOfIdent reports which symbol kind an identifier node belongs to.
func KindOfIdent(n *syntax.Node) (symbol.Kind, bool) {
	switch n.Kind {
	case syntax.KindRoomID:
		return symbol.Room, true
	case syntax.KindItemID:
		return symbol.Item, true
	case syntax.KindNpcID:
		return symbol.Npc, true
	case syntax.KindFlagName:
		return symbol.Flag, true
	case syntax.KindSetName:
		return symbol.Set, true
	}
	return 0, false
}

// IsDefinitionSite reports whether the identifier node sits in the
// defining position for the given kind. For flags that is an "add flag"
// or "add seq flag" action; for the other kinds, the declaring construct.
func IsDefinitionSite(n *syntax.Node, k symbol.Kind) bool {
	p := n.Parent
	if p == nil {
		return false
	}
	switch k {
	case symbol.Room:
		return p.Kind == syntax.KindRoomDef && n.Field == "room_id"
	case symbol.Item:
		return p.Kind == syntax.KindItemDef && n.Field == "item_id"
	case symbol.Npc:
		return p.Kind == syntax.KindNpcDef && n.Field == "npc_id"
	case symbol.Flag:
		return (p.Kind == syntax.KindActionAddFlag && n.Field == "flag") ||
			(p.Kind == syntax.KindActionAddSeq && n.Field == "flag_name")
	case symbol.Set:
		return p.Kind == syntax.KindSetDecl && n.Field == "name"
	}
	return false
}

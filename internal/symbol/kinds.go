// Package symbol holds the project-wide store of definitions and
// references per symbol kind.
package symbol

import (
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Kind enumerates the symbol kinds the analyzer tracks. Adding a kind
// means extending this enumeration plus one definition/reference query
// pair; nothing else switches on kinds per se.
type Kind int

const (
	Room Kind = iota
	Item
	Npc
	Flag
	Set
)

// Kinds lists every kind in a stable order for code that iterates all
// indexes.
var Kinds = []Kind{Room, Item, Npc, Flag, Set}

func (k Kind) String() string {
	switch k {
	case Room:
		return "Room"
	case Item:
		return "Item"
	case Npc:
		return "Npc"
	case Flag:
		return "Flag"
	case Set:
		return "Set"
	}
	return "Unknown"
}

// Location is a definition or reference site.
type Location struct {
	URI   string
	Range protocol.Range
}

// Definition is the authoritative declaration site of a (kind, name)
// symbol, plus whatever structured metadata the scan extracted for hover
// and extra diagnostics.
type Definition struct {
	Location Location
	Metadata Metadata
}

// Reference is one usage site. RawName keeps the text as written; for
// sequence-flag references like "quest#2" the symbol indexes under the
// base name but diagnostics report the raw spelling.
type Reference struct {
	Location Location
	RawName  string
	// RenameRange narrows the editable span when it differs from the
	// full range, e.g. only the base name of "quest#2". Nil means the
	// whole range renames.
	RenameRange *protocol.Range
}

// Metadata carries kind-specific detail. Exactly one field set matters per
// definition; absent values stay zero.
type Metadata struct {
	DisplayName string
	Description string

	Exits []string // rooms

	Portable       bool // items
	HasPortability bool
	ItemLocation   string
	ContainerState string
	Abilities      []string
	Requirements   []string

	NpcLocation string // npcs
	NpcState    string

	DefinedIn     string // flags: enclosing trigger name
	SequenceLimit int64
	IsSequence    bool

	Rooms []string // sets
}

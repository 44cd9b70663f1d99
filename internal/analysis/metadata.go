package analysis

import (
	"strconv"
	"strings"

	"amblels/internal/symbol"
	"amblels/internal/syntax"
)

// extractMetadata reads structured detail out of the construct enclosing
// a definition capture. Everything is optional; missing pieces surface
// later as metadata diagnostics, never as scan failures.
func extractMetadata(kind symbol.Kind, ident *syntax.Node, src []byte) symbol.Metadata {
	def := ident.Parent
	if def == nil {
		return symbol.Metadata{}
	}
	switch kind {
	case symbol.Room:
		return roomMetadata(def, src)
	case symbol.Item:
		return itemMetadata(def, src)
	case symbol.Npc:
		return npcMetadata(def, src)
	case symbol.Flag:
		return flagMetadata(def, src)
	case symbol.Set:
		return setMetadata(def, src)
	}
	return symbol.Metadata{}
}

func roomMetadata(def *syntax.Node, src []byte) symbol.Metadata {
	var meta symbol.Metadata
	for _, stmt := range def.Children {
		switch stmt.Kind {
		case syntax.KindRoomName:
			meta.DisplayName = stringField(stmt, "name", src)
		case syntax.KindRoomDesc:
			meta.Description = stringField(stmt, "description", src)
		case syntax.KindRoomExit:
			if dest := stmt.ChildByField("dest"); dest != nil {
				meta.Exits = append(meta.Exits, trimmed(dest, src))
			}
		}
	}
	return meta
}

func itemMetadata(def *syntax.Node, src []byte) symbol.Metadata {
	var meta symbol.Metadata
	for _, stmt := range def.Children {
		switch stmt.Kind {
		case syntax.KindItemName:
			meta.DisplayName = stringField(stmt, "item_name", src)
		case syntax.KindItemDesc:
			meta.Description = stringField(stmt, "item_description", src)
		case syntax.KindItemPortable:
			meta.Portable = true
			meta.HasPortability = true
		case syntax.KindItemLoc:
			meta.ItemLocation = locationText(stmt, src)
		case syntax.KindItemContainer:
			if state := stmt.ChildByField("state"); state != nil {
				meta.ContainerState = trimmed(state, src)
			}
		case syntax.KindItemAbility:
			ability := fieldText(stmt, "ability", src)
			if ability == "" {
				continue
			}
			if target := stmt.ChildByField("target_id"); target != nil {
				ability += " (" + trimmed(target, src) + ")"
			}
			meta.Abilities = append(meta.Abilities, ability)
		case syntax.KindItemRequires:
			ability := fieldText(stmt, "ability", src)
			interaction := fieldText(stmt, "interaction", src)
			if ability != "" && interaction != "" {
				meta.Requirements = append(meta.Requirements, ability+" -> "+interaction)
			} else if ability != "" {
				meta.Requirements = append(meta.Requirements, ability)
			}
		}
	}
	return meta
}

func npcMetadata(def *syntax.Node, src []byte) symbol.Metadata {
	var meta symbol.Metadata
	for _, stmt := range def.Children {
		switch stmt.Kind {
		case syntax.KindNpcName:
			meta.DisplayName = stringField(stmt, "npc_name", src)
		case syntax.KindNpcDesc:
			meta.Description = stringField(stmt, "npc_description", src)
		case syntax.KindNpcLoc:
			meta.NpcLocation = locationText(stmt, src)
		case syntax.KindNpcState:
			if state := stmt.ChildByField("state"); state != nil {
				meta.NpcState = trimmed(state, src)
			}
		}
	}
	return meta
}

// flagMetadata records the enclosing trigger's name and, for sequence
// flags, the declared limit.
func flagMetadata(action *syntax.Node, src []byte) symbol.Metadata {
	var meta symbol.Metadata
	for n := action; n != nil; n = n.Parent {
		if n.Kind == syntax.KindTriggerDef {
			meta.DefinedIn = stringField(n, "name", src)
			break
		}
	}
	if action.Kind == syntax.KindActionAddSeq {
		meta.IsSequence = true
		if limit := action.ChildByField("limit"); limit != nil {
			if v, err := strconv.ParseInt(trimmed(limit, src), 10, 64); err == nil {
				meta.SequenceLimit = v
			}
		}
	}
	return meta
}

func setMetadata(def *syntax.Node, src []byte) symbol.Metadata {
	var meta symbol.Metadata
	for _, member := range def.ChildrenOfKind(syntax.KindRoomID) {
		meta.Rooms = append(meta.Rooms, trimmed(member, src))
	}
	return meta
}

func locationText(stmt *syntax.Node, src []byte) string {
	if room := stmt.ChildByField("room"); room != nil {
		return "room " + trimmed(room, src)
	}
	if npc := stmt.ChildByField("npc_id"); npc != nil {
		return "npc " + trimmed(npc, src)
	}
	raw := strings.TrimSpace(string(src[stmt.Start:stmt.End]))
	raw = strings.TrimPrefix(raw, "location")
	return strings.TrimSpace(raw)
}

func trimmed(n *syntax.Node, src []byte) string {
	return strings.TrimSpace(n.Text(src))
}

func fieldText(stmt *syntax.Node, field string, src []byte) string {
	if n := stmt.ChildByField(field); n != nil {
		return trimmed(n, src)
	}
	return ""
}

func stringField(stmt *syntax.Node, field string, src []byte) string {
	n := stmt.ChildByField(field)
	if n == nil {
		return ""
	}
	return unquote(n.Text(src))
}

// unquote strips the surrounding quotes of a string literal, decoding
// escapes when the literal is well formed and falling back to a bare trim
// when it is not (unterminated strings still hover usefully).
func unquote(literal string) string {
	if len(literal) >= 2 && literal[0] == '"' && literal[len(literal)-1] == '"' {
		if s, err := strconv.Unquote(literal); err == nil {
			return s
		}
		return literal[1 : len(literal)-1]
	}
	return strings.TrimPrefix(literal, `"`)
}

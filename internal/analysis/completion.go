package analysis

import (
	"regexp"

	"amblels/internal/query"
	"amblels/internal/symbol"
	"amblels/internal/syntax"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// CompletionContext decides which symbol kind, if any, the cursor
// position expects. Structural detection from the syntax tree runs
// first; when the tree gives no answer (mid-typing often leaves the
// cursor inside an ERROR region) a lexical scan of the current line's
// prefix takes over.
func (w *Workspace) CompletionContext(uriStr string, pos protocol.Position) (symbol.Kind, bool) {
	doc, ok := w.document(uriStr)
	if !ok {
		return 0, false
	}
	offset := doc.Doc.OffsetAt(pos)
	if offset < 0 {
		return 0, false
	}
	if kind, ok := structuralContext(doc.Tree, offset); ok {
		return kind, true
	}
	return lexicalContext(linePrefix(doc.Tree.Source(), offset))
}

// Completion returns the candidate names for the position, in the order
// their definitions were first indexed. No context means no candidates;
// never a mixed-kind list.
func (w *Workspace) Completion(uriStr string, pos protocol.Position) []string {
	kind, ok := w.CompletionContext(uriStr, pos)
	if !ok {
		return nil
	}
	return w.store.DefinitionNames(kind)
}

func structuralContext(tree *syntax.Tree, offset int) (symbol.Kind, bool) {
	for _, probe := range probeOffsets(offset) {
		node := tree.NodeAt(probe)
		for n := node; n != nil; n = n.Parent {
			if kind, isIdent := query.KindOfIdent(n); isIdent {
				if query.IsDefinitionSite(n, kind) {
					return 0, false
				}
				return kind, true
			}
			if kind, ok := expectedKind(n, offset); ok {
				return kind, true
			}
		}
	}
	return 0, false
}

// expectedKind maps a construct node to the symbol kind its identifier
// slot takes. Spawn actions have two slots; the one past the spawned
// entity is the destination room.
func expectedKind(n *syntax.Node, offset int) (symbol.Kind, bool) {
	switch n.Kind {
	case syntax.KindRoomExit, syntax.KindCondInRoom, syntax.KindCondVisitedRoom,
		syntax.KindEvtEnterRoom, syntax.KindEvtLeaveRoom, syntax.KindActionPushPlayer,
		syntax.KindActionLockExit, syntax.KindActionUnlockExit,
		syntax.KindPlayerStart, syntax.KindSetDecl:
		return symbol.Room, true
	case syntax.KindCondHasItem, syntax.KindCondMissingItem,
		syntax.KindEvtTakeItem, syntax.KindEvtDropItem, syntax.KindEvtUseItem:
		return symbol.Item, true
	case syntax.KindCondNpcPresent, syntax.KindEvtTalkNpc:
		return symbol.Npc, true
	case syntax.KindCondHasFlag, syntax.KindCondMissingFlag,
		syntax.KindCondFlagInProgress, syntax.KindCondFlagComplete,
		syntax.KindActionResetFlag, syntax.KindActionRemoveFlag, syntax.KindActionAdvance:
		return symbol.Flag, true
	case syntax.KindActionSpawnItem:
		return spawnSlot(n, "item_id", symbol.Item, offset)
	case syntax.KindActionSpawnNpc:
		return spawnSlot(n, "npc_id", symbol.Npc, offset)
	}
	return 0, false
}

func spawnSlot(n *syntax.Node, entityField string, entityKind symbol.Kind, offset int) (symbol.Kind, bool) {
	if entity := n.ChildByField(entityField); entity != nil && offset > entity.End {
		return symbol.Room, true
	}
	return entityKind, true
}

// Trigger phrases for the lexical fallback, matched against the text
// before the cursor on the current line. Longest, most specific phrases
// are tried first so "flag in progress" wins over the bare flag
// keywords.
var lexicalTriggers = []struct {
	re   *regexp.Regexp
	kind symbol.Kind
}{
	{regexp.MustCompile(`(?:add\s+flag|add\s+seq\s+flag)\s+\S*$`), symbol.Flag},
	{regexp.MustCompile(`(?:has|missing)\s+flag\s+\S*$`), symbol.Flag},
	{regexp.MustCompile(`(?:reset|remove|advance)\s+flag\s+\S*$`), symbol.Flag},
	{regexp.MustCompile(`flag\s+\S*$`), symbol.Flag},
	{regexp.MustCompile(`(?:has|missing|take|drop|use)\s+item\s+\S*$`), symbol.Item},
	{regexp.MustCompile(`spawn\s+item\s+\S*$`), symbol.Item},
	{regexp.MustCompile(`(?:talk\s+to\s+)?npc\s+(?:present\s+)?\S*$`), symbol.Npc},
	{regexp.MustCompile(`spawn\s+npc\s+\S*$`), symbol.Npc},
	{regexp.MustCompile(`->\s*\S*$`), symbol.Room},
	{regexp.MustCompile(`(?:in|visited|to|into|enter|leave)\s+room\s+\S*$`), symbol.Room},
	{regexp.MustCompile(`room\s+\S*$`), symbol.Room},
}

func lexicalContext(prefix string) (symbol.Kind, bool) {
	for _, t := range lexicalTriggers {
		if t.re.MatchString(prefix) {
			return t.kind, true
		}
	}
	return 0, false
}

func linePrefix(src []byte, offset int) string {
	if offset > len(src) {
		offset = len(src)
	}
	start := offset
	for start > 0 && src[start-1] != '\n' {
		start--
	}
	return string(src[start:offset])
}

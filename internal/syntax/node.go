// Package syntax parses Amble world files into a queryable tree.
//
// The tree deliberately keeps the shape of a tree-sitter parse: nodes carry
// a string kind, an optional field name within their parent, and byte
// ranges. Malformed regions are isolated under ERROR nodes instead of
// failing the parse, so well-formed siblings stay queryable.
package syntax

// Node kinds produced by the parser. Identifier leaves share one kind per
// symbol kind regardless of syntactic context; that single shape is what
// the reference queries match.
const (
	KindSourceFile = "source_file"
	KindError      = "ERROR"

	KindRoomID    = "room_id"
	KindItemID    = "item_id"
	KindNpcID     = "npc_id"
	KindFlagName  = "flag_name"
	KindSetName   = "set_name"
	KindString    = "string"
	KindNumber    = "number"
	KindDirection = "direction"
	KindWord      = "word"

	KindRoomDef     = "room_def"
	KindItemDef     = "item_def"
	KindNpcDef      = "npc_def"
	KindSetDecl     = "set_decl"
	KindTriggerDef  = "trigger_def"
	KindGoalDef     = "goal_def"
	KindPlayerStart = "player_start"

	KindRoomName = "room_name"
	KindRoomDesc = "room_desc"
	KindRoomExit = "room_exit"
	KindOverlay  = "overlay"

	KindItemName      = "item_name_stmt"
	KindItemDesc      = "item_desc_stmt"
	KindItemPortable  = "item_portable_stmt"
	KindItemLoc       = "item_loc_stmt"
	KindItemContainer = "item_container_stmt"
	KindItemAbility   = "item_ability_stmt"
	KindItemRequires  = "item_requires_stmt"

	KindNpcName  = "npc_name_stmt"
	KindNpcDesc  = "npc_desc_stmt"
	KindNpcLoc   = "npc_loc_stmt"
	KindNpcState = "npc_state_stmt"

	KindCondAlways         = "cond_always"
	KindCondHasFlag        = "cond_has_flag"
	KindCondMissingFlag    = "cond_missing_flag"
	KindCondFlagInProgress = "cond_flag_in_progress"
	KindCondFlagComplete   = "cond_flag_complete"
	KindCondHasItem        = "cond_has_item"
	KindCondMissingItem    = "cond_missing_item"
	KindCondInRoom         = "cond_in_room"
	KindCondVisitedRoom    = "cond_visited_room"
	KindCondNpcPresent     = "cond_npc_present"
	KindEvtEnterRoom       = "evt_enter_room"
	KindEvtLeaveRoom       = "evt_leave_room"
	KindEvtTalkNpc         = "evt_talk_npc"
	KindEvtTakeItem        = "evt_take_item"
	KindEvtDropItem        = "evt_drop_item"
	KindEvtUseItem         = "evt_use_item"

	KindIfStmt           = "if_stmt"
	KindActionAddFlag    = "action_add_flag"
	KindActionAddSeq     = "action_add_seq"
	KindActionResetFlag  = "action_reset_flag"
	KindActionRemoveFlag = "action_remove_flag"
	KindActionAdvance    = "action_advance_flag"
	KindActionShow       = "action_show"
	KindActionSpawnItem  = "action_spawn_item"
	KindActionSpawnNpc   = "action_spawn_npc"
	KindActionPushPlayer = "action_push_player"
	KindActionLockExit   = "action_lock_exit"
	KindActionUnlockExit = "action_unlock_exit"
	KindActionSchedule   = "action_schedule"
)

// Node is a single syntax-tree node. Start and End are byte offsets into
// the source the tree was parsed from; End is exclusive.
type Node struct {
	Kind     string
	Field    string
	Start    int
	End      int
	Parent   *Node
	Children []*Node
}

// Text returns the source slice covered by the node.
func (n *Node) Text(src []byte) string {
	if n.Start < 0 || n.End > len(src) || n.Start > n.End {
		return ""
	}
	return string(src[n.Start:n.End])
}

// IsError reports whether the node is an error region.
func (n *Node) IsError() bool { return n.Kind == KindError }

// ChildByField returns the first child carrying the given field name.
func (n *Node) ChildByField(field string) *Node {
	for _, c := range n.Children {
		if c.Field == field {
			return c
		}
	}
	return nil
}

// ChildrenOfKind returns all direct children of the given kind.
func (n *Node) ChildrenOfKind(kind string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// FirstChildOfKind returns the first direct child of the given kind.
func (n *Node) FirstChildOfKind(kind string) *Node {
	for _, c := range n.Children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

func (n *Node) contains(offset int) bool {
	if n.Start == n.End {
		return offset == n.Start
	}
	return offset >= n.Start && offset <= n.End
}

// Tree is the result of parsing one document.
type Tree struct {
	Root *Node
	src  []byte
}

// Source returns the bytes the tree was parsed from.
func (t *Tree) Source() []byte { return t.src }

// NodeAt returns the innermost node whose range contains the byte offset,
// or nil when the offset falls outside the document.
func (t *Tree) NodeAt(offset int) *Node {
	if t.Root == nil || !t.Root.contains(offset) {
		return nil
	}
	node := t.Root
descend:
	for {
		for _, c := range node.Children {
			if c.contains(offset) {
				node = c
				continue descend
			}
		}
		return node
	}
}

// Walk visits every node in document order. Returning false from fn stops
// the descent below that node.
func (t *Tree) Walk(fn func(*Node) bool) {
	if t.Root == nil {
		return
	}
	walk(t.Root, fn)
}

func walk(n *Node, fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		walk(c, fn)
	}
}

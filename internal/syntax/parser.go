package syntax

// Parse builds a tree for the given source. It never fails: regions that
// cannot be parsed are collected under ERROR nodes and the surrounding
// constructs continue to parse normally.
func Parse(src []byte) *Tree {
	p := &parser{src: src, toks: lex(src)}
	root := &Node{Kind: KindSourceFile, Start: 0, End: len(src)}
	p.parseSourceFile(root)
	return &Tree{Root: root, src: src}
}

type parser struct {
	src     []byte
	toks    []token
	pos     int
	lastEnd int
}

func (p *parser) cur() token { return p.toks[p.pos] }

func (p *parser) curText() string { return p.cur().text(p.src) }

func (p *parser) at(t tokenType) bool { return p.cur().typ == t }

func (p *parser) atKeyword(word string) bool {
	return p.at(tokIdent) && p.curText() == word
}

func (p *parser) advance() token {
	t := p.cur()
	if t.typ != tokEOF {
		p.pos++
	}
	if t.typ != tokNewline {
		p.lastEnd = t.end
	}
	return t
}

func (p *parser) skipNewlines() {
	for p.at(tokNewline) {
		p.advance()
	}
}

// eat consumes the current token when it is the given keyword.
func (p *parser) eat(word string) bool {
	if p.atKeyword(word) {
		p.advance()
		return true
	}
	return false
}

func attach(parent, child *Node) {
	child.Parent = parent
	parent.Children = append(parent.Children, child)
}

func (p *parser) leaf(parent *Node, kind, field string) *Node {
	t := p.advance()
	n := &Node{Kind: kind, Field: field, Start: t.start, End: t.end}
	attach(parent, n)
	return n
}

// ident attaches an identifier leaf of the given kind when the current
// token is an identifier. Missing identifiers are tolerated: the statement
// simply ends up without that child.
func (p *parser) ident(parent *Node, kind, field string) bool {
	if !p.at(tokIdent) {
		return false
	}
	p.leaf(parent, kind, field)
	return true
}

func (p *parser) str(parent *Node, field string) bool {
	if !p.at(tokString) {
		return false
	}
	p.leaf(parent, KindString, field)
	return true
}

func (p *parser) number(parent *Node, field string) bool {
	if !p.at(tokNumber) {
		return false
	}
	p.leaf(parent, KindNumber, field)
	return true
}

// errorToEOL swallows tokens up to the end of the line (or a closing
// brace) into an ERROR node. Consumes at least one token so the caller
// always makes progress.
func (p *parser) errorToEOL(parent *Node) {
	start := p.cur().start
	consumed := 0
	for !p.at(tokEOF) && !p.at(tokNewline) && !p.at(tokRBrace) && !p.at(tokLBrace) {
		p.advance()
		consumed++
	}
	if consumed == 0 {
		p.advance()
	}
	end := p.lastEnd
	if end < start {
		end = start
	}
	attach(parent, &Node{Kind: KindError, Start: start, End: end})
}

func (p *parser) parseSourceFile(root *Node) {
	for {
		p.skipNewlines()
		if p.at(tokEOF) {
			return
		}
		switch p.curText() {
		case "room":
			p.parseRoomDef(root)
		case "item":
			p.parseItemDef(root)
		case "npc":
			p.parseNpcDef(root)
		case "set":
			p.parseSetDecl(root)
		case "trigger":
			p.parseTriggerDef(root)
		case "goal":
			p.parseGoalDef(root)
		case "player_start":
			p.parsePlayerStart(root)
		default:
			p.errorToEOL(root)
		}
	}
}

func (p *parser) begin(parent *Node, kind string) *Node {
	n := &Node{Kind: kind, Start: p.cur().start}
	attach(parent, n)
	return n
}

func (p *parser) finish(n *Node) {
	n.End = p.lastEnd
	if n.End < n.Start {
		n.End = n.Start
	}
}

// parseBlock runs stmt for every line between braces. A missing opening
// brace ends the construct immediately; a missing closing brace ends it at
// EOF, keeping everything parsed so far.
func (p *parser) parseBlock(n *Node, stmt func(*Node)) {
	if !p.at(tokLBrace) {
		return
	}
	p.advance()
	for {
		p.skipNewlines()
		if p.at(tokRBrace) {
			p.advance()
			return
		}
		if p.at(tokEOF) {
			return
		}
		stmt(n)
	}
}

func (p *parser) parseRoomDef(parent *Node) {
	n := p.begin(parent, KindRoomDef)
	defer p.finish(n)
	p.advance() // room
	if !p.ident(n, KindRoomID, "room_id") {
		p.errorToEOL(n)
		return
	}
	p.parseBlock(n, p.parseRoomStmt)
}

func (p *parser) parseRoomStmt(n *Node) {
	switch p.curText() {
	case "name":
		s := p.begin(n, KindRoomName)
		p.advance()
		p.str(s, "name")
		p.finish(s)
	case "desc":
		s := p.begin(n, KindRoomDesc)
		p.advance()
		p.str(s, "description")
		p.finish(s)
	case "exit":
		s := p.begin(n, KindRoomExit)
		p.advance()
		if p.at(tokIdent) {
			p.leaf(s, KindDirection, "dir")
		}
		if p.at(tokArrow) {
			p.advance()
		}
		p.ident(s, KindRoomID, "dest")
		p.finish(s)
	case "overlay":
		s := p.begin(n, KindOverlay)
		p.advance()
		p.eat("if")
		p.parseConditions(s)
		p.parseBlock(s, p.parseRoomStmt)
		p.finish(s)
	default:
		p.errorToEOL(n)
	}
}

func (p *parser) parseItemDef(parent *Node) {
	n := p.begin(parent, KindItemDef)
	defer p.finish(n)
	p.advance() // item
	if !p.ident(n, KindItemID, "item_id") {
		p.errorToEOL(n)
		return
	}
	p.parseBlock(n, p.parseItemStmt)
}

func (p *parser) parseItemStmt(n *Node) {
	switch p.curText() {
	case "name":
		s := p.begin(n, KindItemName)
		p.advance()
		p.str(s, "item_name")
		p.finish(s)
	case "desc":
		s := p.begin(n, KindItemDesc)
		p.advance()
		p.str(s, "item_description")
		p.finish(s)
	case "portable":
		s := p.begin(n, KindItemPortable)
		p.advance()
		p.finish(s)
	case "location":
		s := p.begin(n, KindItemLoc)
		p.advance()
		p.parseLocation(s)
		p.finish(s)
	case "container":
		s := p.begin(n, KindItemContainer)
		p.advance()
		if p.at(tokIdent) {
			p.leaf(s, KindWord, "state")
		}
		p.finish(s)
	case "ability":
		s := p.begin(n, KindItemAbility)
		p.advance()
		if p.at(tokIdent) {
			p.leaf(s, KindWord, "ability")
		}
		p.ident(s, KindItemID, "target_id")
		p.finish(s)
	case "requires":
		s := p.begin(n, KindItemRequires)
		p.advance()
		if p.at(tokIdent) {
			p.leaf(s, KindWord, "ability")
		}
		p.eat("to")
		if p.at(tokIdent) {
			p.leaf(s, KindWord, "interaction")
		}
		p.finish(s)
	default:
		p.errorToEOL(n)
	}
}

func (p *parser) parseNpcDef(parent *Node) {
	n := p.begin(parent, KindNpcDef)
	defer p.finish(n)
	p.advance() // npc
	if !p.ident(n, KindNpcID, "npc_id") {
		p.errorToEOL(n)
		return
	}
	p.parseBlock(n, p.parseNpcStmt)
}

func (p *parser) parseNpcStmt(n *Node) {
	switch p.curText() {
	case "name":
		s := p.begin(n, KindNpcName)
		p.advance()
		p.str(s, "npc_name")
		p.finish(s)
	case "desc":
		s := p.begin(n, KindNpcDesc)
		p.advance()
		p.str(s, "npc_description")
		p.finish(s)
	case "location":
		s := p.begin(n, KindNpcLoc)
		p.advance()
		p.parseLocation(s)
		p.finish(s)
	case "state":
		s := p.begin(n, KindNpcState)
		p.advance()
		if p.at(tokIdent) {
			p.leaf(s, KindWord, "state")
		}
		p.finish(s)
	default:
		p.errorToEOL(n)
	}
}

// parseLocation handles "location room X", "location npc X" and
// "location nowhere".
func (p *parser) parseLocation(s *Node) {
	switch p.curText() {
	case "room":
		p.advance()
		p.ident(s, KindRoomID, "room")
	case "npc":
		p.advance()
		p.ident(s, KindNpcID, "npc_id")
	case "nowhere":
		p.advance()
	default:
		p.errorToEOL(s)
	}
}

func (p *parser) parseSetDecl(parent *Node) {
	n := p.begin(parent, KindSetDecl)
	defer p.finish(n)
	p.advance() // set
	if !p.ident(n, KindSetName, "name") {
		p.errorToEOL(n)
		return
	}
	p.parseBlock(n, func(n *Node) {
		if !p.ident(n, KindRoomID, "") {
			p.errorToEOL(n)
		}
	})
}

func (p *parser) parsePlayerStart(parent *Node) {
	n := p.begin(parent, KindPlayerStart)
	defer p.finish(n)
	p.advance() // player_start
	p.eat("room")
	p.ident(n, KindRoomID, "room_id")
}

func (p *parser) parseTriggerDef(parent *Node) {
	n := p.begin(parent, KindTriggerDef)
	defer p.finish(n)
	p.advance() // trigger
	p.str(n, "name")
	if p.eat("when") {
		p.parseConditions(n)
	}
	p.parseBlock(n, p.parseTriggerStmt)
}

func (p *parser) parseGoalDef(parent *Node) {
	n := p.begin(parent, KindGoalDef)
	defer p.finish(n)
	p.advance() // goal
	p.str(n, "name")
	if p.eat("when") {
		p.parseConditions(n)
	}
}

func (p *parser) parseTriggerStmt(n *Node) {
	switch p.curText() {
	case "if":
		s := p.begin(n, KindIfStmt)
		p.advance()
		p.parseConditions(s)
		p.parseBlock(s, p.parseTriggerStmt)
		p.finish(s)
	case "do":
		p.advance()
		p.parseAction(n)
	default:
		p.errorToEOL(n)
	}
}

// parseConditions parses one condition or event atom plus any "and"-joined
// followers, attaching each atom directly to the parent.
func (p *parser) parseConditions(n *Node) {
	for {
		p.parseConditionAtom(n)
		if !p.eat("and") {
			return
		}
	}
}

func (p *parser) parseConditionAtom(n *Node) {
	switch p.curText() {
	case "always":
		s := p.begin(n, KindCondAlways)
		p.advance()
		p.finish(s)
	case "has":
		p.advance()
		p.parseFlagOrItemCond(n, KindCondHasFlag, KindCondHasItem)
	case "missing":
		p.advance()
		p.parseFlagOrItemCond(n, KindCondMissingFlag, KindCondMissingItem)
	case "flag":
		p.advance()
		switch {
		case p.eat("in"):
			s := p.begin(n, KindCondFlagInProgress)
			p.eat("progress")
			p.ident(s, KindFlagName, "flag")
			p.finish(s)
		case p.eat("complete"):
			s := p.begin(n, KindCondFlagComplete)
			p.ident(s, KindFlagName, "flag")
			p.finish(s)
		default:
			p.errorToEOL(n)
		}
	case "in":
		s := p.begin(n, KindCondInRoom)
		p.advance()
		p.eat("room")
		p.ident(s, KindRoomID, "room")
		p.finish(s)
	case "visited":
		s := p.begin(n, KindCondVisitedRoom)
		p.advance()
		p.eat("room")
		p.ident(s, KindRoomID, "room")
		p.finish(s)
	case "npc":
		s := p.begin(n, KindCondNpcPresent)
		p.advance()
		p.eat("present")
		p.ident(s, KindNpcID, "npc_id")
		p.finish(s)
	case "enter":
		s := p.begin(n, KindEvtEnterRoom)
		p.advance()
		p.eat("room")
		p.ident(s, KindRoomID, "room")
		p.finish(s)
	case "leave":
		s := p.begin(n, KindEvtLeaveRoom)
		p.advance()
		p.eat("room")
		p.ident(s, KindRoomID, "room")
		p.finish(s)
	case "talk":
		s := p.begin(n, KindEvtTalkNpc)
		p.advance()
		p.eat("to")
		p.eat("npc")
		p.ident(s, KindNpcID, "npc_id")
		p.finish(s)
	case "take":
		s := p.begin(n, KindEvtTakeItem)
		p.advance()
		p.eat("item")
		p.ident(s, KindItemID, "item_id")
		p.finish(s)
	case "drop":
		s := p.begin(n, KindEvtDropItem)
		p.advance()
		p.eat("item")
		p.ident(s, KindItemID, "item_id")
		p.finish(s)
	case "use":
		s := p.begin(n, KindEvtUseItem)
		p.advance()
		p.eat("item")
		p.ident(s, KindItemID, "item_id")
		p.finish(s)
	default:
		// missing condition before a block: leave the brace for the caller
		if p.at(tokLBrace) {
			return
		}
		p.errorToEOL(n)
	}
}

func (p *parser) parseFlagOrItemCond(n *Node, flagKind, itemKind string) {
	switch p.curText() {
	case "flag":
		s := p.begin(n, flagKind)
		p.advance()
		p.ident(s, KindFlagName, "flag")
		p.finish(s)
	case "item":
		s := p.begin(n, itemKind)
		p.advance()
		p.ident(s, KindItemID, "item_id")
		p.finish(s)
	default:
		if p.at(tokLBrace) {
			return
		}
		p.errorToEOL(n)
	}
}

func (p *parser) parseAction(n *Node) {
	switch p.curText() {
	case "add":
		p.advance()
		switch {
		case p.eat("seq"):
			s := p.begin(n, KindActionAddSeq)
			p.eat("flag")
			p.ident(s, KindFlagName, "flag_name")
			if p.eat("limit") {
				p.number(s, "limit")
			}
			p.finish(s)
		case p.eat("flag"):
			s := p.begin(n, KindActionAddFlag)
			p.ident(s, KindFlagName, "flag")
			p.finish(s)
		default:
			p.errorToEOL(n)
		}
	case "reset":
		s := p.begin(n, KindActionResetFlag)
		p.advance()
		p.eat("flag")
		p.ident(s, KindFlagName, "flag")
		p.finish(s)
	case "remove":
		s := p.begin(n, KindActionRemoveFlag)
		p.advance()
		p.eat("flag")
		p.ident(s, KindFlagName, "flag")
		p.finish(s)
	case "advance":
		s := p.begin(n, KindActionAdvance)
		p.advance()
		p.eat("flag")
		p.ident(s, KindFlagName, "flag")
		p.finish(s)
	case "show":
		s := p.begin(n, KindActionShow)
		p.advance()
		p.str(s, "text")
		p.finish(s)
	case "spawn":
		p.advance()
		switch {
		case p.eat("item"):
			s := p.begin(n, KindActionSpawnItem)
			p.ident(s, KindItemID, "item_id")
			p.eat("into")
			p.eat("room")
			p.ident(s, KindRoomID, "room")
			p.finish(s)
		case p.eat("npc"):
			s := p.begin(n, KindActionSpawnNpc)
			p.ident(s, KindNpcID, "npc_id")
			p.eat("into")
			p.eat("room")
			p.ident(s, KindRoomID, "room")
			p.finish(s)
		default:
			p.errorToEOL(n)
		}
	case "push":
		s := p.begin(n, KindActionPushPlayer)
		p.advance()
		p.eat("player")
		p.eat("to")
		p.eat("room")
		p.ident(s, KindRoomID, "room")
		p.finish(s)
	case "lock":
		p.parseExitAction(n, KindActionLockExit)
	case "unlock":
		p.parseExitAction(n, KindActionUnlockExit)
	case "schedule":
		s := p.begin(n, KindActionSchedule)
		p.advance()
		p.eat("in")
		p.number(s, "delay")
		if p.eat("note") {
			p.str(s, "note")
		}
		p.parseBlock(s, p.parseTriggerStmt)
		p.finish(s)
	default:
		if p.at(tokLBrace) {
			return
		}
		p.errorToEOL(n)
	}
}

func (p *parser) parseExitAction(n *Node, kind string) {
	s := p.begin(n, kind)
	p.advance() // lock / unlock
	p.eat("exit")
	p.ident(s, KindRoomID, "from_room")
	if p.at(tokArrow) {
		p.advance()
	}
	p.ident(s, KindRoomID, "to_room")
	p.finish(s)
}

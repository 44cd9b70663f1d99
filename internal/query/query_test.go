package query_test

import (
	"testing"

	"amblels/internal/query"
	"amblels/internal/symbol"
	"amblels/internal/syntax"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const world = `
room cell {
	exit north -> hallway
}

room hallway {
	exit south -> cell
}

item rusty_key {
	location room cell
}

npc guard {
	location room hallway
}

set wing {
	cell
	hallway
}

player_start room cell

trigger "wake" when enter room hallway and has item rusty_key {
	do add flag guard_alert
	do spawn npc guard into room cell
}

trigger "calm" when has flag guard_alert {
	do remove flag guard_alert
}
`

func names(caps []query.Capture) []string {
	out := make([]string, len(caps))
	for i, c := range caps {
		out[i] = c.Name
	}
	return out
}

func TestRoomDefinitions(t *testing.T) {
	tree := syntax.Parse([]byte(world))
	caps := query.New(symbol.Room, query.Definition).Run(tree)
	assert.Equal(t, []string{"cell", "hallway"}, names(caps))
}

func TestRoomReferences(t *testing.T) {
	tree := syntax.Parse([]byte(world))
	caps := query.New(symbol.Room, query.Reference).Run(tree)
	// exit dests, item location, npc location, set members, player_start,
	// enter room, spawn destination
	assert.Equal(t,
		[]string{"hallway", "cell", "cell", "hallway", "cell", "hallway", "cell", "hallway", "cell"},
		names(caps))
}

func TestFlagDefinitionsAreAddSites(t *testing.T) {
	tree := syntax.Parse([]byte(world))
	defs := query.New(symbol.Flag, query.Definition).Run(tree)
	assert.Equal(t, []string{"guard_alert"}, names(defs))

	refs := query.New(symbol.Flag, query.Reference).Run(tree)
	assert.Equal(t, []string{"guard_alert", "guard_alert"}, names(refs))
}

func TestNpcQueries(t *testing.T) {
	tree := syntax.Parse([]byte(world))
	defs := query.New(symbol.Npc, query.Definition).Run(tree)
	assert.Equal(t, []string{"guard"}, names(defs))

	refs := query.New(symbol.Npc, query.Reference).Run(tree)
	assert.Equal(t, []string{"guard"}, names(refs))
}

func TestSetQueries(t *testing.T) {
	tree := syntax.Parse([]byte(world))
	defs := query.New(symbol.Set, query.Definition).Run(tree)
	assert.Equal(t, []string{"wing"}, names(defs))
}

// Identifiers inside ERROR regions never match.
func TestErrorRegionsExcluded(t *testing.T) {
	src := `
room cell {
	bogus hallway keyword
	exit north -> hallway
}
`
	tree := syntax.Parse([]byte(src))
	refs := query.New(symbol.Room, query.Reference).Run(tree)
	assert.Equal(t, []string{"hallway"}, names(refs))
}

func TestKindOfIdent(t *testing.T) {
	tree := syntax.Parse([]byte(world))
	caps := query.New(symbol.Item, query.Reference).Run(tree)
	require.NotEmpty(t, caps)
	kind, ok := query.KindOfIdent(caps[0].Node)
	require.True(t, ok)
	assert.Equal(t, symbol.Item, kind)
}

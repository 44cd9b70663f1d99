package analysis_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"amblels/internal/analysis"
	"amblels/internal/config"
	"amblels/internal/symbol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"go.lsp.dev/uri"
)

const baseWorld = `room cell {
	name "Holding Cell"
	desc "A damp stone cell."
	exit north -> hallway
}

room hallway {
	name "Hallway"
	desc "A torchlit hallway."
	exit south -> cell
}

item rusty_key {
	name "Rusty Key"
	desc "Bent but usable."
	portable
	location room cell
}

npc guard {
	name "Guard"
	desc "Half asleep."
	location room hallway
	state idle
}

player_start room cell

trigger "wake guard" when enter room hallway {
	do add flag guard_alert
	do show "The guard stirs."
}

trigger "calm" when has flag guard_alert {
	do remove flag guard_alert
}
`

type fixture struct {
	t   *testing.T
	ws  *analysis.Workspace
	dir string
}

// newFixture writes the given files into a temp directory and opens the
// first named one, which also scans the directory.
func newFixture(t *testing.T, files map[string]string, open string) *fixture {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	f := &fixture{t: t, ws: analysis.NewWorkspace(config.Default()), dir: dir}
	f.ws.DidOpen(f.uri(open), files[open])
	return f
}

func (f *fixture) uri(name string) string {
	return string(uri.File(filepath.Join(f.dir, name)))
}

// posOf locates the first occurrence of needle in the tracked document
// and returns the position delta bytes into it.
func (f *fixture) posOf(name, needle string, delta int) protocol.Position {
	f.t.Helper()
	doc, ok := f.ws.Document(f.uri(name))
	require.True(f.t, ok, "document %s not tracked", name)
	idx := strings.Index(doc.Doc.Text(), needle)
	require.GreaterOrEqual(f.t, idx, 0, "needle %q not found in %s", needle, name)
	return doc.Doc.PositionAt(idx + delta)
}

func messages(diags []protocol.Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.Message
	}
	return out
}

func TestGotoDefinitionSameFile(t *testing.T) {
	f := newFixture(t, map[string]string{"a.amble": baseWorld}, "a.amble")

	loc, ok := f.ws.Definition(f.uri("a.amble"), f.posOf("a.amble", "north -> hallway", len("north -> ")))
	require.True(t, ok)
	assert.Equal(t, f.uri("a.amble"), loc.URI)
	assert.Equal(t, f.posOf("a.amble", "room hallway", len("room ")), loc.Range.Start)
}

func TestGotoDefinitionAcrossFiles(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.amble": baseWorld,
		"b.amble": "trigger \"open\" when in room cell {\n\tdo push player to room hallway\n}\n",
	}, "a.amble")

	loc, ok := f.ws.Definition(f.uri("b.amble"), f.posOf("b.amble", "in room cell", len("in room ")))
	require.True(t, ok)
	assert.Equal(t, f.uri("a.amble"), loc.URI)
}

func TestReferencesIncludeDeclaration(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.amble": baseWorld,
		"b.amble": "trigger \"open\" when in room cell {\n\tdo push player to room hallway\n}\n",
	}, "a.amble")

	defPos := f.posOf("a.amble", "room cell", len("room "))
	// exit dest, item location, player_start, b.amble condition
	refs := f.ws.References(f.uri("a.amble"), defPos, false)
	assert.Len(t, refs, 4)

	withDecl := f.ws.References(f.uri("a.amble"), defPos, true)
	require.Len(t, withDecl, 5)
	assert.Equal(t, defPos, withDecl[0].Range.Start)
}

// When the winning definition disappears, navigation moves to the
// surviving one without a directory rescan.
func TestFirstWinsAndPromotion(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.amble": "room foo {\n\tname \"A\"\n\tdesc \"a\"\n}\n",
		"b.amble": "room foo {\n\tname \"B\"\n\tdesc \"b\"\n}\n\nplayer_start room foo\n",
	}, "a.amble")

	refPos := f.posOf("b.amble", "player_start room foo", len("player_start room "))
	loc, ok := f.ws.Definition(f.uri("b.amble"), refPos)
	require.True(t, ok)
	assert.Equal(t, f.uri("a.amble"), loc.URI)

	f.ws.DidChange(f.uri("a.amble"), "// emptied\n")

	loc, ok = f.ws.Definition(f.uri("b.amble"), refPos)
	require.True(t, ok)
	assert.Equal(t, f.uri("b.amble"), loc.URI)
}

// Editing the file that owns the winning definition must not move
// navigation to a sibling's duplicate while the file still defines the
// name.
func TestEditingWinnerKeepsPrecedence(t *testing.T) {
	aSrc := "room foo {\n\tname \"A\"\n\tdesc \"a\"\n}\n\nplayer_start room foo\n"
	f := newFixture(t, map[string]string{
		"a.amble": aSrc,
		"b.amble": "room foo {\n\tname \"B\"\n\tdesc \"b\"\n}\n",
	}, "a.amble")

	refPos := f.posOf("a.amble", "player_start room foo", len("player_start room "))
	loc, ok := f.ws.Definition(f.uri("a.amble"), refPos)
	require.True(t, ok)
	assert.Equal(t, f.uri("a.amble"), loc.URI)

	f.ws.DidChange(f.uri("a.amble"), aSrc+"// touched\n")

	loc, ok = f.ws.Definition(f.uri("a.amble"), refPos)
	require.True(t, ok)
	assert.Equal(t, f.uri("a.amble"), loc.URI)
}

// With the same flag added at two action sites, navigation goes to the
// earlier one.
func TestFlagDefinitionIsEarliestAddSite(t *testing.T) {
	world := `room cell {
	name "C"
	desc "c"
}

player_start room cell

trigger "early" when enter room cell {
	do add flag q1
}

trigger "late" when always {
	do add flag q1
}

trigger "check" when has flag q1 {
	do show "done"
}
`
	f := newFixture(t, map[string]string{"a.amble": world}, "a.amble")

	loc, ok := f.ws.Definition(f.uri("a.amble"), f.posOf("a.amble", "has flag q1", len("has flag ")))
	require.True(t, ok)
	assert.Equal(t, f.posOf("a.amble", "add flag q1", len("add flag ")), loc.Range.Start)
}

func TestDefinitionDisappearsAfterRemoval(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.amble": "room solo {\n\tname \"S\"\n\tdesc \"s\"\n}\n\nplayer_start room solo\n",
	}, "a.amble")

	_, ok := f.ws.Store().LookupDefinition(symbol.Room, "solo")
	require.True(t, ok)

	f.ws.DidChange(f.uri("a.amble"), "player_start room solo\n")

	_, ok = f.ws.Store().LookupDefinition(symbol.Room, "solo")
	assert.False(t, ok)
	assert.Contains(t, messages(f.ws.Diagnostics(f.uri("a.amble"))), "Undefined Room: 'solo'")
}

func TestUndefinedNpcDiagnostic(t *testing.T) {
	world := `room plaza {
	name "Plaza"
	desc "Wide and empty."
}

player_start room plaza

trigger "greet" when talk to npc merchant {
	do show "Hello."
}
`
	f := newFixture(t, map[string]string{"a.amble": world}, "a.amble")

	msgs := messages(f.ws.Diagnostics(f.uri("a.amble")))
	assert.Contains(t, msgs, "Undefined Npc: 'merchant'")

	withNpc := world + "\nnpc merchant {\n\tname \"Merchant\"\n\tdesc \"Busy.\"\n\tlocation room plaza\n\tstate idle\n}\n"
	f.ws.DidChange(f.uri("a.amble"), withNpc)

	msgs = messages(f.ws.Diagnostics(f.uri("a.amble")))
	assert.NotContains(t, msgs, "Undefined Npc: 'merchant'")
}

func TestDuplicateRoomDiagnostic(t *testing.T) {
	world := `room cell {
	name "One"
	desc "first"
}

room cell {
	name "Two"
	desc "second"
}

player_start room cell
`
	f := newFixture(t, map[string]string{"a.amble": world}, "a.amble")

	var count int
	for _, msg := range messages(f.ws.Diagnostics(f.uri("a.amble"))) {
		if msg == "Duplicate Room definition: 'cell'" {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

// Flags defined by multiple triggers are normal authoring style, so the
// duplicate report is a hint, not an error.
func TestDuplicateFlagIsHint(t *testing.T) {
	world := `room cell {
	name "Cell"
	desc "small"
}

player_start room cell

trigger "t1" when enter room cell {
	do add flag seen
}

trigger "t2" when always {
	do add flag seen
}

trigger "t3" when has flag seen {
	do show "again"
}
`
	f := newFixture(t, map[string]string{"a.amble": world}, "a.amble")

	var found bool
	for _, d := range f.ws.Diagnostics(f.uri("a.amble")) {
		if d.Message == "Flag 'seen' is defined in multiple triggers" {
			found = true
			require.NotNil(t, d.Severity)
			assert.Equal(t, protocol.DiagnosticSeverityHint, *d.Severity)
		}
	}
	assert.True(t, found)
}

func TestUnusedDefinitionHint(t *testing.T) {
	f := newFixture(t, map[string]string{"a.amble": baseWorld}, "a.amble")
	msgs := messages(f.ws.Diagnostics(f.uri("a.amble")))
	assert.Contains(t, msgs, "Item 'rusty_key' is never referenced")
	assert.NotContains(t, msgs, "Room 'cell' is never referenced")
}

func TestMissingMetadataWarnings(t *testing.T) {
	world := `room bare {
}

item thing {
}

npc ghost {
}

player_start room bare
`
	f := newFixture(t, map[string]string{"a.amble": world}, "a.amble")
	msgs := messages(f.ws.Diagnostics(f.uri("a.amble")))
	assert.Contains(t, msgs, "Room 'bare' has no name")
	assert.Contains(t, msgs, "Room 'bare' has no description")
	assert.Contains(t, msgs, "Item 'thing' has no location")
	assert.Contains(t, msgs, "Item 'thing' has no portability")
	assert.Contains(t, msgs, "Npc 'ghost' has no location")
	assert.Contains(t, msgs, "Npc 'ghost' has no state")
}

func TestPlayerStartMissing(t *testing.T) {
	f := newFixture(t, map[string]string{"a.amble": "room cell {\n\tname \"C\"\n\tdesc \"c\"\n}\n"}, "a.amble")
	msgs := messages(f.ws.Diagnostics(f.uri("a.amble")))
	assert.Contains(t, msgs, "No player_start defined in this world")
}

func TestPlayerStartMultiple(t *testing.T) {
	world := `room cell {
	name "C"
	desc "c"
}

player_start room cell
player_start room cell
`
	f := newFixture(t, map[string]string{"a.amble": world}, "a.amble")
	var count int
	for _, msg := range messages(f.ws.Diagnostics(f.uri("a.amble"))) {
		if msg == "Multiple player_start declarations; only one is allowed" {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestSequenceFlagDiagnostics(t *testing.T) {
	world := `room cell {
	name "C"
	desc "c"
}

player_start room cell

trigger "t0" when always {
	do add flag plain
	do add seq flag steps limit 2
}

trigger "t1" when has flag steps#5 {
	do show "x"
}

trigger "t2" when has flag plain#1 and has flag steps#1 {
	do show "y"
}
`
	f := newFixture(t, map[string]string{"a.amble": world}, "a.amble")
	msgs := messages(f.ws.Diagnostics(f.uri("a.amble")))
	assert.Contains(t, msgs, "Sequence index 5 is out of range for flag 'steps' (limit 2)")
	assert.Contains(t, msgs, "Flag 'plain' is not a sequence flag")
	assert.NotContains(t, msgs, "Sequence index 1 is out of range for flag 'steps' (limit 2)")
}

// A set name is usable wherever a room is expected.
func TestSetSatisfiesRoomReference(t *testing.T) {
	world := `room cell {
	name "C"
	desc "c"
}

set wing {
	cell
}

player_start room cell

trigger "t" when enter room wing {
	do show "in the wing"
}
`
	f := newFixture(t, map[string]string{"a.amble": world}, "a.amble")

	msgs := messages(f.ws.Diagnostics(f.uri("a.amble")))
	assert.NotContains(t, msgs, "Undefined Room: 'wing'")

	loc, ok := f.ws.Definition(f.uri("a.amble"), f.posOf("a.amble", "enter room wing", len("enter room ")))
	require.True(t, ok)
	assert.Equal(t, f.posOf("a.amble", "set wing", len("set ")), loc.Range.Start)
}

func TestCompletionAfterArrow(t *testing.T) {
	world := "room cell {\n\tname \"C\"\n\tdesc \"c\"\n\texit east -> \n}\n\nroom yard {\n\tname \"Y\"\n\tdesc \"y\"\n}\n\nplayer_start room cell\n"
	f := newFixture(t, map[string]string{"a.amble": world}, "a.amble")

	pos := f.posOf("a.amble", "exit east -> ", len("exit east -> "))
	kind, ok := f.ws.CompletionContext(f.uri("a.amble"), pos)
	require.True(t, ok)
	assert.Equal(t, symbol.Room, kind)

	assert.Equal(t, []string{"cell", "yard"}, f.ws.Completion(f.uri("a.amble"), pos))
}

func TestCompletionFlagContext(t *testing.T) {
	world := `room cell {
	name "C"
	desc "c"
}

player_start room cell

trigger "t0" when always {
	do add flag started
}

trigger "t1" when has flag started {
	do show "x"
}
`
	f := newFixture(t, map[string]string{"a.amble": world}, "a.amble")

	pos := f.posOf("a.amble", "has flag started", len("has flag st"))
	kind, ok := f.ws.CompletionContext(f.uri("a.amble"), pos)
	require.True(t, ok)
	assert.Equal(t, symbol.Flag, kind)
	assert.Equal(t, []string{"started"}, f.ws.Completion(f.uri("a.amble"), pos))
}

func TestCompletionNoContextInStrings(t *testing.T) {
	f := newFixture(t, map[string]string{"a.amble": baseWorld}, "a.amble")
	pos := f.posOf("a.amble", "Holding Cell", len("Hold"))
	_, ok := f.ws.CompletionContext(f.uri("a.amble"), pos)
	assert.False(t, ok)
}

func TestCompletionSpawnSlots(t *testing.T) {
	world := `room cell {
	name "C"
	desc "c"
}

npc guard {
	name "G"
	desc "g"
	location room cell
	state idle
}

player_start room cell

trigger "t" when always {
	do spawn npc guard into room cell
}
`
	f := newFixture(t, map[string]string{"a.amble": world}, "a.amble")

	kind, ok := f.ws.CompletionContext(f.uri("a.amble"), f.posOf("a.amble", "spawn npc guard", len("spawn npc gu")))
	require.True(t, ok)
	assert.Equal(t, symbol.Npc, kind)

	kind, ok = f.ws.CompletionContext(f.uri("a.amble"), f.posOf("a.amble", "into room cell\n}", len("into room ce")))
	require.True(t, ok)
	assert.Equal(t, symbol.Room, kind)
}

func TestHoverRoom(t *testing.T) {
	f := newFixture(t, map[string]string{"a.amble": baseWorld}, "a.amble")
	card, ok := f.ws.Hover(f.uri("a.amble"), f.posOf("a.amble", "north -> hallway", len("north -> ")))
	require.True(t, ok)
	assert.Contains(t, card, "**Room** `hallway`")
	assert.Contains(t, card, "Hallway")
	assert.Contains(t, card, "Exits: cell")
}

func TestHoverFlag(t *testing.T) {
	f := newFixture(t, map[string]string{"a.amble": baseWorld}, "a.amble")
	card, ok := f.ws.Hover(f.uri("a.amble"), f.posOf("a.amble", "has flag guard_alert", len("has flag ")))
	require.True(t, ok)
	assert.Contains(t, card, "**Flag** `guard_alert`")
	assert.Contains(t, card, `Defined in trigger "wake guard"`)
}

// Hover descriptions truncate at 100 characters, counting runes rather
// than bytes.
func TestHoverTruncatesLongDescriptions(t *testing.T) {
	desc := strings.Repeat("é", 120)
	world := "room cell {\n\tname \"C\"\n\tdesc \"" + desc + "\"\n}\n\nplayer_start room cell\n"
	f := newFixture(t, map[string]string{"a.amble": world}, "a.amble")

	card, ok := f.ws.Hover(f.uri("a.amble"), f.posOf("a.amble", "player_start room cell", len("player_start room ")))
	require.True(t, ok)
	assert.Contains(t, card, strings.Repeat("é", 100)+"...")
	assert.NotContains(t, card, strings.Repeat("é", 101))
}

func TestRenameFlagKeepsSequenceSuffix(t *testing.T) {
	world := `room cell {
	name "C"
	desc "c"
}

player_start room cell

trigger "t0" when always {
	do add seq flag quest limit 3
}

trigger "t1" when has flag quest#2 {
	do advance flag quest
}
`
	f := newFixture(t, map[string]string{"a.amble": world}, "a.amble")

	edits, ok := f.ws.Rename(f.uri("a.amble"), f.posOf("a.amble", "seq flag quest", len("seq flag ")), "journey")
	require.True(t, ok)
	list := edits[f.uri("a.amble")]
	require.Len(t, list, 3)

	// the quest#2 site only renames the 5 characters of the base name
	var narrowed bool
	seqPos := f.posOf("a.amble", "quest#2", 0)
	for _, e := range list {
		if e.Range.Start == seqPos {
			narrowed = true
			assert.EqualValues(t, 5, e.Range.End.Character-e.Range.Start.Character)
		}
		assert.Equal(t, "journey", e.NewText)
	}
	assert.True(t, narrowed)
}

// A sibling's save triggers a directory scan, but an open document's
// in-memory buffer stays authoritative over its stale on-disk content.
func TestDirectoryScanSkipsOpenDocuments(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.amble": "room disk_room {\n\tname \"D\"\n\tdesc \"d\"\n}\n",
		"b.amble": "room other {\n\tname \"O\"\n\tdesc \"o\"\n}\n",
	}, "a.amble")

	// unsaved edit: the buffer now defines buffer_room, the disk still
	// holds disk_room
	f.ws.DidChange(f.uri("a.amble"), "room buffer_room {\n\tname \"B\"\n\tdesc \"b\"\n}\n")

	f.ws.DidSave(f.uri("b.amble"))

	_, ok := f.ws.Store().LookupDefinition(symbol.Room, "buffer_room")
	assert.True(t, ok)
	_, ok = f.ws.Store().LookupDefinition(symbol.Room, "disk_room")
	assert.False(t, ok)
}

func TestFormatReindents(t *testing.T) {
	messy := "room cell {\n\t\tname \"Cell\"   \ndesc \"Deep { nested } braces.\"\n  exit north -> hallway\n\t}\n\nroom hallway {\nname \"Hall\"\n}\n"
	f := newFixture(t, map[string]string{"a.amble": messy}, "a.amble")

	edits := f.ws.FormatEdits(f.uri("a.amble"))
	require.Len(t, edits, 1)

	want := "room cell {\n" +
		"    name \"Cell\"\n" +
		"    desc \"Deep { nested } braces.\"\n" +
		"    exit north -> hallway\n" +
		"}\n" +
		"\n" +
		"room hallway {\n" +
		"    name \"Hall\"\n" +
		"}\n"
	assert.Equal(t, want, edits[0].NewText)
}

func TestFormatAlreadyFormatted(t *testing.T) {
	clean := "room cell {\n    name \"Cell\"\n    desc \"A cell.\"\n}\n"
	f := newFixture(t, map[string]string{"a.amble": clean}, "a.amble")
	assert.Empty(t, f.ws.FormatEdits(f.uri("a.amble")))
}

func TestFormatIgnoresBracesInComments(t *testing.T) {
	src := "// opening { here\nroom cell {\nname \"C\"\n}\n"
	f := newFixture(t, map[string]string{"a.amble": src}, "a.amble")

	edits := f.ws.FormatEdits(f.uri("a.amble"))
	require.Len(t, edits, 1)
	assert.Equal(t, "// opening { here\nroom cell {\n    name \"C\"\n}\n", edits[0].NewText)
}

func TestDidCloseKeepsIndex(t *testing.T) {
	f := newFixture(t, map[string]string{"a.amble": baseWorld}, "a.amble")
	f.ws.DidClose(f.uri("a.amble"))

	_, ok := f.ws.Store().LookupDefinition(symbol.Room, "cell")
	assert.True(t, ok)
	assert.Empty(t, f.ws.OpenDocuments())
}

func TestRecursiveScan(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.amble"),
		[]byte("room cell {\n\tname \"C\"\n\tdesc \"c\"\n}\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.amble"),
		[]byte("room yard {\n\tname \"Y\"\n\tdesc \"y\"\n}\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "c.amble"),
		[]byte("room hidden {\n}\n"), 0644))

	cfg := config.Default()
	cfg.Scan.Recursive = true
	ws := analysis.NewWorkspace(cfg)
	ws.ScanDirectory(dir)

	_, ok := ws.Store().LookupDefinition(symbol.Room, "cell")
	assert.True(t, ok)
	_, ok = ws.Store().LookupDefinition(symbol.Room, "yard")
	assert.True(t, ok)
	_, ok = ws.Store().LookupDefinition(symbol.Room, "hidden")
	assert.False(t, ok)
}

func TestNonRecursiveScanIsSingleDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.amble"),
		[]byte("room cell {\n\tname \"C\"\n\tdesc \"c\"\n}\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.amble"),
		[]byte("room yard {\n\tname \"Y\"\n\tdesc \"y\"\n}\n"), 0644))

	ws := analysis.NewWorkspace(config.Default())
	ws.ScanDirectory(dir)

	_, ok := ws.Store().LookupDefinition(symbol.Room, "cell")
	assert.True(t, ok)
	_, ok = ws.Store().LookupDefinition(symbol.Room, "yard")
	assert.False(t, ok)
}

package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"amblels/internal/symbol"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

const diagnosticSource = "amblels"

// Diagnostics computes the full diagnostic set for one file against the
// current project-wide index: undefined references, duplicate and unused
// definitions, missing metadata, player start problems, and sequence
// flag misuse.
func (w *Workspace) Diagnostics(uriStr string) []protocol.Diagnostic {
	var out []protocol.Diagnostic
	out = append(out, w.undefinedReferences(uriStr)...)
	out = append(out, w.duplicateDefinitions(uriStr)...)
	out = append(out, w.unusedDefinitions(uriStr)...)
	out = append(out, w.missingMetadata(uriStr)...)
	out = append(out, w.playerStartProblems(uriStr)...)
	out = append(out, w.sequenceFlagProblems(uriStr)...)
	if out == nil {
		out = []protocol.Diagnostic{}
	}
	return out
}

func (w *Workspace) undefinedReferences(uriStr string) []protocol.Diagnostic {
	var out []protocol.Diagnostic
	for _, kind := range symbol.Kinds {
		kind := kind
		w.store.EachReference(kind, func(name string, refs []symbol.Reference) {
			if w.defined(kind, name) {
				return
			}
			for _, ref := range refs {
				if ref.Location.URI != uriStr {
					continue
				}
				out = append(out, diag(ref.Location.Range, protocol.DiagnosticSeverityError,
					fmt.Sprintf("Undefined %s: '%s'", kind, ref.RawName)))
			}
		})
	}
	return out
}

// defined reports whether a name resolves for the kind. Room references
// also accept a set of that name.
func (w *Workspace) defined(kind symbol.Kind, name string) bool {
	if _, ok := w.store.LookupDefinition(kind, name); ok {
		return true
	}
	if kind == symbol.Room {
		_, ok := w.store.LookupDefinition(symbol.Set, name)
		return ok
	}
	return false
}

func (w *Workspace) duplicateDefinitions(uriStr string) []protocol.Diagnostic {
	var out []protocol.Diagnostic
	for _, kind := range symbol.Kinds {
		kind := kind
		w.store.EachDuplicated(kind, func(name string, primary symbol.Definition, dups []symbol.Definition) {
			sites := append([]symbol.Definition{primary}, dups...)
			for _, site := range sites {
				if site.Location.URI != uriStr {
					continue
				}
				if kind == symbol.Flag {
					out = append(out, diag(site.Location.Range, protocol.DiagnosticSeverityHint,
						fmt.Sprintf("Flag '%s' is defined in multiple triggers", name)))
					continue
				}
				out = append(out, diag(site.Location.Range, protocol.DiagnosticSeverityError,
					fmt.Sprintf("Duplicate %s definition: '%s'", kind, name)))
			}
		})
	}
	return out
}

func (w *Workspace) unusedDefinitions(uriStr string) []protocol.Diagnostic {
	var out []protocol.Diagnostic
	for _, kind := range symbol.Kinds {
		kind := kind
		w.store.EachDefinition(kind, func(name string, def symbol.Definition) {
			if def.Location.URI != uriStr {
				return
			}
			if len(w.store.LookupReferences(kind, name, false)) > 0 {
				return
			}
			out = append(out, diag(def.Location.Range, protocol.DiagnosticSeverityHint,
				fmt.Sprintf("%s '%s' is never referenced", kind, name)))
		})
	}
	return out
}

// missingMetadata warns about definitions lacking the detail a playable
// world needs. Only declarations in this file are reported.
func (w *Workspace) missingMetadata(uriStr string) []protocol.Diagnostic {
	var out []protocol.Diagnostic

	warn := func(rng protocol.Range, msg string) {
		out = append(out, diag(rng, protocol.DiagnosticSeverityWarning, msg))
	}

	w.store.EachDefinition(symbol.Room, func(name string, def symbol.Definition) {
		if def.Location.URI != uriStr {
			return
		}
		if def.Metadata.DisplayName == "" {
			warn(def.Location.Range, fmt.Sprintf("Room '%s' has no name", name))
		}
		if def.Metadata.Description == "" {
			warn(def.Location.Range, fmt.Sprintf("Room '%s' has no description", name))
		}
	})

	w.store.EachDefinition(symbol.Item, func(name string, def symbol.Definition) {
		if def.Location.URI != uriStr {
			return
		}
		if def.Metadata.ItemLocation == "" {
			warn(def.Location.Range, fmt.Sprintf("Item '%s' has no location", name))
		}
		if !def.Metadata.HasPortability {
			warn(def.Location.Range, fmt.Sprintf("Item '%s' has no portability", name))
		}
	})

	w.store.EachDefinition(symbol.Npc, func(name string, def symbol.Definition) {
		if def.Location.URI != uriStr {
			return
		}
		if def.Metadata.NpcLocation == "" {
			warn(def.Location.Range, fmt.Sprintf("Npc '%s' has no location", name))
		}
		if def.Metadata.NpcState == "" {
			warn(def.Location.Range, fmt.Sprintf("Npc '%s' has no state", name))
		}
	})

	return out
}

// playerStartProblems checks the workspace-wide player start count. No
// start at all is reported at the top of every file; extra starts are
// reported at each declaration site.
func (w *Workspace) playerStartProblems(uriStr string) []protocol.Diagnostic {
	w.mu.RLock()
	var total int
	var mine []playerStart
	for _, starts := range w.playerStart {
		total += len(starts)
	}
	mine = append(mine, w.playerStart[uriStr]...)
	w.mu.RUnlock()

	switch {
	case total == 0:
		return []protocol.Diagnostic{diag(protocol.Range{}, protocol.DiagnosticSeverityWarning,
			"No player_start defined in this world")}
	case total > 1:
		var out []protocol.Diagnostic
		for _, ps := range mine {
			out = append(out, diag(ps.rng, protocol.DiagnosticSeverityWarning,
				"Multiple player_start declarations; only one is allowed"))
		}
		return out
	}
	return nil
}

// sequenceFlagProblems validates "#N" references against the flag's
// declared sequence limit.
func (w *Workspace) sequenceFlagProblems(uriStr string) []protocol.Diagnostic {
	var out []protocol.Diagnostic
	w.store.EachReference(symbol.Flag, func(name string, refs []symbol.Reference) {
		def, hasDef := w.store.LookupDefinition(symbol.Flag, name)
		for _, ref := range refs {
			if ref.Location.URI != uriStr {
				continue
			}
			idx, isSeq := sequenceIndex(ref.RawName)
			if !isSeq || !hasDef {
				continue
			}
			if !def.Metadata.IsSequence {
				out = append(out, diag(ref.Location.Range, protocol.DiagnosticSeverityWarning,
					fmt.Sprintf("Flag '%s' is not a sequence flag", name)))
				continue
			}
			if idx >= def.Metadata.SequenceLimit {
				out = append(out, diag(ref.Location.Range, protocol.DiagnosticSeverityWarning,
					fmt.Sprintf("Sequence index %d is out of range for flag '%s' (limit %d)",
						idx, name, def.Metadata.SequenceLimit)))
			}
		}
	})
	return out
}

func sequenceIndex(raw string) (int64, bool) {
	_, suffix, found := strings.Cut(raw, "#")
	if !found {
		return 0, false
	}
	idx, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil {
		return 0, false
	}
	return idx, true
}

func diag(rng protocol.Range, severity protocol.DiagnosticSeverity, message string) protocol.Diagnostic {
	src := diagnosticSource
	sev := severity
	return protocol.Diagnostic{
		Range:    rng,
		Severity: &sev,
		Source:   &src,
		Message:  message,
	}
}

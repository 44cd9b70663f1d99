package symbol

import "sync"

// index holds one kind's definitions and references. Names map to exactly
// one winning definition; later definitions of the same name are kept
// aside as duplicates so diagnostics can report them without disturbing
// navigation.
type index struct {
	defs       map[string]Definition
	duplicates map[string][]Definition
	order      []string
	refs       map[string][]Reference
}

func newIndex() *index {
	return &index{
		defs:       make(map[string]Definition),
		duplicates: make(map[string][]Definition),
		refs:       make(map[string][]Reference),
	}
}

// ScannedDefinition and ScannedReference are one file's scan output,
// applied to the store as a single batch.
type ScannedDefinition struct {
	Kind       Kind
	Name       string
	Definition Definition
}

type ScannedReference struct {
	Kind      Kind
	Name      string
	Reference Reference
}

// FileSymbols is everything one scan of one file contributed.
type FileSymbols struct {
	Definitions []ScannedDefinition
	References  []ScannedReference
}

// Store is the project-wide symbol index: one definition map and
// reference multimap per kind, guarded together so a per-file replace is
// indivisible from the perspective of concurrent lookups.
type Store struct {
	mu      sync.RWMutex
	indexes map[Kind]*index
}

func NewStore() *Store {
	s := &Store{indexes: make(map[Kind]*index, len(Kinds))}
	for _, k := range Kinds {
		s.indexes[k] = newIndex()
	}
	return s
}

// ReplaceFile atomically drops everything previously attributed to the
// file and inserts the fresh scan results. Lookups never observe the
// intermediate empty state. Duplicates from other files are promoted
// only for names the fresh scan no longer defines, so rescanning the
// winning file never flips precedence to a sibling.
func (s *Store) ReplaceFile(uri string, symbols FileSymbols) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orphans := make(map[Kind][]string, len(s.indexes))
	for kind, idx := range s.indexes {
		orphans[kind] = idx.removeFile(uri)
	}
	for _, d := range symbols.Definitions {
		s.indexes[d.Kind].insertDefinition(d.Name, d.Definition)
	}
	for _, r := range symbols.References {
		s.indexes[r.Kind].insertReference(r.Name, r.Reference)
	}
	for kind, names := range orphans {
		s.indexes[kind].promote(names)
	}
}

// ClearFile removes all definitions and references attributed to the file
// across every kind.
func (s *Store) ClearFile(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearFileLocked(uri)
}

func (s *Store) clearFileLocked(uri string) {
	for _, idx := range s.indexes {
		idx.clearFile(uri)
	}
}

// InsertDefinition inserts unless a definition for (kind, name) already
// exists; the first occurrence in scan order wins and later ones are
// retained as duplicates.
func (s *Store) InsertDefinition(kind Kind, name string, def Definition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes[kind].insertDefinition(name, def)
}

// InsertReference appends; references are never deduplicated.
func (s *Store) InsertReference(kind Kind, name string, ref Reference) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes[kind].insertReference(name, ref)
}

func (s *Store) LookupDefinition(kind Kind, name string) (Definition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.indexes[kind].defs[name]
	return def, ok
}

// LookupReferences returns every reference location for (kind, name) in
// insertion order, optionally prefixed with the definition's own location.
func (s *Store) LookupReferences(kind Kind, name string, includeDefinition bool) []Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexes[kind]
	var out []Location
	if includeDefinition {
		if def, ok := idx.defs[name]; ok {
			out = append(out, def.Location)
		}
	}
	for _, ref := range idx.refs[name] {
		out = append(out, ref.Location)
	}
	return out
}

// DefinitionNames returns all defined names of a kind in insertion order.
func (s *Store) DefinitionNames(kind Kind) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.indexes[kind].order))
	copy(out, s.indexes[kind].order)
	return out
}

// EachDefinition visits definitions of a kind in insertion order. The
// callback must not mutate the store.
func (s *Store) EachDefinition(kind Kind, fn func(name string, def Definition)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexes[kind]
	for _, name := range idx.order {
		fn(name, idx.defs[name])
	}
}

// EachReference visits every reference list of a kind. The callback must
// not mutate the store.
func (s *Store) EachReference(kind Kind, fn func(name string, refs []Reference)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for name, refs := range s.indexes[kind].refs {
		if len(refs) > 0 {
			fn(name, refs)
		}
	}
}

// Duplicates returns the losing definitions for (kind, name), if any.
func (s *Store) Duplicates(kind Kind, name string) []Definition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dups := s.indexes[kind].duplicates[name]
	out := make([]Definition, len(dups))
	copy(out, dups)
	return out
}

// EachDuplicated visits every name of a kind that has more than one
// definition, passing the winner and the losers.
func (s *Store) EachDuplicated(kind Kind, fn func(name string, primary Definition, dups []Definition)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexes[kind]
	for _, name := range idx.order {
		if dups := idx.duplicates[name]; len(dups) > 0 {
			fn(name, idx.defs[name], dups)
		}
	}
}

func (idx *index) insertDefinition(name string, def Definition) {
	if _, exists := idx.defs[name]; exists {
		idx.duplicates[name] = append(idx.duplicates[name], def)
		return
	}
	idx.defs[name] = def
	idx.order = append(idx.order, name)
}

func (idx *index) insertReference(name string, ref Reference) {
	idx.refs[name] = append(idx.refs[name], ref)
}

func (idx *index) clearFile(uri string) {
	idx.promote(idx.removeFile(uri))
}

// removeFile drops the file's entries. Names whose winning definition
// was removed but that still have duplicates elsewhere are returned
// unpromoted, so a rescan of the winning file can re-claim its names
// before any sibling's duplicate takes over.
func (idx *index) removeFile(uri string) []string {
	for name, dups := range idx.duplicates {
		kept := dups[:0]
		for _, d := range dups {
			if d.Location.URI != uri {
				kept = append(kept, d)
			}
		}
		if len(kept) == 0 {
			delete(idx.duplicates, name)
		} else {
			idx.duplicates[name] = kept
		}
	}

	var orphans []string
	for name, def := range idx.defs {
		if def.Location.URI != uri {
			continue
		}
		delete(idx.defs, name)
		idx.removeFromOrder(name)
		if len(idx.duplicates[name]) > 0 {
			orphans = append(orphans, name)
		}
	}

	for name, refs := range idx.refs {
		kept := refs[:0]
		for _, r := range refs {
			if r.Location.URI != uri {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			delete(idx.refs, name)
		} else {
			idx.refs[name] = kept
		}
	}
	return orphans
}

// promote installs the earliest surviving duplicate as winner for each
// name that still has no definition.
func (idx *index) promote(names []string) {
	for _, name := range names {
		if _, exists := idx.defs[name]; exists {
			continue
		}
		dups := idx.duplicates[name]
		if len(dups) == 0 {
			continue
		}
		idx.defs[name] = dups[0]
		idx.order = append(idx.order, name)
		if len(dups) == 1 {
			delete(idx.duplicates, name)
		} else {
			idx.duplicates[name] = dups[1:]
		}
	}
}

func (idx *index) removeFromOrder(name string) {
	for i, n := range idx.order {
		if n == name {
			idx.order = append(idx.order[:i], idx.order[i+1:]...)
			return
		}
	}
}

package symtab

import (
	"slices"
	"sort"
)

// Ref names another entity by identity, with the name used if a stub has to
// be created for it.
type Ref struct {
	ID   string
	Name string
}

// Store maps entity IDs to records. A session owns one top-level Store and
// every structure and method owns nested ones for its members.
//
// A Store is not safe for concurrent use.
type Store struct {
	byID   map[string]Entity
	byName map[string][]string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		byID:   make(map[string]Entity),
		byName: make(map[string][]string),
	}
}

// InstallStub returns the record for id, creating a minimal one without
// source information if none exists.
func (s *Store) InstallStub(id, name string, kind Kind) Entity {
	if e, ok := s.byID[id]; ok {
		return e
	}
	e := newStub(id, name, kind)
	s.byID[id] = e
	s.index(name, id)
	return e
}

// InstallFull installs a fully defined record. An existing stub is upgraded in
// place so holders of the stub observe the full data; an existing full record
// wins and is returned unchanged.
func (s *Store) InstallFull(e Entity) Entity {
	id := e.Sym().ID
	existing, ok := s.byID[id]
	if !ok {
		s.byID[id] = e
		s.index(e.Sym().Name, id)
		return e
	}
	if completeness(e) <= completeness(existing) {
		return existing
	}

	oldName := existing.Sym().Name
	switch ex := existing.(type) {
	case *Structure:
		if full, ok := e.(*Structure); ok {
			stub := *ex
			*ex = *full
			ex.absorb(&stub)
			s.reindex(oldName, ex.Name, id)
			return ex
		}
	case *Method:
		if full, ok := e.(*Method); ok {
			stub := *ex
			*ex = *full
			ex.stub = false
			ex.absorb(&stub)
			s.reindex(oldName, ex.Name, id)
			return ex
		}
	case *Definition:
		if full, ok := e.(*Definition); ok {
			*ex = *full
			ex.stub = false
			s.reindex(oldName, ex.Name, id)
			return ex
		}
	}

	// A stub of another kind carries no data worth keeping.
	s.byID[id] = e
	s.reindex(oldName, e.Sym().Name, id)
	return e
}

// completeness ranks records for upgrades: a bare stub, a stub that at least
// knows its declaration site, a full definition.
func completeness(e Entity) int {
	switch {
	case !e.IsStub():
		return 2
	case !e.Sym().Src.IsZero():
		return 1
	}
	return 0
}

// Lookup returns the record for id.
func (s *Store) Lookup(id string) (Entity, bool) {
	e, ok := s.byID[id]
	return e, ok
}

func (s *Store) Structure(id string) (*Structure, bool) {
	st, ok := s.byID[id].(*Structure)
	return st, ok
}

func (s *Store) Method(id string) (*Method, bool) {
	m, ok := s.byID[id].(*Method)
	return m, ok
}

func (s *Store) Definition(id string) (*Definition, bool) {
	d, ok := s.byID[id].(*Definition)
	return d, ok
}

// LookupName returns every record installed under name, in ID order.
func (s *Store) LookupName(name string) []Entity {
	ids := s.byName[name]
	out := make([]Entity, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.byID[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Reference resolves ref to a structure, creating a stub if the ID is
// unknown. It returns nil when the ID belongs to an entity of another kind.
func (s *Store) Reference(ref Ref) *Structure {
	if ref.ID == "" {
		return nil
	}
	name := ref.Name
	if name == "" {
		name = ref.ID
	}
	st, _ := s.InstallStub(ref.ID, name, KindStructure).(*Structure)
	return st
}

// ResolveTemplate finds the generic definition for a template pattern. The
// ID wins when known; otherwise the name index is searched for a template
// definition, then for any structure of that name, before falling back to a
// stub under ref.ID.
func (s *Store) ResolveTemplate(ref Ref) *Structure {
	if st, ok := s.Structure(ref.ID); ok {
		return st
	}
	if ref.Name != "" {
		var fallback *Structure
		for _, e := range s.LookupName(ref.Name) {
			st, ok := e.(*Structure)
			if !ok {
				continue
			}
			if st.StructureKind == StructureTemplateDefinition {
				return st
			}
			if fallback == nil {
				fallback = st
			}
		}
		if fallback != nil {
			return fallback
		}
	}
	return s.Reference(ref)
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.byID)
}

// IDs returns all IDs in lexical order.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Each calls fn for every record in ID order.
func (s *Store) Each(fn func(Entity)) {
	for _, id := range s.IDs() {
		fn(s.byID[id])
	}
}

// absorb installs every record of other that s does not hold yet.
func (s *Store) absorb(other *Store) {
	if s == nil || other == nil || other == s {
		return
	}
	for _, id := range other.IDs() {
		s.InstallFull(other.byID[id])
	}
}

func (s *Store) index(name, id string) {
	ids := s.byName[name]
	i, found := slices.BinarySearch(ids, id)
	if found {
		return
	}
	s.byName[name] = slices.Insert(ids, i, id)
}

func (s *Store) reindex(oldName, newName, id string) {
	if oldName == newName {
		return
	}
	if ids, ok := s.byName[oldName]; ok {
		if i, found := slices.BinarySearch(ids, id); found {
			ids = slices.Delete(ids, i, i+1)
		}
		if len(ids) == 0 {
			delete(s.byName, oldName)
		} else {
			s.byName[oldName] = ids
		}
	}
	s.index(newName, id)
}

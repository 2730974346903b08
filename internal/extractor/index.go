package extractor

import (
	"strings"

	"archmine/internal/symtab"
)

// index holds what a file needs to know about the rest of its package to
// classify member accesses: field types, method result types and the types
// built by constructor functions.
type index struct {
	fields  map[string]map[string]symtab.Ref
	returns map[string]map[string]symtab.Ref
	ctors   map[string]symtab.Ref
}

func newIndex() *index {
	return &index{
		fields:  make(map[string]map[string]symtab.Ref),
		returns: make(map[string]map[string]symtab.Ref),
		ctors:   make(map[string]symtab.Ref),
	}
}

func (x *index) addField(owner, name string, ref *symtab.Ref) {
	if ref != nil {
		put(x.fields, owner, name, *ref)
	}
}

func (x *index) addReturn(owner, name string, ref *symtab.Ref) {
	if ref != nil {
		put(x.returns, owner, name, *ref)
	}
}

func put(m map[string]map[string]symtab.Ref, owner, name string, ref symtab.Ref) {
	inner, ok := m[owner]
	if !ok {
		inner = make(map[string]symtab.Ref)
		m[owner] = inner
	}
	if _, dup := inner[name]; !dup {
		inner[name] = ref
	}
}

func (x *index) fieldType(owner, name string) *symtab.Ref {
	return lookup(x.fields, owner, name)
}

func (x *index) returnType(owner, name string) *symtab.Ref {
	return lookup(x.returns, owner, name)
}

func lookup(m map[string]map[string]symtab.Ref, owner, name string) *symtab.Ref {
	if ref, ok := m[owner][name]; ok {
		return &ref
	}
	return nil
}

func (x *index) constructed(qualifiedFunc string) *symtab.Ref {
	if ref, ok := x.ctors[qualifiedFunc]; ok {
		return &ref
	}
	return nil
}

// merge copies other into x. Earlier entries win.
func (x *index) merge(other *index) {
	for owner, inner := range other.fields {
		for name, ref := range inner {
			put(x.fields, owner, name, ref)
		}
	}
	for owner, inner := range other.returns {
		for name, ref := range inner {
			put(x.returns, owner, name, ref)
		}
	}
	for fn, ref := range other.ctors {
		if _, dup := x.ctors[fn]; !dup {
			x.ctors[fn] = ref
		}
	}
}

// namespaceOf strips the last "::" segment from a qualified ID.
func namespaceOf(id string) string {
	if i := strings.LastIndex(id, "::"); i >= 0 {
		return id[:i]
	}
	return ""
}

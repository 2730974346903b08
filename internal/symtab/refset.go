package symtab

import "slices"

// RefSet is an insertion-ordered set of entity IDs. Relationships hold IDs,
// never records, so a target can be upgraded without touching its referrers.
type RefSet struct {
	ids   []string
	index map[string]struct{}
}

// Add records id and reports whether it was new.
func (r *RefSet) Add(id string) bool {
	if id == "" {
		return false
	}
	if r.index == nil {
		r.index = make(map[string]struct{})
	}
	if _, ok := r.index[id]; ok {
		return false
	}
	r.index[id] = struct{}{}
	r.ids = append(r.ids, id)
	return true
}

func (r *RefSet) Has(id string) bool {
	_, ok := r.index[id]
	return ok
}

func (r *RefSet) Len() int {
	return len(r.ids)
}

// IDs returns the members in insertion order.
func (r *RefSet) IDs() []string {
	return slices.Clone(r.ids)
}

// Sorted returns the members in lexical order.
func (r *RefSet) Sorted() []string {
	out := slices.Clone(r.ids)
	slices.Sort(out)
	return out
}

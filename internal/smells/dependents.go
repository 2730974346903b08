package smells

import (
	"fmt"

	"archmine/internal/graph"
	"archmine/internal/symtab"
)

// Dependents flags structures that many other structures depend on. It needs
// the projected graph, so it is passed to Run explicitly.
type Dependents struct {
	Graph *graph.Graph
}

func (Dependents) Name() string { return "max_dependents" }

func (d Dependents) Detect(table *symtab.Store, t Thresholds) []Incident {
	if d.Graph == nil {
		return nil
	}
	users := make(map[string]map[string]struct{})
	for _, dep := range d.Graph.Aggregate() {
		if dep.From == dep.To {
			continue
		}
		if users[dep.To] == nil {
			users[dep.To] = make(map[string]struct{})
		}
		users[dep.To][dep.From] = struct{}{}
	}

	var out []Incident
	eachStructure(table, func(st *symtab.Structure) {
		v := len(users[st.ID])
		if lvl := t.Level(float64(v)); lvl > 0 {
			out = append(out, Incident{
				Detector:  "max_dependents",
				Structure: st.ID,
				Src:       st.Src,
				Message:   fmt.Sprintf("Structure: %q is used by %d structures.", st.ID, v),
				Level:     lvl,
			})
		}
	})
	return out
}

// Package smells flags methods and structures whose measurements exceed
// configured thresholds.
package smells

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"archmine/internal/symtab"
)

// MaxLevel is the level of a value at or above its Max threshold.
const MaxLevel = 10

// Thresholds bound a measurement: values at or below Min are fine, values at
// or above Max are maximally smelly.
type Thresholds struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Level interpolates v between Min and Max onto 0..MaxLevel.
func (t Thresholds) Level(v float64) int {
	if v <= t.Min {
		return 0
	}
	if v >= t.Max || t.Max <= t.Min {
		return MaxLevel
	}
	return int(math.Ceil((v - t.Min) / (t.Max - t.Min) * MaxLevel))
}

// Config maps detector names to their thresholds. Detectors without an
// entry do not run.
type Config map[string]Thresholds

// DefaultConfig enables every built-in detector.
func DefaultConfig() Config {
	return Config{
		"max_literals":   {Min: 5, Max: 20},
		"max_branches":   {Min: 8, Max: 25},
		"max_loops":      {Min: 3, Max: 8},
		"max_scope":      {Min: 3, Max: 6},
		"max_lines":      {Min: 40, Max: 150},
		"max_args":       {Min: 4, Max: 8},
		"max_locals":     {Min: 8, Max: 20},
		"max_fields":     {Min: 10, Max: 30},
		"max_methods":    {Min: 15, Max: 40},
		"max_dependents": {Min: 6, Max: 20},
	}
}

// Incident is one detected smell.
type Incident struct {
	Detector  string
	Structure string
	// Method is empty for structure-level smells.
	Method  string
	Src     symtab.SourceInfo
	Message string
	Level   int
}

// Detector inspects a finalized table.
type Detector interface {
	Name() string
	Detect(table *symtab.Store, t Thresholds) []Incident
}

type methodDetector struct {
	name  string
	noun  string
	value func(*symtab.Method) int
}

func (d methodDetector) Name() string { return d.name }

func (d methodDetector) Detect(table *symtab.Store, t Thresholds) []Incident {
	var out []Incident
	eachStructure(table, func(st *symtab.Structure) {
		st.Methods.Each(func(e symtab.Entity) {
			m, ok := e.(*symtab.Method)
			if !ok || m.IsStub() || m.MethodKind.IsTrivial() {
				return
			}
			v := d.value(m)
			if lvl := t.Level(float64(v)); lvl > 0 {
				out = append(out, Incident{
					Detector:  d.name,
					Structure: st.ID,
					Method:    m.ID,
					Src:       m.Src,
					Message:   fmt.Sprintf("Method: %q has %d %s.", m.ID, v, d.noun),
					Level:     lvl,
				})
			}
		})
	})
	return out
}

type structureDetector struct {
	name  string
	noun  string
	value func(*symtab.Structure) int
}

func (d structureDetector) Name() string { return d.name }

func (d structureDetector) Detect(table *symtab.Store, t Thresholds) []Incident {
	var out []Incident
	eachStructure(table, func(st *symtab.Structure) {
		v := d.value(st)
		if lvl := t.Level(float64(v)); lvl > 0 {
			out = append(out, Incident{
				Detector:  d.name,
				Structure: st.ID,
				Src:       st.Src,
				Message:   fmt.Sprintf("Structure: %q has %d %s.", st.ID, v, d.noun),
				Level:     lvl,
			})
		}
	})
	return out
}

// eachStructure visits defined structures in ID order.
func eachStructure(table *symtab.Store, fn func(*symtab.Structure)) {
	table.Each(func(e symtab.Entity) {
		if st, ok := e.(*symtab.Structure); ok && !st.IsStub() {
			fn(st)
		}
	})
}

// Builtins lists the detectors Run knows about.
var Builtins = []Detector{
	methodDetector{"max_literals", "literals", func(m *symtab.Method) int { return m.Metrics.Literals }},
	methodDetector{"max_branches", "branches", func(m *symtab.Method) int { return m.Metrics.Branches }},
	methodDetector{"max_loops", "loops", func(m *symtab.Method) int { return m.Metrics.Loops }},
	methodDetector{"max_scope", "nested scopes", func(m *symtab.Method) int { return m.Metrics.MaxScope }},
	methodDetector{"max_lines", "lines", func(m *symtab.Method) int { return m.Metrics.Lines }},
	methodDetector{"max_args", "arguments", func(m *symtab.Method) int { return m.Args.Len() }},
	methodDetector{"max_locals", "local definitions", func(m *symtab.Method) int { return m.Definitions.Len() }},
	structureDetector{"max_fields", "fields", func(st *symtab.Structure) int { return st.Fields.Len() }},
	structureDetector{"max_methods", "methods", func(st *symtab.Structure) int { return st.Methods.Len() }},
}

// Run applies every configured detector to table. Incidents come back most
// severe first; ties keep source order.
func Run(table *symtab.Store, cfg Config, extra ...Detector) []Incident {
	var out []Incident
	for _, d := range append(slices.Clone(Builtins), extra...) {
		t, ok := cfg[d.Name()]
		if !ok {
			continue
		}
		out = append(out, d.Detect(table, t)...)
	}
	slices.SortStableFunc(out, func(a, b Incident) int {
		if c := cmp.Compare(b.Level, a.Level); c != 0 {
			return c
		}
		if c := a.Src.Compare(b.Src); c != 0 {
			return c
		}
		return cmp.Compare(a.Detector, b.Detector)
	})
	return out
}

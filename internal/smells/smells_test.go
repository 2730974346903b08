package smells

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archmine/internal/graph"
	"archmine/internal/symtab"
)

func at(line int) symtab.SourceInfo {
	return symtab.SourceInfo{File: "a.h", Line: line, Column: 1}
}

func sampleTable() *symtab.Store {
	table := symtab.NewStore()
	a := symtab.NewStructure(symtab.Symbol{ID: "A", Name: "A", Src: at(1)}, symtab.StructureClass)
	table.InstallFull(a)

	f := symtab.NewMethod(symtab.Symbol{ID: "A::f", Name: "f", Src: at(2)}, symtab.MethodUserMethod)
	f.Metrics.Literals = 5
	f.InstallArg(symtab.NewDefinition(symtab.Symbol{ID: "A::f::x", Name: "x", Src: at(2)}, "int"))
	a.InstallMethod(f)

	g := symtab.NewMethod(symtab.Symbol{ID: "A::g", Name: "g", Src: at(5)}, symtab.MethodUserMethod)
	g.Metrics.Literals = 3
	a.InstallMethod(g)

	// Generated members are not the author's code.
	ctor := symtab.NewMethod(symtab.Symbol{ID: "A::A", Name: "A", Src: at(7)}, symtab.MethodConstructorTrivial)
	ctor.Metrics.Literals = 9
	for _, arg := range []string{"a", "b", "c"} {
		ctor.InstallArg(symtab.NewDefinition(symtab.Symbol{ID: "A::A::" + arg, Name: arg, Src: at(7)}, "int"))
	}
	a.InstallMethod(ctor)

	// Stubs carry no measurements and are never reported.
	a.Methods.InstallStub("A::h", "h", symtab.KindMethod)
	table.InstallStub("Unknown", "Unknown", symtab.KindStructure)
	return table
}

func TestThresholds_Level(t *testing.T) {
	cases := []struct {
		name string
		t    Thresholds
		v    float64
		want int
	}{
		{"below min", Thresholds{Min: 5, Max: 20}, 4, 0},
		{"at min", Thresholds{Min: 5, Max: 20}, 5, 0},
		{"just above min", Thresholds{Min: 5, Max: 20}, 6, 1},
		{"midway", Thresholds{Min: 5, Max: 20}, 12.5, 5},
		{"at max", Thresholds{Min: 5, Max: 20}, 20, MaxLevel},
		{"above max", Thresholds{Min: 5, Max: 20}, 30, MaxLevel},
		{"degenerate range", Thresholds{Min: 3, Max: 3}, 4, MaxLevel},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.t.Level(tc.v))
		})
	}
}

func TestRun(t *testing.T) {
	cfg := Config{
		"max_literals": {Min: 1, Max: 5},
		"max_args":     {Min: 0, Max: 2},
	}
	incidents := Run(sampleTable(), cfg)
	require.Len(t, incidents, 3)

	assert.Equal(t, "max_literals", incidents[0].Detector)
	assert.Equal(t, "A::f", incidents[0].Method)
	assert.Equal(t, MaxLevel, incidents[0].Level)
	assert.Equal(t, `Method: "A::f" has 5 literals.`, incidents[0].Message)

	// Equal levels fall back to source order.
	assert.Equal(t, "max_args", incidents[1].Detector)
	assert.Equal(t, "A::f", incidents[1].Method)
	assert.Equal(t, 5, incidents[1].Level)

	assert.Equal(t, "max_literals", incidents[2].Detector)
	assert.Equal(t, "A::g", incidents[2].Method)
	assert.Equal(t, 5, incidents[2].Level)
	assert.Equal(t, "A", incidents[2].Structure)
}

func TestRun_UnconfiguredDetectorsAreSkipped(t *testing.T) {
	assert.Empty(t, Run(sampleTable(), Config{}))
	assert.Empty(t, Run(sampleTable(), Config{"max_loops": {Min: 0, Max: 1}}))
}

func TestDependents(t *testing.T) {
	table := symtab.NewStore()
	for i, id := range []string{"A", "B", "C"} {
		table.InstallFull(symtab.NewStructure(symtab.Symbol{ID: id, Name: id, Src: at(i + 1)}, symtab.StructureClass))
	}
	g := graph.NewGraph()
	for _, id := range []string{"A", "B", "C"} {
		g.AddNode(&graph.Node{ID: id, Name: id, Kind: symtab.KindStructure})
	}
	g.AddNode(&graph.Node{ID: "B::m", Name: "m", Kind: symtab.KindMethod, Owner: "B"})
	g.AddEdge(graph.Edge{From: "B", To: "A", Kind: graph.EdgeClassField})
	g.AddEdge(graph.Edge{From: "B::m", To: "A", Kind: graph.EdgeMethodArg})
	g.AddEdge(graph.Edge{From: "C", To: "A", Kind: graph.EdgeInherit})
	g.AddEdge(graph.Edge{From: "A", To: "A", Kind: graph.EdgeClassField})

	incidents := Run(table, Config{"max_dependents": {Min: 0, Max: 2}}, Dependents{Graph: g})
	require.Len(t, incidents, 1)
	assert.Equal(t, "A", incidents[0].Structure)
	assert.Equal(t, MaxLevel, incidents[0].Level)
	assert.Equal(t, `Structure: "A" is used by 2 structures.`, incidents[0].Message)
}

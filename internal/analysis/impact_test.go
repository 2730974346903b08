package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archmine/internal/git"
	"archmine/internal/graph"
	"archmine/internal/symtab"
)

func node(id, file string, line int, owner string) *graph.Node {
	kind := symtab.KindStructure
	if owner != "" {
		kind = symtab.KindMethod
	}
	return &graph.Node{ID: id, Name: id, Kind: kind, Owner: owner, Src: symtab.SourceInfo{File: file, Line: line, Column: 1}}
}

func ids(nodes []*graph.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func sampleGraph() *graph.Graph {
	g := graph.NewGraph()
	g.AddNode(node("Point", "point.go", 3, ""))
	g.AddNode(node("Point::Add", "point.go", 10, "Point"))
	g.AddNode(node("Circle", "circle.go", 3, ""))
	g.AddNode(node("Circle::Area", "circle.go", 12, "Circle"))
	g.AddNode(node("Canvas", "canvas.go", 3, ""))
	g.AddNode(&graph.Node{ID: "fmt::Stringer", Name: "Stringer", Unknown: true})
	g.AddEdge(graph.Edge{From: "Circle", To: "Point", Kind: graph.EdgeClassField})
	g.AddEdge(graph.Edge{From: "Circle::Area", To: "Point", Kind: graph.EdgeMethodArg})
	g.AddEdge(graph.Edge{From: "Canvas", To: "Circle", Kind: graph.EdgeClassField})
	g.AddEdge(graph.Edge{From: "Circle", To: "fmt::Stringer", Kind: graph.EdgeInherit})
	return g
}

func TestAnalyzeImpact(t *testing.T) {
	a := NewAnalyzer(sampleGraph())

	t.Run("line inside a method", func(t *testing.T) {
		report, err := a.AnalyzeImpact([]git.ChangedFile{{Path: "point.go", ChangedLines: []int{11}}})
		require.NoError(t, err)
		assert.Equal(t, []string{"Point::Add"}, ids(report.DirectlyAffected))
		assert.ElementsMatch(t, []string{"Circle", "Circle::Area"}, ids(report.IndirectlyAffected))
	})

	t.Run("line inside a type", func(t *testing.T) {
		report, err := a.AnalyzeImpact([]git.ChangedFile{{Path: "circle.go", ChangedLines: []int{5}}})
		require.NoError(t, err)
		assert.Equal(t, []string{"Circle"}, ids(report.DirectlyAffected))
		assert.Equal(t, []string{"Canvas"}, ids(report.IndirectlyAffected))
	})

	t.Run("deleted file", func(t *testing.T) {
		report, err := a.AnalyzeImpact([]git.ChangedFile{{Path: "circle.go", Deleted: true}})
		require.NoError(t, err)
		assert.Equal(t, []string{"Circle", "Circle::Area"}, ids(report.DirectlyAffected))
		assert.Equal(t, []string{"Canvas"}, ids(report.IndirectlyAffected))
	})

	t.Run("header lines before any declaration", func(t *testing.T) {
		report, err := a.AnalyzeImpact([]git.ChangedFile{{Path: "point.go", ChangedLines: []int{1}}})
		require.NoError(t, err)
		assert.Empty(t, report.DirectlyAffected)
		assert.Empty(t, report.IndirectlyAffected)
	})

	t.Run("unknown file", func(t *testing.T) {
		report, err := a.AnalyzeImpact([]git.ChangedFile{{Path: "other.go", ChangedLines: []int{1}}})
		require.NoError(t, err)
		assert.Empty(t, report.DirectlyAffected)
	})
}

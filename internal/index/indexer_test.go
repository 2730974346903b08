package index

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archmine/internal/graph"
	"archmine/internal/persist"
	"archmine/internal/symtab"
)

func sampleTable() *symtab.Store {
	t := symtab.NewStore()
	src := func(line int) symtab.SourceInfo { return symtab.SourceInfo{File: "geo.go", Line: line, Column: 1} }

	point := symtab.NewStructure(symtab.Symbol{ID: "geo::Point", Name: "Point", Namespace: "geo", Src: src(1)}, symtab.StructureStruct)
	t.InstallFull(point)

	seg := symtab.NewStructure(symtab.Symbol{ID: "geo::Segment", Name: "Segment", Namespace: "geo", Src: src(5)}, symtab.StructureStruct)
	from := symtab.NewDefinition(symtab.Symbol{ID: "geo::Segment::From", Name: "From", Src: src(6)}, "*Point")
	from.Type = "geo::Point"
	seg.InstallField(from)
	length := symtab.NewMethod(symtab.Symbol{ID: "geo::Segment::Length", Name: "Length", Src: src(9)}, symtab.MethodUserMethod)
	length.InsertMemberExpr("geo.go:10:7", symtab.MemberExpr{Expr: "s.From.X", Src: src(10), End: src(10)},
		symtab.Member{Name: "From", Type: "geo::Point", Kind: symtab.MemberClassField})
	seg.InstallMethod(length)
	seg.AddBase(t.Reference(symtab.Ref{ID: "fmt::Stringer", Name: "Stringer"}).ID)
	t.InstallFull(seg)
	return t
}

func TestEncode_RoundTrip(t *testing.T) {
	g := graph.Project(sampleTable())

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, g))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	got, err := Import(&doc)
	require.NoError(t, err)

	assert.Equal(t, g.Nodes, got.Nodes)
	assert.Equal(t, g.Edges, got.Edges)
	assert.Equal(t, g.Aggregate(), got.Aggregate())
}

func TestExport_Shape(t *testing.T) {
	doc := Export(graph.Project(sampleTable()))

	ids := make([]string, 0, len(doc.Nodes))
	for _, n := range doc.Nodes {
		ids = append(ids, n.ID)
	}
	assert.IsIncreasing(t, ids)
	assert.Contains(t, doc.Nodes, NodeDoc{ID: "fmt::Stringer", Name: "Stringer", Kind: "Structure", Unknown: true})

	var member []EdgeDoc
	for _, e := range doc.Edges {
		if e.Kind == "MemberExpr" {
			member = append(member, e)
		}
	}
	require.Len(t, member, 1)
	assert.Equal(t, "ClassField", member[0].Member)
}

func TestImport_UnknownKind(t *testing.T) {
	_, err := Import(&Document{Nodes: []NodeDoc{{ID: "x", Kind: "Widget"}}})
	assert.ErrorContains(t, err, "unknown kind")

	_, err = Import(&Document{Edges: []EdgeDoc{{From: "a", To: "b", Kind: "Calls"}}})
	assert.ErrorContains(t, err, "unknown kind")
}

func TestBuildGraph_FromCheckpoint(t *testing.T) {
	dir := t.TempDir()
	checkpoint := filepath.Join(dir, "ST.json")
	require.NoError(t, persist.Save(checkpoint, sampleTable(), []string{"geo.go"}))

	g, err := BuildGraph(checkpoint)
	require.NoError(t, err)
	assert.Contains(t, g.Nodes, "geo::Segment")

	out := filepath.Join(dir, "graph.json")
	require.NoError(t, SaveGraph(g, out))
	loaded, err := LoadGraph(out)
	require.NoError(t, err)
	assert.Equal(t, g.Edges, loaded.Edges)

	empty, err := BuildGraph(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, empty.Nodes)
}

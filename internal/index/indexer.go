// Package index builds the dependency graph from a checkpoint and exchanges
// it as JSON.
package index

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"archmine/internal/graph"
	"archmine/internal/persist"
	"archmine/internal/symtab"
)

// Document is the JSON form of a graph. Nodes are sorted by ID; edges keep
// projection order.
type Document struct {
	Nodes []NodeDoc `json:"nodes"`
	Edges []EdgeDoc `json:"edges"`
}

type NodeDoc struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Namespace string `json:"namespace,omitempty"`
	Kind      string `json:"kind"`
	Label     string `json:"label,omitempty"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
	Column    int    `json:"col,omitempty"`
	Owner     string `json:"owner,omitempty"`
	Unknown   bool   `json:"unknown,omitempty"`
}

type EdgeDoc struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Kind   string `json:"kind"`
	Via    string `json:"via,omitempty"`
	Member string `json:"member,omitempty"`
}

var entityKinds = map[string]symtab.Kind{
	symtab.KindStructure.String():  symtab.KindStructure,
	symtab.KindMethod.String():     symtab.KindMethod,
	symtab.KindDefinition.String(): symtab.KindDefinition,
}

// BuildGraph loads the checkpoint at path and projects it. A missing
// checkpoint yields an empty graph.
func BuildGraph(checkpoint string) (*graph.Graph, error) {
	table, _, err := persist.Load(checkpoint)
	if err != nil {
		return nil, err
	}
	return graph.Project(table), nil
}

// Export converts g to its JSON document.
func Export(g *graph.Graph) *Document {
	doc := &Document{Nodes: []NodeDoc{}, Edges: []EdgeDoc{}}
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		n := g.Nodes[id]
		doc.Nodes = append(doc.Nodes, NodeDoc{
			ID:        n.ID,
			Name:      n.Name,
			Namespace: n.Namespace,
			Kind:      n.Kind.String(),
			Label:     n.Label,
			File:      n.Src.File,
			Line:      n.Src.Line,
			Column:    n.Src.Column,
			Owner:     n.Owner,
			Unknown:   n.Unknown,
		})
	}
	for _, e := range g.Edges {
		ed := EdgeDoc{From: e.From, To: e.To, Kind: e.Kind.String(), Via: e.Via}
		if e.Kind == graph.EdgeMemberExpr {
			ed.Member = e.Member.String()
		}
		doc.Edges = append(doc.Edges, ed)
	}
	return doc
}

// Import rebuilds a graph from doc.
func Import(doc *Document) (*graph.Graph, error) {
	g := graph.NewGraph()
	for _, n := range doc.Nodes {
		kind, ok := entityKinds[n.Kind]
		if !ok {
			return nil, fmt.Errorf("node %s: unknown kind %q", n.ID, n.Kind)
		}
		g.AddNode(&graph.Node{
			ID:        n.ID,
			Name:      n.Name,
			Namespace: n.Namespace,
			Kind:      kind,
			Label:     n.Label,
			Src:       symtab.SourceInfo{File: n.File, Line: n.Line, Column: n.Column},
			Owner:     n.Owner,
			Unknown:   n.Unknown,
		})
	}
	for _, e := range doc.Edges {
		kind, ok := graph.ParseEdgeKind(e.Kind)
		if !ok {
			return nil, fmt.Errorf("edge %s -> %s: unknown kind %q", e.From, e.To, e.Kind)
		}
		edge := graph.Edge{From: e.From, To: e.To, Kind: kind, Via: e.Via}
		if e.Member != "" {
			edge.Member = symtab.ParseMemberKind(e.Member)
		}
		g.AddEdge(edge)
	}
	return g, nil
}

// Encode writes g as indented JSON.
func Encode(w io.Writer, g *graph.Graph) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(Export(g)); err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}
	return nil
}

// SaveGraph persists the graph to a JSON file.
func SaveGraph(g *graph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create graph file: %w", err)
	}
	defer f.Close()
	return Encode(f, g)
}

// LoadGraph loads a graph from a JSON file.
func LoadGraph(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph file: %w", err)
	}
	defer f.Close()

	var doc Document
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}
	return Import(&doc)
}

package graph

import (
	"slices"
	"strings"
)

// Graph holds projected nodes and their typed edges.
type Graph struct {
	Nodes map[string]*Node
	Edges []Edge

	out map[string][]int
	in  map[string][]int
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes: make(map[string]*Node),
		Edges: []Edge{},
		out:   make(map[string][]int),
		in:    make(map[string][]int),
	}
}

// AddNode inserts n unless a node with the same ID exists. A known node
// replaces an unknown placeholder.
func (g *Graph) AddNode(n *Node) {
	if n == nil {
		return
	}
	if ex, ok := g.Nodes[n.ID]; ok && !(ex.Unknown && !n.Unknown) {
		return
	}
	g.Nodes[n.ID] = n
}

// AddEdge appends e and indexes it.
func (g *Graph) AddEdge(e Edge) {
	g.Edges = append(g.Edges, e)
	i := len(g.Edges) - 1
	g.out[e.From] = append(g.out[e.From], i)
	g.in[e.To] = append(g.in[e.To], i)
}

// RebuildIndices recomputes the adjacency indices after Edges was replaced.
func (g *Graph) RebuildIndices() {
	g.out = make(map[string][]int, len(g.Nodes))
	g.in = make(map[string][]int, len(g.Nodes))
	for i, e := range g.Edges {
		g.out[e.From] = append(g.out[e.From], i)
		g.in[e.To] = append(g.in[e.To], i)
	}
}

// Outgoing returns the edges leaving id, in projection order.
func (g *Graph) Outgoing(id string) []Edge {
	return g.pick(g.out[id])
}

// Incoming returns the edges entering id, in projection order.
func (g *Graph) Incoming(id string) []Edge {
	return g.pick(g.in[id])
}

func (g *Graph) pick(idx []int) []Edge {
	out := make([]Edge, 0, len(idx))
	for _, i := range idx {
		out = append(out, g.Edges[i])
	}
	return out
}

// Dependencies returns the distinct nodes id points at.
func (g *Graph) Dependencies(id string) []*Node {
	return g.distinct(g.Outgoing(id), func(e Edge) string { return e.To })
}

// Dependents returns the distinct nodes pointing at id.
func (g *Graph) Dependents(id string) []*Node {
	return g.distinct(g.Incoming(id), func(e Edge) string { return e.From })
}

func (g *Graph) distinct(edges []Edge, end func(Edge) string) []*Node {
	seen := make(map[string]bool, len(edges))
	var nodes []*Node
	for _, e := range edges {
		id := end(e)
		if seen[id] {
			continue
		}
		seen[id] = true
		if n, ok := g.Nodes[id]; ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// Unknown returns the unknown terminal nodes in ID order.
func (g *Graph) Unknown() []*Node {
	var nodes []*Node
	for _, n := range g.Nodes {
		if n.Unknown {
			nodes = append(nodes, n)
		}
	}
	slices.SortFunc(nodes, func(a, b *Node) int { return strings.Compare(a.ID, b.ID) })
	return nodes
}

// Dependency is an edge lifted to structure level with its multiplicity.
type Dependency struct {
	From  string
	To    string
	Kind  EdgeKind
	Count int
}

// Aggregate attributes every edge to the structures at its ends (a method's
// edges count for its owner) and merges duplicates. The result is ordered by
// From, To, Kind.
func (g *Graph) Aggregate() []Dependency {
	type key struct {
		from, to string
		kind     EdgeKind
	}
	counts := make(map[key]int)
	for _, e := range g.Edges {
		counts[key{g.structureOf(e.From), g.structureOf(e.To), e.Kind}]++
	}
	deps := make([]Dependency, 0, len(counts))
	for k, n := range counts {
		deps = append(deps, Dependency{From: k.from, To: k.to, Kind: k.kind, Count: n})
	}
	slices.SortFunc(deps, func(a, b Dependency) int {
		if c := strings.Compare(a.From, b.From); c != 0 {
			return c
		}
		if c := strings.Compare(a.To, b.To); c != 0 {
			return c
		}
		return int(a.Kind) - int(b.Kind)
	})
	return deps
}

func (g *Graph) structureOf(id string) string {
	if n, ok := g.Nodes[id]; ok && n.Owner != "" {
		return n.Owner
	}
	return id
}

package graph

// EdgeKindCounts tallies edges by kind.
func (g *Graph) EdgeKindCounts() map[EdgeKind]int {
	counts := make(map[EdgeKind]int)
	if g == nil {
		return counts
	}
	for _, e := range g.Edges {
		counts[e.Kind]++
	}
	return counts
}

// UnknownCount returns the number of unknown terminal nodes.
func (g *Graph) UnknownCount() int {
	if g == nil {
		return 0
	}
	n := 0
	for _, node := range g.Nodes {
		if node.Unknown {
			n++
		}
	}
	return n
}

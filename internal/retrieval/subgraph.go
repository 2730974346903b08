// Package retrieval extracts the neighbourhood of a set of declarations from
// the dependency graph.
package retrieval

import (
	"sort"

	"archmine/internal/analysis"
	"archmine/internal/git"
	"archmine/internal/graph"
)

// Config controls how subgraphs are extracted.
type Config struct {
	MaxHops int
	// MinWeight drops edges whose kind weighs less.
	MinWeight    float64
	AllowedKinds map[graph.EdgeKind]bool
}

func DefaultConfig() Config {
	return Config{
		MaxHops:      2,
		MinWeight:    0.0,
		AllowedKinds: nil,
	}
}

// kindWeights rank how tightly an edge couples its ends. Scores decay by the
// weight of each edge crossed.
var kindWeights = map[graph.EdgeKind]float64{
	graph.EdgeInherit:             1.0,
	graph.EdgeNestedClass:         0.9,
	graph.EdgeClassField:          0.9,
	graph.EdgeClassTemplateParent: 0.9,
	graph.EdgeClassTemplateArg:    0.8,
	graph.EdgeMethodReturn:        0.8,
	graph.EdgeMethodArg:           0.8,
	graph.EdgeMethodDefinition:    0.7,
	graph.EdgeMethodTemplateArg:   0.7,
	graph.EdgeMemberExpr:          0.6,
	graph.EdgeFriend:              0.5,
}

// Weight returns the coupling weight of kind.
func Weight(kind graph.EdgeKind) float64 {
	if w, ok := kindWeights[kind]; ok {
		return w
	}
	return 0.5
}

// Subgraph is the retrieval result.
type Subgraph struct {
	MaxHops      int
	SeedIDs      []string
	UpdatedFiles []string
	NodeIDs      []string
	NodeScores   map[string]float64
	Edges        []graph.Edge
}

// ExtractFromChanges seeds the traversal with the declarations the changes
// touch directly.
func ExtractFromChanges(g *graph.Graph, changes []git.ChangedFile, cfg Config) *Subgraph {
	if g == nil {
		return &Subgraph{}
	}
	report, _ := analysis.NewAnalyzer(g).AnalyzeImpact(changes)
	seeds := make([]string, 0, len(report.DirectlyAffected))
	for _, n := range report.DirectlyAffected {
		seeds = append(seeds, n.ID)
	}
	sg := Extract(g, seeds, cfg)
	sg.UpdatedFiles = changedFilePaths(changes)
	return sg
}

// Extract walks at most cfg.MaxHops edges away from seeds in either
// direction. Seeds that are not graph nodes are dropped.
func Extract(g *graph.Graph, seeds []string, cfg Config) *Subgraph {
	if g == nil {
		return &Subgraph{}
	}
	if cfg.MaxHops < 0 {
		cfg.MaxHops = 0
	}

	seedSet := make(map[string]int, len(seeds))
	for _, id := range seeds {
		if _, ok := g.Nodes[id]; ok {
			seedSet[id] = 0
		}
	}
	seedIDs := sortedKeys(seedSet)

	if len(seedIDs) == 0 {
		return &Subgraph{
			MaxHops:    cfg.MaxHops,
			SeedIDs:    seedIDs,
			NodeIDs:    nil,
			NodeScores: map[string]float64{},
			Edges:      nil,
		}
	}

	adj := make(map[string][]edgeHop)
	for _, e := range g.Edges {
		if !edgeAllowed(e, cfg) {
			continue
		}
		adj[e.From] = append(adj[e.From], edgeHop{to: e.To, edge: e})
		adj[e.To] = append(adj[e.To], edgeHop{to: e.From, edge: e})
	}

	visitedDepth := make(map[string]int, len(seedIDs))
	nodeScores := make(map[string]float64, len(seedIDs))
	queue := make([]queueItem, 0, len(seedIDs))
	for _, id := range seedIDs {
		visitedDepth[id] = 0
		nodeScores[id] = 1.0
		queue = append(queue, queueItem{id: id, depth: 0})
	}

	edgeSeen := make(map[edgeKey]bool)
	edges := make([]graph.Edge, 0)

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.depth >= cfg.MaxHops {
			continue
		}

		for _, next := range adj[cur.id] {
			key := signature(next.edge)
			if !edgeSeen[key] {
				edgeSeen[key] = true
				edges = append(edges, next.edge)
			}

			nextDepth := cur.depth + 1
			candidateScore := nodeScores[cur.id] * Weight(next.edge.Kind)
			if candidateScore > nodeScores[next.to] {
				nodeScores[next.to] = candidateScore
			}
			prevDepth, seen := visitedDepth[next.to]
			if !seen || nextDepth < prevDepth {
				visitedDepth[next.to] = nextDepth
				queue = append(queue, queueItem{id: next.to, depth: nextDepth})
			}
		}
	}

	nodeIDs := sortedKeys(visitedDepth)
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].From == edges[j].From {
			if edges[i].To == edges[j].To {
				return edges[i].Kind < edges[j].Kind
			}
			return edges[i].To < edges[j].To
		}
		return edges[i].From < edges[j].From
	})

	return &Subgraph{
		MaxHops:    cfg.MaxHops,
		SeedIDs:    seedIDs,
		NodeIDs:    nodeIDs,
		NodeScores: nodeScores,
		Edges:      edges,
	}
}

// Graph materializes the subgraph over the nodes of g so it can be rendered.
// Owners of included members are pulled in so members stay attributable.
func (s *Subgraph) Graph(g *graph.Graph) *graph.Graph {
	out := graph.NewGraph()
	add := func(id string) {
		if n, ok := g.Nodes[id]; ok {
			out.AddNode(n)
		}
	}
	for _, id := range s.NodeIDs {
		add(id)
		if n, ok := g.Nodes[id]; ok && n.Owner != "" {
			add(n.Owner)
		}
	}
	for _, e := range s.Edges {
		out.AddEdge(e)
	}
	return out
}

type queueItem struct {
	id    string
	depth int
}

type edgeHop struct {
	to   string
	edge graph.Edge
}

type edgeKey struct {
	from, to, via string
	kind          graph.EdgeKind
}

func signature(e graph.Edge) edgeKey {
	return edgeKey{from: e.From, to: e.To, via: e.Via, kind: e.Kind}
}

func edgeAllowed(e graph.Edge, cfg Config) bool {
	if cfg.MinWeight > 0 && Weight(e.Kind) < cfg.MinWeight {
		return false
	}
	if len(cfg.AllowedKinds) == 0 {
		return true
	}
	return cfg.AllowedKinds[e.Kind]
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func changedFilePaths(changes []git.ChangedFile) []string {
	seen := make(map[string]bool, len(changes))
	paths := make([]string, 0, len(changes))
	for _, ch := range changes {
		if ch.Path == "" || seen[ch.Path] {
			continue
		}
		seen[ch.Path] = true
		paths = append(paths, ch.Path)
	}
	sort.Strings(paths)
	return paths
}

// Package analysis maps source changes onto the dependency graph.
package analysis

import (
	"slices"
	"strings"

	"archmine/internal/git"
	"archmine/internal/graph"
	"archmine/internal/symtab"
)

// ImpactReport summarizes the declarations affected by changes.
type ImpactReport struct {
	DirectlyAffected   []*graph.Node
	IndirectlyAffected []*graph.Node
}

// Analyzer performs impact analysis on the dependency graph.
type Analyzer struct {
	g      *graph.Graph
	byFile map[string][]*graph.Node
}

// NewAnalyzer creates a new analyzer.
func NewAnalyzer(g *graph.Graph) *Analyzer {
	a := &Analyzer{g: g, byFile: make(map[string][]*graph.Node)}
	for _, n := range g.Nodes {
		if n.Unknown || n.Src.IsZero() || n.Kind == symtab.KindDefinition {
			continue
		}
		a.byFile[n.Src.File] = append(a.byFile[n.Src.File], n)
	}
	for _, nodes := range a.byFile {
		slices.SortFunc(nodes, func(x, y *graph.Node) int {
			if c := x.Src.Compare(y.Src); c != 0 {
				return c
			}
			return strings.Compare(x.ID, y.ID)
		})
	}
	return a
}

// AnalyzeImpact identifies which nodes are affected by the given changes. A
// declaration owns the lines from its start up to the next declaration in the
// same file, since only start positions are recorded. Dependents of the
// structures touched directly are reported as indirect.
func (a *Analyzer) AnalyzeImpact(changes []git.ChangedFile) (*ImpactReport, error) {
	report := &ImpactReport{
		DirectlyAffected:   []*graph.Node{},
		IndirectlyAffected: []*graph.Node{},
	}

	seenDirect := make(map[string]bool)
	seenIndirect := make(map[string]bool)

	// 1. Find Direct Impacts
	for _, change := range changes {
		for _, node := range a.affected(change) {
			if !seenDirect[node.ID] {
				report.DirectlyAffected = append(report.DirectlyAffected, node)
				seenDirect[node.ID] = true
			}
		}
	}

	// 2. Find Indirect Impacts (dependents of the touched structures)
	var targets []string
	seenTarget := make(map[string]bool)
	for _, node := range report.DirectlyAffected {
		for _, id := range []string{node.ID, node.Owner} {
			if id != "" && !seenTarget[id] {
				seenTarget[id] = true
				targets = append(targets, id)
			}
		}
	}
	for _, id := range targets {
		for _, dep := range a.g.Dependents(id) {
			if !seenDirect[dep.ID] && !seenIndirect[dep.ID] {
				report.IndirectlyAffected = append(report.IndirectlyAffected, dep)
				seenIndirect[dep.ID] = true
			}
		}
	}

	return report, nil
}

func (a *Analyzer) affected(change git.ChangedFile) []*graph.Node {
	nodes := a.byFile[change.Path]
	if change.Deleted || len(change.ChangedLines) == 0 {
		return nodes
	}
	var out []*graph.Node
	for i, node := range nodes {
		end := -1
		if i+1 < len(nodes) && nodes[i+1].Src.Line > node.Src.Line {
			end = nodes[i+1].Src.Line
		}
		if isAffected(node.Src.Line, end, change.ChangedLines) {
			out = append(out, node)
		}
	}
	return out
}

// isAffected checks lines against [start, end); a negative end is open.
func isAffected(start, end int, lines []int) bool {
	for _, line := range lines {
		if line >= start && (end < 0 || line < end) {
			return true
		}
	}
	return false
}

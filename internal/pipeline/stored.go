package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"archmine/internal/analysis"
	"archmine/internal/git"
	"archmine/internal/graph"
	"archmine/internal/storage"
)

// EdgeSummary renders the per-kind edge counts of g in declaration order,
// leaving out kinds with no edges.
func EdgeSummary(g *graph.Graph) string {
	counts := g.EdgeKindCounts()
	var parts []string
	for _, k := range graph.EdgeKinds {
		if n := counts[k]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", k, n))
		}
	}
	return strings.Join(parts, " ")
}

// ResolveFocus keeps the IDs that name a stored node. Unknown IDs are
// logged and dropped.
func ResolveFocus(ctx context.Context, store storage.GraphStore, ids []string) ([]string, error) {
	var out []string
	for _, id := range ids {
		if _, err := store.GetNode(ctx, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				log.Printf("⚠️ Focus node %s is not in the stored graph", id)
				continue
			}
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// StoredImpact is an impact report computed against the last stored graph.
type StoredImpact struct {
	*analysis.ImpactReport
	// Declared lists the stored declarations of each changed file that
	// still exists.
	Declared map[string][]*graph.Node
}

// ImpactFromStore analyzes changes against the graph saved in store.
func ImpactFromStore(ctx context.Context, store storage.GraphStore, changes []git.ChangedFile) (*StoredImpact, error) {
	g, err := store.LoadGraph(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stored graph: %w", err)
	}
	report, err := analysis.NewAnalyzer(g).AnalyzeImpact(changes)
	if err != nil {
		return nil, err
	}

	out := &StoredImpact{ImpactReport: report, Declared: make(map[string][]*graph.Node)}
	for _, c := range changes {
		if c.Deleted {
			continue
		}
		nodes, err := store.FindNodesByFile(ctx, c.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to find nodes in %s: %w", c.Path, err)
		}
		if len(nodes) > 0 {
			out.Declared[c.Path] = nodes
		}
	}
	return out, nil
}

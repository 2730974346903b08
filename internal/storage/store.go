package storage

import (
	"context"
	"time"

	"archmine/internal/graph"
)

// Snapshot describes one persisted projection.
type Snapshot struct {
	RunID     string
	CreatedAt time.Time
	Nodes     int
	Edges     int
	Unknown   int
}

// GraphStore persists projected dependency graphs.
type GraphStore interface {
	// SaveGraph replaces the stored graph with g and records a snapshot.
	// It returns the snapshot's run ID.
	SaveGraph(ctx context.Context, g *graph.Graph) (string, error)

	// LoadGraph returns the most recently saved graph.
	LoadGraph(ctx context.Context) (*graph.Graph, error)

	// GetNode retrieves a node by its ID.
	GetNode(ctx context.Context, id string) (*graph.Node, error)

	// FindNodesByFile retrieves all nodes declared in a specific file.
	FindNodesByFile(ctx context.Context, filepath string) ([]*graph.Node, error)

	// Snapshots lists saved snapshots, newest first.
	Snapshots(ctx context.Context) ([]Snapshot, error)

	Close() error
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"archmine/internal/graph"
	"archmine/internal/symtab"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by GetNode for an unknown ID.
var ErrNotFound = errors.New("not found")

type SQLiteStore struct {
	db *sql.DB
}

var _ GraphStore = (*SQLiteStore)(nil)

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS nodes (
			id TEXT PRIMARY KEY,
			name TEXT,
			namespace TEXT,
			kind INTEGER,
			label TEXT,
			filepath TEXT,
			line INTEGER,
			col INTEGER,
			owner TEXT,
			unknown INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS edges (
			seq INTEGER PRIMARY KEY,
			from_id TEXT,
			to_id TEXT,
			kind TEXT,
			via TEXT,
			member TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			run_id TEXT PRIMARY KEY,
			created_at TEXT,
			nodes INTEGER,
			edges INTEGER,
			unknown INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_file ON nodes(filepath);`,
		`CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(from_id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// SaveGraph stores g as the current snapshot. Nodes and edges of the previous
// snapshot are dropped in the same transaction, so readers see either the old
// graph or the new one.
func (s *SQLiteStore) SaveGraph(ctx context.Context, g *graph.Graph) (string, error) {
	if g == nil {
		g = graph.NewGraph()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM edges`); err != nil {
		return "", fmt.Errorf("failed to clear edges: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes`); err != nil {
		return "", fmt.Errorf("failed to clear nodes: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (id, name, namespace, kind, label, filepath, line, col, owner, unknown)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, n := range g.Nodes {
		if _, err := stmt.ExecContext(ctx, n.ID, n.Name, n.Namespace, int(n.Kind), n.Label,
			n.Src.File, n.Src.Line, n.Src.Column, n.Owner, n.Unknown); err != nil {
			return "", fmt.Errorf("failed to save node %s: %w", n.ID, err)
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO edges (seq, from_id, to_id, kind, via, member) VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", err
	}
	defer edgeStmt.Close()

	for i, e := range g.Edges {
		if _, err := edgeStmt.ExecContext(ctx, i, e.From, e.To, e.Kind.String(), e.Via, e.Member.String()); err != nil {
			return "", fmt.Errorf("failed to save edge %s -> %s: %w", e.From, e.To, err)
		}
	}

	runID := uuid.NewString()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (run_id, created_at, nodes, edges, unknown) VALUES (?, ?, ?, ?, ?)
	`, runID, time.Now().UTC().Format(time.RFC3339Nano), len(g.Nodes), len(g.Edges), g.UnknownCount()); err != nil {
		return "", fmt.Errorf("failed to record snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return runID, nil
}

const nodeColumns = `id, name, namespace, kind, label, filepath, line, col, owner, unknown`

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(row scanner) (*graph.Node, error) {
	var n graph.Node
	var kind int
	if err := row.Scan(&n.ID, &n.Name, &n.Namespace, &kind, &n.Label,
		&n.Src.File, &n.Src.Line, &n.Src.Column, &n.Owner, &n.Unknown); err != nil {
		return nil, err
	}
	n.Kind = symtab.Kind(kind)
	return &n, nil
}

func (s *SQLiteStore) LoadGraph(ctx context.Context) (*graph.Graph, error) {
	g := graph.NewGraph()

	rows, err := s.db.QueryContext(ctx, "SELECT "+nodeColumns+" FROM nodes")
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		g.Nodes[n.ID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	edgeRows, err := s.db.QueryContext(ctx, "SELECT from_id, to_id, kind, via, member FROM edges ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer edgeRows.Close()

	for edgeRows.Next() {
		var e graph.Edge
		var kind, member string
		if err := edgeRows.Scan(&e.From, &e.To, &kind, &e.Via, &member); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		k, ok := graph.ParseEdgeKind(kind)
		if !ok {
			return nil, fmt.Errorf("unknown edge kind %q", kind)
		}
		e.Kind = k
		e.Member = symtab.ParseMemberKind(member)
		g.Edges = append(g.Edges, e)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, err
	}

	g.RebuildIndices()
	return g, nil
}

func (s *SQLiteStore) GetNode(ctx context.Context, id string) (*graph.Node, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+nodeColumns+" FROM nodes WHERE id = ?", id)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("node %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) FindNodesByFile(ctx context.Context, filepath string) ([]*graph.Node, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+nodeColumns+" FROM nodes WHERE filepath = ? ORDER BY line, col, id", filepath)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []*graph.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (s *SQLiteStore) Snapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT run_id, created_at, nodes, edges, unknown FROM snapshots ORDER BY rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var created string
		if err := rows.Scan(&snap.RunID, &created, &snap.Nodes, &snap.Edges, &snap.Unknown); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			snap.CreatedAt = t
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Package pipeline runs a full mining pass: discover sources, mine them into
// the incremental session, project the graph and store it.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"archmine/internal/analysis"
	"archmine/internal/config"
	"archmine/internal/crawler"
	"archmine/internal/extractor"
	"archmine/internal/git"
	"archmine/internal/graph"
	"archmine/internal/ignore"
	"archmine/internal/incremental"
	"archmine/internal/mining"
	"archmine/internal/storage"
)

// MineSync is one mining run over a project.
type MineSync struct {
	Config *config.Config
	// Force discards the checkpoint and mines every file again.
	Force bool
	// BaseRef, when set, reports the impact of the changes since that git
	// revision on the new graph.
	BaseRef string
	// Frontend overrides the Go front end.
	Frontend mining.Frontend
}

// Result is what a run produced.
type Result struct {
	Report *mining.Report
	Graph  *graph.Graph
	// RunID is the stored snapshot; empty when nothing was stored.
	RunID  string
	Impact *analysis.ImpactReport
}

func NewMineSync(cfg *config.Config) *MineSync {
	if cfg == nil {
		cfg = config.Default()
	}
	return &MineSync{Config: cfg}
}

func (s *MineSync) Run(ctx context.Context) (*Result, error) {
	root := s.Config.Project.Root

	preds, err := ignore.Load(root, s.Config.Mining.IgnorePaths, s.Config.Mining.IgnoreNamespaces)
	if err != nil {
		return nil, fmt.Errorf("failed to load ignore rules: %w", err)
	}

	files, err := s.discoverStage(ctx, preds)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessionStage()
	if err != nil {
		return nil, err
	}

	report, err := s.mineStage(ctx, sess, files, preds)
	if err != nil {
		return nil, err
	}
	result := &Result{Report: report}
	if report.Cancelled {
		fmt.Printf("⏸️  Mining interrupted after %d files; checkpoint saved, graph not stored.\n", len(report.Completed))
		return result, nil
	}

	start := time.Now()
	result.Graph = graph.Project(sess.Table())
	fmt.Printf("📊 Graph projected in %v. Nodes=%d Edges=%d Unknown=%d\n",
		time.Since(start), len(result.Graph.Nodes), len(result.Graph.Edges), result.Graph.UnknownCount())
	if summary := EdgeSummary(result.Graph); summary != "" {
		fmt.Printf("  -> %s\n", summary)
	}

	result.RunID, err = s.storeStage(ctx, result.Graph)
	if err != nil {
		return result, err
	}

	if s.BaseRef != "" {
		result.Impact = s.impactStage(ctx, result.Graph)
	}
	return result, nil
}

// Plan reports the files the next Run would mine, without mining them.
func (s *MineSync) Plan(ctx context.Context) ([]string, error) {
	preds, err := ignore.Load(s.Config.Project.Root, s.Config.Mining.IgnorePaths, s.Config.Mining.IgnoreNamespaces)
	if err != nil {
		return nil, fmt.Errorf("failed to load ignore rules: %w", err)
	}
	files, err := s.discoverStage(ctx, preds)
	if err != nil {
		return nil, err
	}
	if s.Force {
		return files, nil
	}
	sess, err := incremental.Open(s.Config.Mining.Checkpoint)
	if err != nil {
		return nil, err
	}
	return sess.Plan(files), nil
}

// discoverStage lists candidate source files relative to the project root.
func (s *MineSync) discoverStage(ctx context.Context, preds ignore.Predicates) ([]string, error) {
	root := s.Config.Project.Root
	cr := crawler.NewCrawler(preds)

	if s.Config.Mining.UseGit {
		tracked, err := git.ListFiles(ctx, root)
		if err == nil {
			files := cr.Filter(tracked)
			fmt.Printf("🔎 Discovered %d tracked source files.\n", len(files))
			return files, nil
		}
		log.Printf("⚠️ git listing failed, scanning the tree instead: %v", err)
	}

	files, err := cr.ScanProject(root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}
	fmt.Printf("🔎 Discovered %d source files.\n", len(files))
	return files, nil
}

func (s *MineSync) sessionStage() (*incremental.Session, error) {
	if s.Force {
		fmt.Println("🧭 Starting a fresh session (--force).")
		return incremental.NewSession(), nil
	}
	sess, err := incremental.Open(s.Config.Mining.Checkpoint)
	if err != nil {
		return nil, err
	}
	if prev := sess.PreviousLedger(); len(prev) > 0 {
		fmt.Printf("🔄 Resuming from checkpoint with %d analyzed files.\n", len(prev))
	}
	return sess, nil
}

func (s *MineSync) mineStage(ctx context.Context, sess *incremental.Session, files []string, preds ignore.Predicates) (*mining.Report, error) {
	fe := s.Frontend
	if fe == nil {
		goFE := extractor.NewGoFrontend(s.Config.Project.Root)
		goFE.Workers = s.Config.Mining.Workers
		fe = goFE
	}

	start := time.Now()
	report, err := mining.Run(ctx, fe, sess, files, mining.Options{
		Ignore:     preds,
		Checkpoint: s.Config.Mining.Checkpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("mining failed: %w", err)
	}

	if len(report.Planned) == 0 {
		fmt.Println("✅ No files to analyze.")
	} else {
		fmt.Printf("⛏️  Mined %d/%d files in %v.\n", len(report.Completed), len(report.Planned), time.Since(start))
	}
	st := report.Stats
	fmt.Printf("  -> structures=%d fields=%d methods=%d vars=%d ignored=%d rejected=%d\n",
		st.Structures, st.Fields, st.Methods, st.Vars, st.Ignored, report.Rejected)
	return report, nil
}

func (s *MineSync) storeStage(ctx context.Context, g *graph.Graph) (string, error) {
	db := s.Config.Storage.Database
	if db == "" {
		return "", nil
	}
	if err := os.MkdirAll(filepath.Dir(db), 0o755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	store, err := storage.NewSQLiteStore(db)
	if err != nil {
		return "", fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	runID, err := store.SaveGraph(ctx, g)
	if err != nil {
		return "", fmt.Errorf("failed to save graph: %w", err)
	}
	fmt.Printf("💾 Stored snapshot %s.\n", runID)
	return runID, nil
}

// impactStage is advisory; failures are logged and yield no report.
func (s *MineSync) impactStage(ctx context.Context, g *graph.Graph) *analysis.ImpactReport {
	fmt.Println("🔍 Analyzing impact...")
	changes, err := git.GetChangedFiles(ctx, s.Config.Project.Root, s.BaseRef)
	if err != nil {
		log.Printf("⚠️ Failed to get git changes: %v", err)
		return nil
	}
	report, err := analysis.NewAnalyzer(g).AnalyzeImpact(changes)
	if err != nil {
		log.Printf("⚠️ Analysis warning: %v", err)
		return nil
	}

	fmt.Printf("  -> %d declarations directly affected\n", len(report.DirectlyAffected))
	fmt.Printf("  -> %d declarations indirectly affected (dependents)\n", len(report.IndirectlyAffected))
	return report
}

package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"archmine/internal/analysis"
	"archmine/internal/git"
	"archmine/internal/graph"
	"archmine/internal/index"
	"archmine/internal/persist"
	"archmine/internal/pipeline"
	"archmine/internal/retrieval"
	"archmine/internal/smells"

	"github.com/spf13/cobra"
)

var (
	force     bool
	baseRef   string
	format    string
	fromDB    bool
	focus     []string
	hops      int
	kinds     []string
	minLevel  int
	graphBase string
	impactRef string
	impactDB  bool
)

func init() {
	mineCmd.Flags().BoolVar(&force, "force", false, "Discard the checkpoint and mine every file")
	mineCmd.Flags().StringVar(&baseRef, "base", "", "Report the impact of changes since this git revision")

	planCmd.Flags().BoolVar(&force, "force", false, "Plan as if no checkpoint existed")

	graphCmd.Flags().StringVarP(&format, "format", "f", "mermaid", "Output format: mermaid or json")
	graphCmd.Flags().BoolVar(&fromDB, "from-db", false, "Read the stored graph instead of projecting the checkpoint")
	graphCmd.Flags().StringSliceVar(&focus, "focus", nil, "Restrict the output to the neighbourhood of these node IDs")
	graphCmd.Flags().IntVar(&hops, "hops", 2, "Neighbourhood radius for --focus")
	graphCmd.Flags().StringSliceVar(&kinds, "kinds", nil, "Edge kinds to follow for --focus or --base, e.g. Inherit,ClassField")
	graphCmd.Flags().StringVar(&graphBase, "base", "", "Restrict the output to the neighbourhood of the changes since this git revision")

	smellsCmd.Flags().IntVar(&minLevel, "min-level", 1, "Hide incidents below this level")

	impactCmd.Flags().StringVar(&impactRef, "base", "HEAD", "Git revision to diff against")
	impactCmd.Flags().BoolVar(&impactDB, "from-db", false, "Analyze against the stored graph instead of the checkpoint")
}

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Mine the project into the checkpoint and store the dependency graph",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		fmt.Printf("📂 Mining project: %s\n", cfg.Project.Root)

		sync := pipeline.NewMineSync(cfg)
		sync.Force = force
		sync.BaseRef = baseRef
		res, err := sync.Run(cmd.Context())
		if err != nil {
			log.Fatalf("Mining failed: %v", err)
		}
		if res.Report.Cancelled {
			return
		}
		fmt.Printf("🎉 Mining complete! Checkpoint: %s\n", cfg.Mining.Checkpoint)
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "List the files the next mining run would analyze",
	Run: func(cmd *cobra.Command, args []string) {
		sync := pipeline.NewMineSync(loadConfig())
		sync.Force = force
		files, err := sync.Plan(cmd.Context())
		if err != nil {
			log.Fatalf("Planning failed: %v", err)
		}
		for _, f := range files {
			fmt.Println(f)
		}
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the dependency graph",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		var g *graph.Graph
		var err error
		if fromDB {
			store, serr := initStore(cfg)
			if serr != nil {
				log.Fatalf("Failed to initialize database: %v", serr)
			}
			defer store.Close()
			g, err = store.LoadGraph(cmd.Context())
			if err == nil && len(focus) > 0 {
				focus, err = pipeline.ResolveFocus(cmd.Context(), store, focus)
			}
		} else {
			g, err = index.BuildGraph(cfg.Mining.Checkpoint)
		}
		if err != nil {
			log.Fatalf("Failed to load graph: %v", err)
		}

		rc := retrieval.DefaultConfig()
		rc.MaxHops = hops
		if len(kinds) > 0 {
			rc.AllowedKinds = make(map[graph.EdgeKind]bool, len(kinds))
			for _, name := range kinds {
				k, ok := graph.ParseEdgeKind(strings.TrimSpace(name))
				if !ok {
					log.Fatalf("Unknown edge kind: %s", name)
				}
				rc.AllowedKinds[k] = true
			}
		}
		switch {
		case graphBase != "":
			changes, err := git.GetChangedFiles(cmd.Context(), cfg.Project.Root, graphBase)
			if err != nil {
				log.Fatalf("Failed to get git changes: %v", err)
			}
			sg := retrieval.ExtractFromChanges(g, changes, rc)
			fmt.Fprintf(os.Stderr, "📝 %d changed files seed %d declarations.\n", len(sg.UpdatedFiles), len(sg.SeedIDs))
			g = sg.Graph(g)
		case len(focus) > 0:
			g = retrieval.Extract(g, focus, rc).Graph(g)
		}

		switch format {
		case "mermaid":
			err = graph.Mermaid(os.Stdout, g)
		case "json":
			err = index.Encode(os.Stdout, g)
		default:
			log.Fatalf("Unknown format: %s", format)
		}
		if err != nil {
			log.Fatalf("Failed to write graph: %v", err)
		}
	},
}

var smellsCmd = &cobra.Command{
	Use:   "smells",
	Short: "Report design smells found in the checkpoint",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		table, _, err := persist.Load(cfg.Mining.Checkpoint)
		if err != nil {
			log.Fatalf("Failed to load checkpoint: %v", err)
		}

		incidents := smells.Run(table, cfg.Smells, smells.Dependents{Graph: graph.Project(table)})
		shown := 0
		for _, inc := range incidents {
			if inc.Level < minLevel {
				continue
			}
			fmt.Printf("[%2d] %s  %s (%s)\n", inc.Level, inc.Src, inc.Message, inc.Detector)
			shown++
		}
		if shown == 0 {
			fmt.Println("✅ No smells found.")
		}
	},
}

var impactCmd = &cobra.Command{
	Use:   "impact",
	Short: "Show which declarations are affected by uncommitted changes",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		changes, err := git.GetChangedFiles(cmd.Context(), cfg.Project.Root, impactRef)
		if err != nil {
			log.Fatalf("Failed to get git changes: %v", err)
		}
		if len(changes) == 0 {
			fmt.Println("✅ No changes detected.")
			return
		}
		fmt.Printf("📝 Detected %d changed files.\n", len(changes))

		var report *analysis.ImpactReport
		if impactDB {
			store, err := initStore(cfg)
			if err != nil {
				log.Fatalf("Failed to initialize database: %v", err)
			}
			defer store.Close()
			stored, err := pipeline.ImpactFromStore(cmd.Context(), store, changes)
			if err != nil {
				log.Fatalf("Analysis failed: %v", err)
			}
			for _, c := range changes {
				if nodes := stored.Declared[c.Path]; len(nodes) > 0 {
					fmt.Printf("📄 %s declares %d stored nodes\n", c.Path, len(nodes))
				}
			}
			report = stored.ImpactReport
		} else {
			g, err := index.BuildGraph(cfg.Mining.Checkpoint)
			if err != nil {
				log.Fatalf("Failed to load graph: %v", err)
			}
			report, err = analysis.NewAnalyzer(g).AnalyzeImpact(changes)
			if err != nil {
				log.Fatalf("Analysis failed: %v", err)
			}
		}
		fmt.Printf("🔍 %d declarations directly affected:\n", len(report.DirectlyAffected))
		for _, n := range report.DirectlyAffected {
			fmt.Printf("  - %s (%s)\n", n.ID, n.Src)
		}
		fmt.Printf("🔗 %d declarations indirectly affected:\n", len(report.IndirectlyAffected))
		for _, n := range report.IndirectlyAffected {
			fmt.Printf("  - %s\n", n.ID)
		}
	},
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List the stored graph snapshots",
	Run: func(cmd *cobra.Command, args []string) {
		store, err := initStore(loadConfig())
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		snaps, err := store.Snapshots(cmd.Context())
		if err != nil {
			log.Fatalf("Failed to list snapshots: %v", err)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RUN ID\tCREATED\tNODES\tEDGES\tUNKNOWN")
		for _, s := range snaps {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", s.RunID, s.CreatedAt.Local().Format(time.DateTime), s.Nodes, s.Edges, s.Unknown)
		}
		w.Flush()
	},
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"archmine/internal/config"
	"archmine/internal/storage"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "archmine",
		Short: "Mine the architecture of a Go codebase into a dependency graph",
	}
	configPath string
	rootDir    string
	checkpoint string
	dbPath     string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "archmine.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Project root (overrides config)")
	rootCmd.PersistentFlags().StringVar(&checkpoint, "checkpoint", "", "Path to the symbol table checkpoint (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the graph database (overrides config)")

	rootCmd.AddCommand(mineCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(smellsCmd)
	rootCmd.AddCommand(impactCmd)
	rootCmd.AddCommand(snapshotsCmd)
}

// loadConfig reads the configuration and applies the command line overrides.
func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if rootDir != "" {
		cfg.Project.Root = rootDir
	}
	if checkpoint != "" {
		cfg.Mining.Checkpoint = checkpoint
	}
	if dbPath != "" {
		cfg.Storage.Database = dbPath
	}
	return cfg
}

// initStore opens the graph database, which must already exist.
func initStore(cfg *config.Config) (*storage.SQLiteStore, error) {
	if _, err := os.Stat(cfg.Storage.Database); err != nil {
		return nil, fmt.Errorf("no graph database at %s, run 'archmine mine' first", cfg.Storage.Database)
	}
	return storage.NewSQLiteStore(cfg.Storage.Database)
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"archmine/internal/smells"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Project struct {
		Root string `yaml:"root"`
	} `yaml:"project"`
	Mining struct {
		// Checkpoint is the persisted symbol table of the incremental session.
		Checkpoint       string `yaml:"checkpoint"`
		IgnorePaths      string `yaml:"ignore_paths"`      // gitignore-style pattern file
		IgnoreNamespaces string `yaml:"ignore_namespaces"` // one prefix or re:<regexp> per line
		Workers          int    `yaml:"workers"`
		UseGit           bool   `yaml:"use_git"`
	} `yaml:"mining"`
	Storage struct {
		Database string `yaml:"database"`
	} `yaml:"storage"`
	// Smells replaces the built-in thresholds when present.
	Smells smells.Config `yaml:"smells"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Project.Root = "."
	cfg.Mining.Checkpoint = ".archmine/ST.json"
	cfg.Mining.IgnorePaths = ".archmine/ignore"
	cfg.Mining.IgnoreNamespaces = ".archmine/ignore_namespaces"
	cfg.Storage.Database = ".archmine/graph.db"
	return &cfg
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config over the defaults
	cfg := Default()
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if cfg.Smells == nil {
		cfg.Smells = smells.DefaultConfig()
	}

	// 3. Override with Environment Variables if present
	if v := os.Getenv("ARCHMINE_ROOT"); v != "" {
		cfg.Project.Root = v
	}
	if v := os.Getenv("ARCHMINE_CHECKPOINT"); v != "" {
		cfg.Mining.Checkpoint = v
	}
	if v := os.Getenv("ARCHMINE_IGNORE_PATHS"); v != "" {
		cfg.Mining.IgnorePaths = v
	}
	if v := os.Getenv("ARCHMINE_IGNORE_NAMESPACES"); v != "" {
		cfg.Mining.IgnoreNamespaces = v
	}
	if v := os.Getenv("ARCHMINE_DB"); v != "" {
		cfg.Storage.Database = v
	}
	if v := os.Getenv("ARCHMINE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid ARCHMINE_WORKERS %q: %w", v, err)
		}
		cfg.Mining.Workers = n
	}

	return cfg, nil
}

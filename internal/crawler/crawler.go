// Package crawler lists the source files of a project.
package crawler

import (
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"archmine/internal/ignore"
)

// Crawler scans a directory for source files.
type Crawler struct {
	preds   ignore.Predicates
	ignored []string
	ext     string
}

// NewCrawler creates a crawler for Go sources. preds may be nil.
func NewCrawler(preds ignore.Predicates) *Crawler {
	if preds == nil {
		preds = ignore.None
	}
	return &Crawler{
		preds:   preds,
		ignored: []string{".git", "vendor", "node_modules", "testdata"},
		ext:     ".go",
	}
}

// Accepts reports whether a root-relative path is a minable source file.
func (c *Crawler) Accepts(rel string) bool {
	name := filepath.Base(rel)
	if !strings.HasSuffix(name, c.ext) || strings.HasSuffix(name, "_test.go") {
		return false
	}
	for _, dir := range strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/") {
		if slices.Contains(c.ignored, dir) {
			return false
		}
	}
	return !c.preds.IsPathIgnored(rel)
}

// ScanProject walks root and returns source file paths relative to root,
// slash-separated and sorted.
func (c *Crawler) ScanProject(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		// Skip ignored directories
		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if slices.Contains(c.ignored, d.Name()) || c.preds.IsPathIgnored(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if c.Accepts(rel) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// Filter keeps the paths Accepts admits, preserving order.
func (c *Crawler) Filter(paths []string) []string {
	var out []string
	for _, p := range paths {
		if c.Accepts(p) {
			out = append(out, p)
		}
	}
	return out
}

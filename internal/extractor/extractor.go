// Package extractor is a Go-source front end: it parses files with
// tree-sitter and turns type and method declarations into mining events.
package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"archmine/internal/mining"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"golang.org/x/sync/errgroup"
)

// GoFrontend mines Go packages. Files are parsed concurrently; events are
// replayed to the sink on the calling goroutine in file order.
type GoFrontend struct {
	// Root is joined to relative file paths when reading. Source locations
	// keep the paths as given.
	Root    string
	Workers int
}

var _ mining.Frontend = (*GoFrontend)(nil)

// NewGoFrontend creates a front end reading files below root.
func NewGoFrontend(root string) *GoFrontend {
	return &GoFrontend{Root: root}
}

func (f *GoFrontend) workers() int {
	if f.Workers > 0 {
		return f.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Mine parses files and feeds their declarations to sink.
func (f *GoFrontend) Mine(ctx context.Context, files []string, sink mining.Sink) error {
	units, err := f.parseAll(ctx, files)
	if err != nil {
		return err
	}
	defer closeAll(units)

	idx := newIndex()
	for _, u := range units {
		idx.merge(u.collectIndex())
	}

	for _, u := range units {
		if !sink.BeginFile(u.path) {
			return nil
		}
		for _, ev := range u.events(idx) {
			sink.Emit(ev)
		}
		sink.EndFile()
	}
	return nil
}

// ParseFile mines a single file on its own and returns its events.
func (f *GoFrontend) ParseFile(ctx context.Context, path string) ([]mining.Event, error) {
	u, err := f.parseFile(ctx, path)
	if err != nil {
		return nil, err
	}
	defer u.close()
	idx := newIndex()
	idx.merge(u.collectIndex())
	return u.events(idx), nil
}

func (f *GoFrontend) parseAll(ctx context.Context, files []string) ([]*unit, error) {
	units := make([]*unit, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers())
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			u, err := f.parseFile(gctx, path)
			if err != nil {
				return err
			}
			units[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		closeAll(units)
		return nil, err
	}
	return units, nil
}

func (f *GoFrontend) parseFile(ctx context.Context, path string) (*unit, error) {
	full := path
	if f.Root != "" && !filepath.IsAbs(path) {
		full = filepath.Join(f.Root, path)
	}
	src, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(golang.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", path, err)
	}

	u := &unit{path: path, src: src, tree: tree}
	u.pkg = u.packageName()
	return u, nil
}

func closeAll(units []*unit) {
	for _, u := range units {
		if u != nil {
			u.close()
		}
	}
}

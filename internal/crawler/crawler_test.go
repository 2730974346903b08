package crawler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archmine/internal/ignore"
)

func touch(t *testing.T, root string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		path := filepath.Join(root, filepath.FromSlash(r))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("package x\n"), 0o644))
	}
}

func TestCrawler_ScanProject(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"main.go",
		"internal/a/a.go",
		"internal/a/a_test.go",
		"internal/b/b.go",
		"internal/b/README.md",
		"vendor/dep/dep.go",
		"internal/a/testdata/fixture.go",
		"gen/gen.go",
	)

	preds, err := ignore.New(root, []string{"gen/"}, nil)
	require.NoError(t, err)

	files, err := NewCrawler(preds).ScanProject(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"internal/a/a.go", "internal/b/b.go", "main.go"}, files)
}

func TestCrawler_Filter(t *testing.T) {
	c := NewCrawler(nil)
	got := c.Filter([]string{"a.go", "a_test.go", "docs/x.md", "vendor/v.go", "pkg/p.go"})
	assert.Equal(t, []string{"a.go", "pkg/p.go"}, got)
}

package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Paths(t *testing.T) {
	r, err := New("/repo", []string{"vendor/", "*_gen.go", "!keep_gen.go"}, nil)
	require.NoError(t, err)

	assert.True(t, r.IsPathIgnored("vendor/lib/a.go"))
	assert.True(t, r.IsPathIgnored("/repo/vendor/lib/a.go"))
	assert.True(t, r.IsPathIgnored("pkg/x_gen.go"))
	assert.False(t, r.IsPathIgnored("pkg/keep_gen.go"))
	assert.False(t, r.IsPathIgnored("pkg/x.go"))
	assert.False(t, r.IsPathIgnored(""))

	// cached answers stay stable
	assert.True(t, r.IsPathIgnored("pkg/x_gen.go"))
}

func TestRegistry_Namespaces(t *testing.T) {
	r, err := New("", nil, []string{"std::", "boost", `re:^detail_\w+$`})
	require.NoError(t, err)

	assert.True(t, r.IsNamespaceIgnored("std"))
	assert.True(t, r.IsNamespaceIgnored("std::chrono::"))
	assert.True(t, r.IsNamespaceIgnored("boost::asio"))
	assert.False(t, r.IsNamespaceIgnored("boosted"))
	assert.True(t, r.IsNamespaceIgnored("detail_impl"))
	assert.False(t, r.IsNamespaceIgnored("app::detail_impl"))
	assert.False(t, r.IsNamespaceIgnored(""))

	_, err = New("", nil, []string{"re:("})
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	paths := filepath.Join(dir, "paths.txt")
	require.NoError(t, os.WriteFile(paths, []byte("# generated\n\nthird_party/\n"), 0o644))

	r, err := Load(dir, paths, filepath.Join(dir, "missing.txt"))
	require.NoError(t, err)
	assert.True(t, r.IsPathIgnored(filepath.Join(dir, "third_party", "x.h")))
	assert.False(t, r.IsNamespaceIgnored("std"))
}

func TestNone(t *testing.T) {
	assert.False(t, None.IsPathIgnored("vendor/a.go"))
	assert.False(t, None.IsNamespaceIgnored("std"))
}

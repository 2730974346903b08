package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDiff(t *testing.T) {
	diff := `diff --git a/internal/a.go b/internal/a.go
index 1111111..2222222 100644
--- a/internal/a.go
+++ b/internal/a.go
@@ -3,0 +4,2 @@ func A() {
+	x := 1
+	y := 2
@@ -10 +12 @@ func B() {
-	return
+	return nil
diff --git a/old.go b/old.go
deleted file mode 100644
--- a/old.go
+++ /dev/null
@@ -1,3 +0,0 @@
-package old
`
	changes, err := parseDiff([]byte(diff))
	require.NoError(t, err)
	require.Len(t, changes, 2)

	assert.Equal(t, "internal/a.go", changes[0].Path)
	assert.Equal(t, []int{4, 5, 12}, changes[0].ChangedLines)
	assert.False(t, changes[0].Deleted)

	assert.Equal(t, "old.go", changes[1].Path)
	assert.True(t, changes[1].Deleted)
	assert.Empty(t, changes[1].ChangedLines)
}

func TestParseDiff_Empty(t *testing.T) {
	changes, err := parseDiff(nil)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

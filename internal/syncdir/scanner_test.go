package syncdir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, root string, parts ...string) string {
	t.Helper()

	path := filepath.Join(append([]string{root}, parts...)...)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	return path
}

func TestScan_GroupsPathsByShortID(t *testing.T) {
	root := t.TempDir()
	a1 := writeTestFile(t, root, "Work", "2024-03-15_note_abcdef12.txt")
	a2 := writeTestFile(t, root, "Home", "2024-03-15_note_abcdef12.txt")
	b := writeTestFile(t, root, "Uncategorized", "2024-01-01_other_bbbbbbbb.txt")

	got, err := Scan(root)
	require.NoError(t, err)

	assert.Len(t, got, 2)
	assert.ElementsMatch(t, []string{a1, a2}, got["abcdef12"])
	assert.Equal(t, []string{b}, got["bbbbbbbb"])
}

func TestScan_IgnoresUndecodableAndForeignFiles(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "Work", "README.txt")
	writeTestFile(t, root, "Work", "notes.md")
	writeTestFile(t, root, "Work", "short_id.txt")
	writeTestFile(t, root, ConfigFilename)

	got, err := Scan(root)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScan_EmptyTree(t *testing.T) {
	got, err := Scan(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScan_MissingRootErrors(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

package syncdir

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTargetPaths_NoFoldersGoesToUncategorized(t *testing.T) {
	got := TargetPaths(nil, "f.txt", "/out")
	assert.Equal(t, []string{filepath.Join("/out", "Uncategorized", "f.txt")}, got)
}

func TestTargetPaths_OnePerFolderPreservingOrder(t *testing.T) {
	got := TargetPaths([]string{"B", "A"}, "f.txt", "/out")
	assert.Equal(t, []string{
		filepath.Join("/out", "B", "f.txt"),
		filepath.Join("/out", "A", "f.txt"),
	}, got)
}

func TestTargetPaths_FolderNamesSanitized(t *testing.T) {
	got := TargetPaths([]string{"Team/Meetings"}, "f.txt", "/out")
	assert.Equal(t, []string{filepath.Join("/out", "Team_Meetings", "f.txt")}, got)
}

func TestTargetPaths_CollidingSanitizedNamesDeduplicated(t *testing.T) {
	// "A/B" and "A_B" both sanitize to "A_B": one folder, one path.
	got := TargetPaths([]string{"A/B", "A_B"}, "f.txt", "/out")
	assert.Equal(t, []string{filepath.Join("/out", "A_B", "f.txt")}, got)
}

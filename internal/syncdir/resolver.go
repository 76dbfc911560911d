package syncdir

import "path/filepath"

// UncategorizedFolder is the bucket for documents that belong to no
// folder.
const UncategorizedFolder = "Uncategorized"

// TargetPaths computes the absolute paths a document should occupy: one
// per folder, or a single path under the Uncategorized bucket when the
// folder list is empty. Input order is preserved. Folders whose
// sanitized names collide resolve to the same path and are deduplicated,
// so the document gets a single file there.
func TargetPaths(folders []string, filename, root string) []string {
	if len(folders) == 0 {
		return []string{filepath.Join(root, UncategorizedFolder, filename)}
	}

	seen := make(map[string]struct{}, len(folders))
	paths := make([]string, 0, len(folders))

	for _, folder := range folders {
		p := filepath.Join(root, SanitizeFolder(folder), filename)
		if _, dup := seen[p]; dup {
			continue
		}

		seen[p] = struct{}{}
		paths = append(paths, p)
	}

	return paths
}

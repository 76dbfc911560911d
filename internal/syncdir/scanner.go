package syncdir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Scan walks every exported file under root and groups the absolute
// paths by the short document ID decoded from each filename. Files whose
// names do not decode are skipped: they are not tracked and never
// deleted as orphans, so foreign files dropped into the tree are left
// alone.
//
// Scan is a pure read. The engine mutates the returned map as documents
// are processed; whatever remains afterwards is exactly the orphan set.
func Scan(root string) (map[string][]string, error) {
	existing := make(map[string][]string)

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		if !strings.HasSuffix(d.Name(), Extension) {
			return nil
		}

		id := Decode(d.Name())
		if id == "" {
			return nil
		}

		existing[id] = append(existing[id], path)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	return existing, nil
}

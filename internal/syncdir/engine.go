// Package syncdir keeps a directory tree of exported text files in sync
// with a set of logical documents, using only filename conventions and
// modification timestamps as state. There is no manifest: identity is
// recovered from an 8-character document-ID suffix embedded in each
// filename.
package syncdir

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/alexjbarnes/granola-sync/internal/errors"
)

const (
	// dirPerm is the permission mode for directories created inside the
	// output tree.
	dirPerm = fs.FileMode(0o755)

	// filePerm is the permission mode for exported files.
	filePerm = fs.FileMode(0o644)
)

// Document is one logical document to persist. Immutable per sync pass.
type Document struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Body      string
	Folders   []string
}

// Stats counts the filesystem operations of a single pass.
type Stats struct {
	Added   int
	Updated int
	Moved   int
	Deleted int
	Skipped int
}

// Action names a change made to a file. Skips are tallied but produce
// no Result; the action log only records changes.
type Action string

const (
	ActionAdded   Action = "added"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Result is one entry of the per-file action log, consumed by the
// webhook dispatcher to decide what to announce.
type Result struct {
	DocumentID string
	Action     Action
	Path       string
}

// Syncer reconciles a document set against the output directory.
// Not reentrant: callers must serialize Sync invocations against the
// same root, since concurrent scans and writes would race.
type Syncer struct {
	root     string
	excluded map[string]struct{}
	logger   *slog.Logger
}

// NewSyncer creates a syncer writing to root. Folder names in excluded
// are stripped from documents and their previously-synced subtrees are
// purged at the start of each pass.
func NewSyncer(root string, excluded []string, logger *slog.Logger) *Syncer {
	return &Syncer{
		root:     root,
		excluded: ExclusionSet(excluded),
		logger:   logger,
	}
}

// Sync runs one reconciliation pass: purge excluded folders, scan the
// tree, bring every document's files up to date, delete orphans whose
// short ID prefixes no known full ID, and prune empty directories.
//
// Per-path I/O failures are logged and absorbed; the next scheduled pass
// is the retry mechanism. Only root-level setup failures are returned,
// carrying errors.KindFatal.
func (s *Syncer) Sync(docs []Document, knownIDs map[string]struct{}) (Stats, []Result, error) {
	var (
		stats   Stats
		results []Result
	)

	if err := os.MkdirAll(s.root, dirPerm); err != nil {
		return stats, nil, errors.Wrapf(errors.KindFatal, "creating output directory %s: %w", s.root, err)
	}

	stats.Deleted += s.purgeExcluded()

	existing, err := Scan(s.root)
	if err != nil {
		return stats, nil, errors.Wrap(errors.KindFatal, err)
	}

	for _, doc := range docs {
		doc = FilterExcluded(doc, s.excluded)
		results = s.processDocument(doc, existing, &stats, results)
	}

	results = s.deleteOrphans(existing, knownIDs, &stats, results)

	s.pruneEmptyDirs()

	return stats, results, nil
}

// processDocument writes the document to every folder it belongs to and
// removes copies from folders it has left. Entries are popped from
// existing so that whatever remains after all documents are processed is
// the orphan set.
func (s *Syncer) processDocument(doc Document, existing map[string][]string, stats *Stats, results []Result) []Result {
	filename := Encode(doc.Title, doc.ID, doc.CreatedAt)
	shortID := ShortID(doc.ID)

	existingPaths := existing[shortID]
	delete(existing, shortID)

	targetPaths := TargetPaths(doc.Folders, filename, s.root)

	existingSet := make(map[string]struct{}, len(existingPaths))
	for _, p := range existingPaths {
		existingSet[p] = struct{}{}
	}

	targetSet := make(map[string]struct{}, len(targetPaths))
	for _, p := range targetPaths {
		targetSet[p] = struct{}{}
	}

	for _, target := range targetPaths {
		if err := os.MkdirAll(filepath.Dir(target), dirPerm); err != nil {
			s.logger.Warn("creating folder failed",
				slog.String("path", filepath.Dir(target)),
				slog.String("error", err.Error()),
			)

			continue
		}

		if _, ok := existingSet[target]; ok {
			if !s.needsUpdate(target, doc.UpdatedAt) {
				stats.Skipped++
				continue
			}

			if err := os.WriteFile(target, []byte(doc.Body), filePerm); err != nil {
				s.logger.Warn("updating file failed",
					slog.String("path", target),
					slog.String("error", err.Error()),
				)

				continue
			}

			s.logger.Debug("updated", slog.String("path", target))
			stats.Updated++
			results = append(results, Result{DocumentID: doc.ID, Action: ActionUpdated, Path: target})

			continue
		}

		if err := os.WriteFile(target, []byte(doc.Body), filePerm); err != nil {
			s.logger.Warn("writing file failed",
				slog.String("path", target),
				slog.String("error", err.Error()),
			)

			continue
		}

		s.logger.Debug("added", slog.String("path", target))
		stats.Added++
		results = append(results, Result{DocumentID: doc.ID, Action: ActionAdded, Path: target})
	}

	// Remove copies from folders the document no longer belongs to. The
	// add/update at the new location was handled above, so a relocation
	// is a delete here plus an add there.
	for _, old := range existingPaths {
		if _, keep := targetSet[old]; keep {
			continue
		}

		s.logger.Debug("removing from old folder", slog.String("path", old))

		if err := os.Remove(old); err != nil {
			s.logger.Warn("removing old file failed",
				slog.String("path", old),
				slog.String("error", err.Error()),
			)

			continue
		}

		stats.Moved++
	}

	return results
}

// needsUpdate reports whether the document is strictly newer than the
// file on disk, both normalized to UTC. Equal timestamps never rewrite,
// which is what makes reruns idempotent. An unreadable mtime fails open
// toward rewriting.
func (s *Syncer) needsUpdate(path string, updatedAt time.Time) bool {
	info, err := os.Stat(path)
	if err != nil {
		return true
	}

	return updatedAt.UTC().After(info.ModTime().UTC())
}

// deleteOrphans removes every file whose short ID matches no current
// document. An ID counts as orphaned only when no known full ID starts
// with it: prefix matching against the complete known set, not just the
// documents processed this pass.
func (s *Syncer) deleteOrphans(existing map[string][]string, knownIDs map[string]struct{}, stats *Stats, results []Result) []Result {
	for shortID, paths := range existing {
		if idKnown(shortID, knownIDs) {
			continue
		}

		for _, path := range paths {
			s.logger.Debug("deleting orphan", slog.String("path", path), slog.String("id", shortID))

			if err := os.Remove(path); err != nil {
				s.logger.Warn("deleting orphan failed",
					slog.String("path", path),
					slog.String("error", err.Error()),
				)

				continue
			}

			stats.Deleted++
			results = append(results, Result{DocumentID: shortID, Action: ActionDeleted, Path: path})
		}
	}

	return results
}

func idKnown(shortID string, knownIDs map[string]struct{}) bool {
	for full := range knownIDs {
		if strings.HasPrefix(full, shortID) {
			return true
		}
	}

	return false
}

// purgeExcluded deletes every file under the subtree of each excluded
// folder, without per-file timestamp checks. Toggling a folder into the
// exclusion list purges it even when no document update would otherwise
// trigger a rewrite, which is what keeps exclusions converging across
// machines sharing the output directory. Returns the number of files
// deleted.
func (s *Syncer) purgeExcluded() int {
	deleted := 0

	for name := range s.excluded {
		dir := filepath.Join(s.root, SanitizeFolder(name))

		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}

		s.logger.Debug("purging excluded folder", slog.String("path", dir))

		err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil //nolint:nilerr // best effort: unreadable entries are skipped
			}

			if rmErr := os.Remove(path); rmErr != nil {
				s.logger.Warn("deleting excluded file failed",
					slog.String("path", path),
					slog.String("error", rmErr.Error()),
				)

				return nil
			}

			deleted++

			return nil
		})
		if err != nil {
			s.logger.Warn("walking excluded folder failed",
				slog.String("path", dir),
				slog.String("error", err.Error()),
			)
		}
	}

	return deleted
}

// pruneEmptyDirs removes directories left empty by deletions, deepest
// first, excluding the root itself. os.Remove fails on non-empty
// directories, which is exactly the check needed.
func (s *Syncer) pruneEmptyDirs() {
	var dirs []string

	_ = filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // best effort
		}

		if d.IsDir() && path != s.root {
			dirs = append(dirs, path)
		}

		return nil
	})

	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))

	for _, dir := range dirs {
		if err := os.Remove(dir); err == nil {
			s.logger.Debug("removed empty folder", slog.String("path", dir))
		}
	}
}

// String renders the stats in the order the CLI reports them.
func (st Stats) String() string {
	return fmt.Sprintf("%d added, %d updated, %d moved, %d deleted, %d skipped",
		st.Added, st.Updated, st.Moved, st.Deleted, st.Skipped)
}

package syncdir

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

const (
	// Extension is the suffix of every file the syncer owns. Files
	// without it are invisible to the scanner and never touched.
	Extension = ".txt"

	// shortIDLen is the number of leading document-ID characters embedded
	// in filenames. The suffix is the only identity persisted to disk, so
	// two full IDs sharing an 8-character prefix are indistinguishable
	// after export. Known limitation carried over from existing trees.
	shortIDLen = 8

	// maxTitleLen caps the sanitized title portion of a filename, leaving
	// room for the date prefix and ID suffix.
	maxTitleLen = 70

	// maxFolderLen caps sanitized folder directory names.
	maxFolderLen = 100

	fallbackTitle  = "untitled"
	fallbackFolder = "unnamed_folder"
)

// invalidChars matches characters that are illegal in filenames on at
// least one of Windows, macOS, or Linux.
var (
	invalidChars      = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	repeatUnderscores = regexp.MustCompile(`_+`)
)

// ShortID returns the identity suffix embedded in filenames: the first
// 8 characters of the document ID, or the whole ID when shorter.
func ShortID(id string) string {
	if len(id) >= shortIDLen {
		return id[:shortIDLen]
	}

	return id
}

// Encode builds the filename for a document:
//
//	<YYYY-MM-DD>_<sanitized title>_<short id>.txt
//
// The result is deterministic; two documents with identical titles and
// dates never collide because the ID suffix differs.
func Encode(title, id string, createdAt time.Time) string {
	name := sanitize(title, fallbackTitle, maxTitleLen)
	return createdAt.Format("2006-01-02") + "_" + name + "_" + ShortID(id) + Extension
}

// Decode extracts the short document ID from a filename produced by
// Encode. Returns "" for filenames that do not carry a recognizable ID
// suffix; such files are ignored by the scanner rather than treated as
// orphans.
func Decode(filename string) string {
	name := strings.TrimSuffix(filename, Extension)

	idx := strings.LastIndex(name, "_")
	if idx == -1 || idx == len(name)-1 {
		return ""
	}

	id := name[idx+1:]
	if len(id) < shortIDLen {
		return ""
	}

	return id[:shortIDLen]
}

// SanitizeFolder converts a folder display name into a directory name
// safe on common filesystems.
func SanitizeFolder(name string) string {
	return sanitize(name, fallbackFolder, maxFolderLen)
}

// sanitize strips illegal characters, collapses repeated separators,
// trims, caps length, and falls back to a fixed placeholder when nothing
// survives. Input is NFC-normalized first so the same name always maps
// to the same bytes regardless of how the source composed it.
func sanitize(name, fallback string, maxLen int) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		name = fallback
	}

	name = invalidChars.ReplaceAllString(name, "_")
	name = repeatUnderscores.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")

	if name == "" {
		name = fallback
	}

	// Cap by runes, not bytes, so a multi-byte character is never split.
	if runes := []rune(name); len(runes) > maxLen {
		name = string(runes[:maxLen])
	}

	return name
}

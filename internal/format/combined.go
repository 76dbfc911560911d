package format

import (
	"fmt"
	"strings"

	"github.com/alexjbarnes/granola-sync/internal/granola"
)

const headerRule = 80

// Combined renders the full export body for a document: a framed header
// with its metadata, then the notes and transcript sections. Empty
// sections carry an explicit placeholder so a reader can tell absence
// from truncation.
func Combined(doc granola.Document, folders []string, notes, transcript string) string {
	rule := strings.Repeat("=", headerRule)

	var b strings.Builder

	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Title: %s\n", titleOrDefault(doc.Title))
	fmt.Fprintf(&b, "ID: %s\n", doc.ID)

	if doc.CreatedAt != "" {
		fmt.Fprintf(&b, "Created: %s\n", doc.CreatedAt)
	}

	if doc.UpdatedAt != "" {
		fmt.Fprintf(&b, "Updated: %s\n", doc.UpdatedAt)
	}

	if len(folders) > 0 {
		fmt.Fprintf(&b, "Folders: %s\n", strings.Join(folders, ", "))
	}

	b.WriteString(rule + "\n\n")

	b.WriteString("## Notes\n\n")

	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		b.WriteString(trimmed + "\n")
	} else {
		b.WriteString("(No notes)\n")
	}

	b.WriteString("\n## Transcript\n\n")

	if trimmed := strings.TrimSpace(transcript); trimmed != "" {
		b.WriteString(trimmed + "\n")
	} else {
		b.WriteString("(No transcript available)\n")
	}

	return b.String()
}

func titleOrDefault(title string) string {
	if strings.TrimSpace(title) == "" {
		return "Untitled"
	}

	return title
}

package format

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alexjbarnes/granola-sync/internal/granola"
)

// frontmatter is the YAML block at the top of a Markdown export.
type frontmatter struct {
	ID      string   `yaml:"id"`
	Created string   `yaml:"created,omitempty"`
	Updated string   `yaml:"updated,omitempty"`
	Tags    []string `yaml:"tags,omitempty"`
}

// Markdown renders a document as Markdown with YAML frontmatter, used
// for webhook payloads. The body is the document's notes.
func Markdown(doc granola.Document) string {
	fm := frontmatter{
		ID:      doc.ID,
		Created: doc.CreatedAt,
		Updated: doc.UpdatedAt,
		Tags:    doc.Tags,
	}

	var b strings.Builder

	encoded, err := yaml.Marshal(fm)
	if err == nil {
		b.WriteString("---\n")
		b.Write(encoded)
		b.WriteString("---\n\n")
	}

	fmt.Fprintf(&b, "# %s\n\n", titleOrDefault(doc.Title))

	if notes := strings.TrimSpace(doc.NotesMarkdown()); notes != "" {
		b.WriteString(notes + "\n")
	}

	return b.String()
}

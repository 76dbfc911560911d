package granola

import (
	"encoding/json"
	"strings"

	"github.com/alexjbarnes/granola-sync/internal/prosemirror"
)

// NoteDoc wraps a ProseMirror document field that the API serves either
// as an embedded JSON object or as a double-encoded JSON string. HTML
// strings (legacy panels) and anything unparsable decode to nil rather
// than failing the whole document.
type NoteDoc struct {
	Doc *prosemirror.Doc
}

// UnmarshalJSON accepts null, an object, or a JSON string containing an
// object. It never returns an error for content it cannot interpret;
// the field is simply absent.
func (n *NoteDoc) UnmarshalJSON(data []byte) error {
	n.Doc = nil

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil
	}

	if strings.HasPrefix(trimmed, "{") {
		var doc prosemirror.Doc
		if err := json.Unmarshal(data, &doc); err == nil {
			n.Doc = &doc
		}

		return nil
	}

	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil //nolint:nilerr // unparsable content means no notes
		}

		inner = strings.TrimSpace(inner)
		if inner == "" || strings.HasPrefix(inner, "<") {
			// HTML content: callers fall back to OriginalContent.
			return nil
		}

		var doc prosemirror.Doc
		if err := json.Unmarshal([]byte(inner), &doc); err == nil {
			n.Doc = &doc
		}
	}

	return nil
}

// MarshalJSON round-trips the wrapped document as a plain object.
func (n NoteDoc) MarshalJSON() ([]byte, error) {
	if n.Doc == nil {
		return []byte("null"), nil
	}

	return json.Marshal(n.Doc)
}

// LastViewedPanel carries the rendered panel content for a document.
type LastViewedPanel struct {
	DocumentID      string  `json:"document_id"`
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Content         NoteDoc `json:"content"`
	OriginalContent string  `json:"original_content"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

// Document is a meeting document as served by the get-documents API.
// Cache entries, including shared documents, decode into the same
// shape; those carry pre-rendered notes in NotesMarkdownRaw.
type Document struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Content          string           `json:"content"`
	CreatedAt        string           `json:"created_at"`
	UpdatedAt        string           `json:"updated_at"`
	Tags             []string         `json:"tags"`
	Notes            NoteDoc          `json:"notes"`
	NotesPlain       string           `json:"notes_plain"`
	NotesMarkdownRaw string           `json:"notes_markdown"`
	LastViewedPanel  *LastViewedPanel `json:"last_viewed_panel"`
}

// NotesMarkdown returns the document's AI-generated notes as Markdown,
// trying sources in priority order: the notes field, the last viewed
// panel's ProseMirror content, that panel's raw HTML, and finally the
// raw content field. Returns "" when nothing is available.
func (d *Document) NotesMarkdown() string {
	if d.Notes.Doc != nil {
		if md := prosemirror.ToMarkdown(d.Notes.Doc); strings.TrimSpace(md) != "" {
			return md
		}
	}

	if d.LastViewedPanel != nil {
		if d.LastViewedPanel.Content.Doc != nil {
			return prosemirror.ToMarkdown(d.LastViewedPanel.Content.Doc)
		}

		if d.LastViewedPanel.OriginalContent != "" {
			return d.LastViewedPanel.OriginalContent
		}
	}

	if d.NotesMarkdownRaw != "" {
		return d.NotesMarkdownRaw
	}

	return d.Content
}

// NotesPlainText returns the notes stripped of markup, for consumers
// that want prose rather than Markdown. Falls back through the same
// sources as NotesMarkdown.
func (d *Document) NotesPlainText() string {
	if d.Notes.Doc != nil {
		if text := prosemirror.ToPlainText(d.Notes.Doc); strings.TrimSpace(text) != "" {
			return text
		}
	}

	if d.NotesPlain != "" {
		return d.NotesPlain
	}

	if d.LastViewedPanel != nil && d.LastViewedPanel.Content.Doc != nil {
		return prosemirror.ToPlainText(d.LastViewedPanel.Content.Doc)
	}

	return ""
}

// documentsResponse is the get-documents API envelope.
type documentsResponse struct {
	Docs []Document `json:"docs"`
}

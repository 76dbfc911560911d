// Package prosemirror converts Granola's ProseMirror note documents to
// Markdown or plain text.
package prosemirror

import (
	"regexp"
	"strings"
)

// Node is one node of a ProseMirror document tree.
type Node struct {
	Type    string         `json:"type"`
	Content []Node         `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// Doc is the root of a ProseMirror document.
type Doc struct {
	Type    string `json:"type"`
	Content []Node `json:"content,omitempty"`
}

var excessNewlines = regexp.MustCompile(`\n{3,}`)

// ToMarkdown renders the document as Markdown: headings, paragraphs, and
// bullet lists with tab-indented nesting. Unknown node types contribute
// their text content unformatted.
func ToMarkdown(doc *Doc) string {
	if doc == nil || doc.Type != "doc" || len(doc.Content) == 0 {
		return ""
	}

	var b strings.Builder
	for i := range doc.Content {
		b.WriteString(renderNode(&doc.Content[i], 0, true))
	}

	out := excessNewlines.ReplaceAllString(b.String(), "\n\n")

	return strings.TrimSpace(out) + "\n"
}

func renderNode(node *Node, indent int, topLevel bool) string {
	switch node.Type {
	case "heading":
		return renderHeading(node, indent, topLevel)
	case "paragraph":
		suffix := ""
		if topLevel {
			suffix = "\n\n"
		}

		return renderChildren(node, indent) + suffix
	case "bulletList":
		return renderBulletList(node, indent, topLevel)
	case "text":
		return node.Text
	default:
		return renderChildren(node, indent)
	}
}

func renderChildren(node *Node, indent int) string {
	if len(node.Content) == 0 {
		return node.Text
	}

	var b strings.Builder
	for i := range node.Content {
		b.WriteString(renderNode(&node.Content[i], indent, false))
	}

	return b.String()
}

func renderHeading(node *Node, indent int, topLevel bool) string {
	level := 1
	if raw, ok := node.Attrs["level"]; ok {
		// JSON numbers decode as float64.
		if f, ok := raw.(float64); ok && f >= 1 {
			level = int(f)
		}
	}

	suffix := "\n"
	if topLevel {
		suffix = "\n\n"
	}

	return strings.Repeat("#", level) + " " + strings.TrimSpace(renderChildren(node, indent)) + suffix
}

func renderBulletList(node *Node, indent int, topLevel bool) string {
	if len(node.Content) == 0 {
		return ""
	}

	items := make([]string, 0, len(node.Content))

	for i := range node.Content {
		item := &node.Content[i]
		if item.Type != "listItem" {
			continue
		}

		var (
			text   string
			nested strings.Builder
		)

		for j := range item.Content {
			child := &item.Content[j]
			if child.Type == "bulletList" {
				nested.WriteString("\n")
				nested.WriteString(renderBulletList(child, indent+1, false))

				continue
			}

			if text == "" {
				text = renderNode(child, indent, false)
			}
		}

		prefix := strings.Repeat("\t", indent)
		items = append(items, prefix+"- "+strings.TrimSpace(text)+nested.String())
	}

	suffix := ""
	if topLevel {
		suffix = "\n\n"
	}

	return strings.Join(items, "\n") + suffix
}

// ToPlainText extracts the document's text without any formatting.
// Block nodes separate their children with newlines, inline nodes with
// spaces; top-level blocks are separated by blank lines.
func ToPlainText(doc *Doc) string {
	if doc == nil || doc.Type != "doc" || len(doc.Content) == 0 {
		return ""
	}

	var blocks []string

	for i := range doc.Content {
		if text := extractText(&doc.Content[i]); text != "" {
			blocks = append(blocks, text)
		}
	}

	return strings.TrimSpace(strings.Join(blocks, "\n\n"))
}

func extractText(node *Node) string {
	if node.Text != "" {
		return node.Text
	}

	if len(node.Content) == 0 {
		return ""
	}

	var parts []string

	for i := range node.Content {
		if text := extractText(&node.Content[i]); text != "" {
			parts = append(parts, text)
		}
	}

	sep := " "

	switch node.Type {
	case "paragraph", "heading", "listItem":
		sep = "\n"
	}

	return strings.Join(parts, sep)
}

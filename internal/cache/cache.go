// Package cache reads the Granola desktop app's local cache-v3.json.
// The file is double-encoded: the outer object holds a "cache" key whose
// string value is itself the JSON application state. Transcripts and
// folder membership only exist here, not in the HTTP API.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/tidwall/gjson"

	"github.com/alexjbarnes/granola-sync/internal/errors"
	"github.com/alexjbarnes/granola-sync/internal/granola"
)

// Segment is one utterance in a meeting transcript.
type Segment struct {
	ID             string `json:"id"`
	DocumentID     string `json:"document_id"`
	StartTimestamp string `json:"start_timestamp"`
	EndTimestamp   string `json:"end_timestamp"`
	Text           string `json:"text"`
	Source         string `json:"source"`
	IsFinal        bool   `json:"is_final"`
}

// Data is the decoded cache state relevant to exporting.
type Data struct {
	// Documents maps document ID to its cached form. Shared documents
	// that only exist in the cache are included.
	Documents map[string]granola.Document

	// Transcripts maps document ID to its segments in stored order.
	Transcripts map[string][]Segment

	folders map[string][]string
}

// FolderNames returns the titles of the folders containing the given
// document, sorted for deterministic output.
func (d *Data) FolderNames(docID string) []string {
	names := d.folders[docID]
	if len(names) == 0 {
		return nil
	}

	out := make([]string, len(names))
	copy(out, names)
	sort.Strings(out)

	return out
}

// Load reads and decodes the cache file at path.
func Load(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cache file: %w", err)
	}

	return Parse(raw)
}

// Parse decodes raw cache file bytes.
func Parse(raw []byte) (*Data, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: not valid JSON", errors.ErrCacheFormat)
	}

	inner := gjson.GetBytes(raw, "cache")
	if !inner.Exists() {
		return nil, fmt.Errorf("%w: missing cache key", errors.ErrCacheFormat)
	}

	state := gjson.Get(inner.String(), "state")
	if !state.Exists() {
		return nil, fmt.Errorf("%w: missing state key", errors.ErrCacheFormat)
	}

	data := &Data{
		Documents:   make(map[string]granola.Document),
		Transcripts: make(map[string][]Segment),
		folders:     make(map[string][]string),
	}

	state.Get("documents").ForEach(func(key, value gjson.Result) bool {
		var doc granola.Document
		if err := json.Unmarshal([]byte(value.Raw), &doc); err != nil {
			return true
		}

		if doc.ID == "" {
			doc.ID = key.String()
		}

		data.Documents[doc.ID] = doc

		return true
	})

	state.Get("sharedDocuments").ForEach(func(_, value gjson.Result) bool {
		var doc granola.Document
		if err := json.Unmarshal([]byte(value.Raw), &doc); err != nil {
			return true
		}

		if doc.ID == "" {
			return true
		}

		if _, exists := data.Documents[doc.ID]; !exists {
			data.Documents[doc.ID] = doc
		}

		return true
	})

	state.Get("transcripts").ForEach(func(key, value gjson.Result) bool {
		var segments []Segment
		if err := json.Unmarshal([]byte(value.Raw), &segments); err != nil {
			return true
		}

		data.Transcripts[key.String()] = segments

		return true
	})

	// documentListsMetadata names the folders; documentLists maps each
	// folder ID to its member document IDs.
	titles := make(map[string]string)

	state.Get("documentListsMetadata").ForEach(func(key, value gjson.Result) bool {
		if title := value.Get("title").String(); title != "" {
			titles[key.String()] = title
		}

		return true
	})

	state.Get("documentLists").ForEach(func(key, value gjson.Result) bool {
		title, ok := titles[key.String()]
		if !ok {
			return true
		}

		value.ForEach(func(_, member gjson.Result) bool {
			docID := member.String()
			data.folders[docID] = append(data.folders[docID], title)

			return true
		})

		return true
	})

	return data, nil
}

package webhook

import "time"

// Event names sent to endpoints.
const (
	EventDocumentCreated = "document.created"
	EventDocumentUpdated = "document.updated"
)

// DocumentPayload is the document portion of a webhook payload.
type DocumentPayload struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	CreatedAt         string   `json:"created_at,omitempty"`
	UpdatedAt         string   `json:"updated_at,omitempty"`
	Folders           []string `json:"folders,omitempty"`
	MarkdownContent   string   `json:"markdown_content,omitempty"`
	NotesContent      string   `json:"notes_content,omitempty"`
	TranscriptContent string   `json:"transcript_content,omitempty"`
	HasNotes          bool     `json:"has_notes"`
	HasTranscript     bool     `json:"has_transcript"`
}

// Payload is the full body delivered to an endpoint.
type Payload struct {
	Event     string          `json:"event"`
	Timestamp string          `json:"timestamp"`
	Document  DocumentPayload `json:"document"`

	// WebhookFolderFilters echoes the endpoint's folder filter so the
	// receiver can tell why it was selected.
	WebhookFolderFilters []string `json:"webhook_folder_filters,omitempty"`
}

// NewPayload builds a payload stamped with the current UTC time.
func NewPayload(event string, doc DocumentPayload, filters []string) Payload {
	return Payload{
		Event:                event,
		Timestamp:            time.Now().UTC().Format(time.RFC3339),
		Document:             doc,
		WebhookFolderFilters: filters,
	}
}

package e2e_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexjbarnes/granola-sync/internal/granola"
	"github.com/alexjbarnes/granola-sync/internal/syncdir"
	"github.com/alexjbarnes/granola-sync/internal/webhook"
)

func meetingDoc(id, title string) granola.Document {
	return granola.Document{
		ID:        id,
		Title:     title,
		Content:   "notes for " + title,
		CreatedAt: "2025-06-01T10:00:00Z",
		UpdatedAt: "2025-06-01T11:00:00Z",
	}
}

// --- full pipeline ---

func TestExport_FullPipeline(t *testing.T) {
	h := newHarness(t)
	h.writeCache(`{
		"documents": {},
		"transcripts": {
			"aaaa1111-e2e0": [
				{"source": "microphone", "start_timestamp": "2025-06-01T10:00:05Z", "text": "Good morning"},
				{"source": "system", "start_timestamp": "2025-06-01T10:00:10Z", "text": "Morning"}
			]
		},
		"documentListsMetadata": {"list-1": {"title": "Work"}},
		"documentLists": {"list-1": ["aaaa1111-e2e0"]}
	}`)

	h.setDocs([]granola.Document{
		meetingDoc("aaaa1111-e2e0", "Weekly Standup"),
		meetingDoc("bbbb2222-e2e0", "Quick Chat"),
	})

	stats := h.run()
	assert.Equal(t, 2, stats.Added)

	standup := h.readOutput("Work", "2025-06-01_Weekly Standup_aaaa1111.txt")
	assert.Contains(t, standup, "Title: Weekly Standup")
	assert.Contains(t, standup, "Folders: Work")
	assert.Contains(t, standup, "notes for Weekly Standup")
	assert.Contains(t, standup, "[10:00:05] You: Good morning")
	assert.Contains(t, standup, "[10:00:10] System: Morning")

	chat := h.readOutput(syncdir.UncategorizedFolder, "2025-06-01_Quick Chat_bbbb2222.txt")
	assert.Contains(t, chat, "(No transcript available)")

	// A rerun with nothing changed touches nothing.
	stats = h.run()
	assert.Equal(t, 0, stats.Added)
	assert.Equal(t, 0, stats.Updated)
	assert.Equal(t, 2, stats.Skipped)
}

func TestExport_DocumentRemovalDeletesFile(t *testing.T) {
	h := newHarness(t)
	h.setDocs([]granola.Document{meetingDoc("cccc3333-e2e0", "Ephemeral")})

	h.run()
	path := h.outputPath(syncdir.UncategorizedFolder, "2025-06-01_Ephemeral_cccc3333.txt")
	require.FileExists(t, path)

	h.setDocs(nil)

	stats := h.run()
	assert.Equal(t, 1, stats.Deleted)
	assert.NoFileExists(t, path)
	assert.NoDirExists(t, h.outputPath(syncdir.UncategorizedFolder))
}

func TestExport_TitleRename(t *testing.T) {
	h := newHarness(t)
	h.setDocs([]granola.Document{meetingDoc("dddd4444-e2e0", "Draft Name")})
	h.run()

	renamed := meetingDoc("dddd4444-e2e0", "Final Name")
	renamed.UpdatedAt = "2099-01-01T00:00:00Z"
	h.setDocs([]granola.Document{renamed})
	h.run()

	assert.NoFileExists(t, h.outputPath(syncdir.UncategorizedFolder, "2025-06-01_Draft Name_dddd4444.txt"))
	assert.FileExists(t, h.outputPath(syncdir.UncategorizedFolder, "2025-06-01_Final Name_dddd4444.txt"))
}

func TestExport_Pagination(t *testing.T) {
	h := newHarness(t)

	docs := make([]granola.Document, 104)
	for i := range docs {
		docs[i] = meetingDoc(fmt.Sprintf("page%04d-e2e0", i), fmt.Sprintf("Meeting %03d", i))
	}

	h.setDocs(docs)

	stats := h.run()
	assert.Equal(t, 104, stats.Added)
	assert.FileExists(t, h.outputPath(syncdir.UncategorizedFolder, "2025-06-01_Meeting 103_page0103.txt"))
}

func TestExport_TokenRotation(t *testing.T) {
	h := newHarness(t)
	h.setDocs([]granola.Document{meetingDoc("eeee5555-e2e0", "Before Rotation")})
	h.run()

	// Granola rotated the token; the exporter re-reads the credential
	// file on the next pass.
	h.writeSupabase("rotated-token")

	h.setDocs([]granola.Document{meetingDoc("eeee5555-e2e0", "Before Rotation")})
	stats := h.run()
	assert.Equal(t, 1, stats.Skipped)
}

// --- exclusions ---

func TestExport_ExcludedFolderPurged(t *testing.T) {
	h := newHarness(t)
	h.writeCache(`{
		"documents": {},
		"transcripts": {},
		"documentListsMetadata": {"list-1": {"title": "Private"}},
		"documentLists": {"list-1": ["ffff6666-e2e0"]}
	}`)
	h.setDocs([]granola.Document{meetingDoc("ffff6666-e2e0", "Sensitive")})

	h.run()
	require.FileExists(t, h.outputPath("Private", "2025-06-01_Sensitive_ffff6666.txt"))

	h.cfg.ExcludedFolders = []string{"Private"}

	h.run()
	assert.NoDirExists(t, h.outputPath("Private"))
	assert.FileExists(t, h.outputPath(syncdir.UncategorizedFolder, "2025-06-01_Sensitive_ffff6666.txt"))

	// The exclusion rides along in the output directory for other
	// machines.
	sidecar := syncdir.LoadConfig(h.cfg.OutputDir)
	require.NotNil(t, sidecar)
	assert.Equal(t, []string{"Private"}, sidecar.ExcludedFolders)
}

// --- webhooks ---

func TestExport_WebhookDeliveryAndHistory(t *testing.T) {
	var hits atomic.Int32

	receiver := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		hits.Add(1)
	}))
	t.Cleanup(receiver.Close)

	h := newHarness(t)
	h.withWebhooks([]webhook.Endpoint{
		{Name: "notify", URL: receiver.URL, Method: "POST", Enabled: true},
	})

	h.setDocs([]granola.Document{meetingDoc("abab7777-e2e0", "Announced")})

	h.run()
	assert.Equal(t, int32(1), hits.Load())

	deliveries, err := h.history.List(0)
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	assert.Equal(t, webhook.EventDocumentCreated, deliveries[0].Event)
	assert.Equal(t, "abab7777-e2e0", deliveries[0].DocumentID)
	assert.True(t, deliveries[0].Success)

	// Unchanged pass: no new deliveries.
	h.setDocs([]granola.Document{meetingDoc("abab7777-e2e0", "Announced")})
	h.run()
	assert.Equal(t, int32(1), hits.Load())
}

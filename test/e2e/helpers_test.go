package e2e_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexjbarnes/granola-sync/internal/config"
	"github.com/alexjbarnes/granola-sync/internal/exporter"
	"github.com/alexjbarnes/granola-sync/internal/granola"
	"github.com/alexjbarnes/granola-sync/internal/syncdir"
	"github.com/alexjbarnes/granola-sync/internal/webhook"
)

const testToken = "e2e-access-token"

// harness wires a fake Granola API, credential and cache fixtures, and
// a real exporter against a temp output directory.
type harness struct {
	t *testing.T

	mu   sync.Mutex
	docs []granola.Document

	apiServer    *httptest.Server
	supabasePath string
	cfg          *config.Config
	settings     *exporter.SettingsStore
	dispatcher   *webhook.Dispatcher
	history      *webhook.History
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dir := t.TempDir()

	h := &harness{
		t:            t,
		supabasePath: filepath.Join(dir, "supabase.json"),
		cfg: &config.Config{
			CacheFile: filepath.Join(dir, "cache-v3.json"),
			OutputDir: filepath.Join(dir, "out"),
		},
		settings: exporter.LoadSettings(filepath.Join(dir, "settings.json")),
	}

	h.writeSupabase(testToken)

	h.apiServer = httptest.NewServer(http.HandlerFunc(h.handleGetDocuments))
	t.Cleanup(h.apiServer.Close)

	return h
}

// withWebhooks attaches a dispatcher recording into a temp history db.
func (h *harness) withWebhooks(endpoints []webhook.Endpoint) {
	h.t.Helper()

	history, err := webhook.OpenHistoryAt(filepath.Join(h.t.TempDir(), "webhooks.db"))
	require.NoError(h.t, err)
	h.t.Cleanup(func() { history.Close() })

	h.history = history
	h.dispatcher = webhook.NewDispatcher(endpoints, webhook.NewClient(nil), history, quietLogger())
}

func (h *harness) writeSupabase(token string) {
	h.t.Helper()

	workos, err := json.Marshal(map[string]string{"access_token": token})
	require.NoError(h.t, err)

	outer, err := json.Marshal(map[string]string{"workos_tokens": string(workos)})
	require.NoError(h.t, err)

	require.NoError(h.t, os.WriteFile(h.supabasePath, outer, 0o600))
}

// writeCache writes the double-encoded cache file with the given state
// JSON.
func (h *harness) writeCache(state string) {
	h.t.Helper()

	outer, err := json.Marshal(map[string]string{"cache": `{"state": ` + state + `}`})
	require.NoError(h.t, err)
	require.NoError(h.t, os.WriteFile(h.cfg.CacheFile, outer, 0o600))
}

func (h *harness) setDocs(docs []granola.Document) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.docs = docs
}

// handleGetDocuments serves the paginated get-documents endpoint the
// way the real API does: limit/offset in the POST body, short final
// page.
func (h *harness) handleGetDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/v2/get-documents" {
		http.NotFound(w, r)
		return
	}

	if r.Header.Get("Authorization") != "Bearer "+h.currentToken() {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	}

	body, _ := io.ReadAll(r.Body)
	if err := json.Unmarshal(body, &req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	docs := h.docs
	h.mu.Unlock()

	start := min(req.Offset, len(docs))
	end := min(start+req.Limit, len(docs))

	_ = json.NewEncoder(w).Encode(map[string]any{"docs": docs[start:end]})
}

func (h *harness) currentToken() string {
	data, err := os.ReadFile(h.supabasePath)
	if err != nil {
		return ""
	}

	var outer struct {
		WorkosTokens string `json:"workos_tokens"`
	}
	if err := json.Unmarshal(data, &outer); err != nil {
		return ""
	}

	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal([]byte(outer.WorkosTokens), &tokens); err != nil {
		return ""
	}

	return tokens.AccessToken
}

// run executes one sync pass through the full stack.
func (h *harness) run() syncdir.Stats {
	h.t.Helper()

	client := granola.NewClient(
		granola.SupabaseToken(h.supabasePath),
		granola.WithBaseURL(h.apiServer.URL),
	)

	exp := exporter.New(h.cfg, client, h.settings, h.dispatcher, quietLogger())

	stats, err := exp.Run(context.Background())
	require.NoError(h.t, err)

	return stats
}

func (h *harness) outputPath(parts ...string) string {
	return filepath.Join(append([]string{h.cfg.OutputDir}, parts...)...)
}

func (h *harness) readOutput(parts ...string) string {
	h.t.Helper()

	data, err := os.ReadFile(h.outputPath(parts...))
	require.NoError(h.t, err)

	return string(data)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

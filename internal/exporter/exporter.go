// Package exporter orchestrates a sync pass: fetch documents from the
// Granola API, enrich them with transcripts and folders from the local
// cache, reconcile the output directory, and announce changes to
// webhooks.
package exporter

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/alexjbarnes/granola-sync/internal/cache"
	"github.com/alexjbarnes/granola-sync/internal/config"
	"github.com/alexjbarnes/granola-sync/internal/format"
	"github.com/alexjbarnes/granola-sync/internal/granola"
	"github.com/alexjbarnes/granola-sync/internal/syncdir"
	"github.com/alexjbarnes/granola-sync/internal/webhook"
)

// ErrPassInProgress is returned when Run is called while a previous
// pass is still executing.
var ErrPassInProgress = errors.New("sync pass already in progress")

//go:generate mockgen -source=exporter.go -destination=mock_fetcher_test.go -package=exporter DocumentFetcher

// DocumentFetcher fetches the full document set from the Granola API.
type DocumentFetcher interface {
	GetDocuments(ctx context.Context) ([]granola.Document, error)
}

// Exporter runs sync passes. Create with New; safe to trigger from
// multiple goroutines, but overlapping passes are rejected rather than
// queued.
type Exporter struct {
	cfg        *config.Config
	fetcher    DocumentFetcher
	settings   *SettingsStore
	dispatcher *webhook.Dispatcher
	logger     *slog.Logger

	running atomic.Bool
}

// New creates an exporter. The dispatcher may be nil when no webhooks
// are configured.
func New(cfg *config.Config, fetcher DocumentFetcher, settings *SettingsStore, dispatcher *webhook.Dispatcher, logger *slog.Logger) *Exporter {
	return &Exporter{
		cfg:        cfg,
		fetcher:    fetcher,
		settings:   settings,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// exportDoc is one document prepared for writing, carrying the rendered
// pieces the webhook payload also needs.
type exportDoc struct {
	doc        granola.Document
	folders    []string
	notes      string
	transcript string
	body       string
}

// Run executes one full sync pass.
func (e *Exporter) Run(ctx context.Context) (syncdir.Stats, error) {
	if !e.running.CompareAndSwap(false, true) {
		return syncdir.Stats{}, ErrPassInProgress
	}
	defer e.running.Store(false)

	start := time.Now()

	apiDocs, err := e.fetcher.GetDocuments(ctx)
	if err != nil {
		return syncdir.Stats{}, err
	}

	e.logger.Debug("fetched documents", slog.Int("count", len(apiDocs)))

	cacheData := e.loadCache()

	prepared, knownIDs := e.prepare(apiDocs, cacheData)

	excluded := e.effectiveExclusions()

	syncer := syncdir.NewSyncer(e.cfg.OutputDir, excluded, e.logger)

	docs := make([]syncdir.Document, 0, len(prepared))
	byID := make(map[string]exportDoc, len(prepared))

	for _, p := range prepared {
		docs = append(docs, syncdir.Document{
			ID:        p.doc.ID,
			Title:     p.doc.Title,
			CreatedAt: parseTimeOr(p.doc.CreatedAt, start),
			UpdatedAt: parseTimeOr(p.doc.UpdatedAt, start),
			Body:      p.body,
			Folders:   p.folders,
		})
		byID[p.doc.ID] = p
	}

	stats, results, err := syncer.Sync(docs, knownIDs)
	if err != nil {
		return stats, err
	}

	e.saveSidecar(excluded)

	e.announce(ctx, results, byID)

	e.logger.Info("sync pass complete",
		slog.String("stats", stats.String()),
		slog.Duration("elapsed", time.Since(start)),
	)

	return stats, nil
}

// loadCache reads the local cache. Cache failures degrade the pass
// (no transcripts, no folders) instead of aborting it.
func (e *Exporter) loadCache() *cache.Data {
	data, err := cache.Load(e.cfg.CacheFile)
	if err != nil {
		e.logger.Warn("reading granola cache failed",
			slog.String("path", e.cfg.CacheFile),
			slog.String("error", err.Error()),
		)

		return &cache.Data{
			Documents:   map[string]granola.Document{},
			Transcripts: map[string][]cache.Segment{},
		}
	}

	return data
}

// prepare merges API documents with cache-only ones, renders each
// document's body, and drops documents with neither notes nor
// transcript. knownIDs covers every document seen anywhere, including
// the dropped ones, so their files are never treated as orphans.
func (e *Exporter) prepare(apiDocs []granola.Document, cacheData *cache.Data) ([]exportDoc, map[string]struct{}) {
	knownIDs := make(map[string]struct{}, len(apiDocs)+len(cacheData.Documents))

	merged := make([]granola.Document, 0, len(apiDocs)+len(cacheData.Documents))

	for _, doc := range apiDocs {
		if doc.ID == "" {
			continue
		}

		knownIDs[doc.ID] = struct{}{}
		merged = append(merged, doc)
	}

	for id, doc := range cacheData.Documents {
		if _, seen := knownIDs[id]; seen {
			continue
		}

		knownIDs[id] = struct{}{}
		merged = append(merged, doc)
	}

	var prepared []exportDoc

	for _, doc := range merged {
		folders := cacheData.FolderNames(doc.ID)
		notes := doc.NotesMarkdown()
		transcript := format.Transcript(cacheData.Transcripts[doc.ID])

		if notes == "" && transcript == "" {
			e.logger.Debug("skipping empty document", slog.String("id", doc.ID))
			continue
		}

		prepared = append(prepared, exportDoc{
			doc:        doc,
			folders:    folders,
			notes:      notes,
			transcript: transcript,
			body:       format.Combined(doc, folders, notes, transcript),
		})
	}

	return prepared, knownIDs
}

// effectiveExclusions merges the locally configured exclusion list with
// the sidecar in the output directory. The newer side wins; when the
// sidecar wins, the local settings are updated to match.
func (e *Exporter) effectiveExclusions() []string {
	local := e.settings.Get().ExcludedFolders

	// Environment configuration overrides whatever was stored.
	if len(e.cfg.ExcludedFolders) > 0 && !equalFolders(local, e.cfg.ExcludedFolders) {
		if err := e.settings.SetExcluded(e.cfg.ExcludedFolders, time.Now()); err != nil {
			e.logger.Warn("persisting exclusion settings failed", slog.String("error", err.Error()))
		}

		local = e.cfg.ExcludedFolders
	}

	sidecar := syncdir.LoadConfig(e.cfg.OutputDir)

	effective, overridden := syncdir.MergeExclusions(local, e.settings.UpdatedTime(), sidecar)
	if overridden {
		e.logger.Info("exclusion list updated from sync config",
			slog.Int("folders", len(effective)),
		)

		if err := e.settings.SetExcluded(effective, time.Now()); err != nil {
			e.logger.Warn("persisting exclusion settings failed", slog.String("error", err.Error()))
		}
	}

	return effective
}

// saveSidecar writes the effective exclusion list back to the output
// directory for other machines sharing it.
func (e *Exporter) saveSidecar(excluded []string) {
	err := syncdir.SaveConfig(e.cfg.OutputDir, syncdir.Config{ExcludedFolders: excluded})
	if err != nil {
		e.logger.Warn("writing sync config failed", slog.String("error", err.Error()))
	}
}

// announce dispatches one webhook event per changed document. A
// document written to several folders still produces a single event;
// created wins over updated when both happened in the same pass.
func (e *Exporter) announce(ctx context.Context, results []syncdir.Result, byID map[string]exportDoc) {
	if e.dispatcher == nil {
		return
	}

	events := make(map[string]string)

	var order []string

	for _, r := range results {
		var event string

		switch r.Action {
		case syncdir.ActionAdded:
			event = webhook.EventDocumentCreated
		case syncdir.ActionUpdated:
			event = webhook.EventDocumentUpdated
		default:
			continue
		}

		prev, seen := events[r.DocumentID]
		if !seen {
			order = append(order, r.DocumentID)
		}

		if seen && prev == webhook.EventDocumentCreated {
			continue
		}

		events[r.DocumentID] = event
	}

	for _, id := range order {
		p, ok := byID[id]
		if !ok {
			continue
		}

		notesContent := p.doc.NotesPlainText()
		if notesContent == "" {
			notesContent = p.notes
		}

		e.dispatcher.Dispatch(ctx, events[id], webhook.DocumentPayload{
			ID:                p.doc.ID,
			Title:             p.doc.Title,
			CreatedAt:         p.doc.CreatedAt,
			UpdatedAt:         p.doc.UpdatedAt,
			Folders:           p.folders,
			MarkdownContent:   format.Markdown(p.doc),
			NotesContent:      notesContent,
			TranscriptContent: p.transcript,
			HasNotes:          p.notes != "",
			HasTranscript:     p.transcript != "",
		})
	}
}

func parseTimeOr(value string, fallback time.Time) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return fallback
	}

	return t
}

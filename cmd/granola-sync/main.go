package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alexjbarnes/granola-sync/internal/config"
	"github.com/alexjbarnes/granola-sync/internal/errors"
	"github.com/alexjbarnes/granola-sync/internal/exporter"
	"github.com/alexjbarnes/granola-sync/internal/granola"
	"github.com/alexjbarnes/granola-sync/internal/logging"
	"github.com/alexjbarnes/granola-sync/internal/webhook"
)

var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// "once" runs a single pass and exits instead of starting the daemon.
	once := len(os.Args) > 1 && os.Args[1] == "once"

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.NewLogger(cfg.Environment)
	logger.Info("granola-sync starting",
		slog.String("version", Version),
		slog.String("output_dir", cfg.OutputDir),
		slog.Duration("interval", cfg.SyncInterval),
		slog.Bool("watch", cfg.EnableWatch),
		slog.Bool("once", once),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exp, settings, history, err := buildExporter(cfg, logger)
	if err != nil {
		return err
	}

	if history != nil {
		defer history.Close()
	}

	if once {
		_, err := exp.Run(ctx)
		return err
	}

	return runDaemon(ctx, cfg, exp, settings, logger)
}

// buildExporter wires the API client, settings store, and webhook
// dispatcher into an exporter. The returned history is nil when no
// webhooks are configured.
func buildExporter(cfg *config.Config, logger *slog.Logger) (*exporter.Exporter, *exporter.SettingsStore, *webhook.History, error) {
	client := granola.NewClient(
		granola.SupabaseToken(cfg.SupabaseFile),
		granola.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
	)

	settingsPath, err := exporter.DefaultSettingsPath()
	if err != nil {
		return nil, nil, nil, err
	}

	settings := exporter.LoadSettings(settingsPath)

	var (
		dispatcher *webhook.Dispatcher
		history    *webhook.History
	)

	if cfg.WebhooksFile != "" {
		endpoints, err := webhook.LoadEndpoints(cfg.WebhooksFile)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("loading webhooks: %w", err)
		}

		if len(endpoints) > 0 {
			history, err = webhook.OpenHistory()
			if err != nil {
				logger.Warn("opening webhook history failed, deliveries will not be recorded",
					slog.String("error", err.Error()),
				)
			}

			dispatcher = webhook.NewDispatcher(endpoints, webhook.NewClient(nil), history, logger)
			logger.Info("webhooks enabled", slog.Int("endpoints", len(endpoints)))
		}
	}

	return exporter.New(cfg, client, settings, dispatcher, logger), settings, history, nil
}

// runDaemon runs sync passes on a fixed interval and, when enabled, on
// cache file changes. Transient pass failures are logged and retried on
// the next trigger; fatal ones stop the daemon.
func runDaemon(ctx context.Context, cfg *config.Config, exp *exporter.Exporter, settings *exporter.SettingsStore, logger *slog.Logger) error {
	trigger := make(chan struct{}, 1)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.EnableWatch {
		watcher := exporter.NewCacheWatcher(cfg.CacheFile, logger)
		g.Go(func() error {
			return watcher.Watch(gctx, trigger)
		})
	}

	settingsUpdates := settings.Subscribe()
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case s := <-settingsUpdates:
				logger.Info("exclusion list changed",
					slog.Int("folders", len(s.ExcludedFolders)),
				)
			}
		}
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()

		// First pass immediately on startup.
		if err := runPass(gctx, exp, logger); err != nil {
			return err
		}

		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
			case <-trigger:
				logger.Info("cache changed, running sync pass early")
			}

			if err := runPass(gctx, exp, logger); err != nil {
				return err
			}
		}
	})

	err := g.Wait()
	if err != nil && ctx.Err() != nil {
		// Normal shutdown via signal.
		logger.Info("shutting down")
		return nil
	}

	return err
}

func runPass(ctx context.Context, exp *exporter.Exporter, logger *slog.Logger) error {
	_, err := exp.Run(ctx)
	if err == nil || ctx.Err() != nil {
		return ctx.Err()
	}

	if errors.IsFatal(err) {
		return err
	}

	logger.Warn("sync pass failed, will retry", slog.String("error", err.Error()))

	return nil
}

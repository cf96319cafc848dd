package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/allie/internal/app"
	"github.com/felixgeelhaar/allie/pkg/config"
	"github.com/felixgeelhaar/allie/pkg/observability"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	logger.Info("starting allie worker")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Update logger level based on config
	if cfg.IsDevelopment() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	g, gctx := errgroup.WithContext(ctx)

	// Live inbox feed; with auto-processing on it also drives classification.
	g.Go(func() error {
		return container.FeedWorker.Run(gctx)
	})

	// Broker events to the CalDAV mirror and other subscribers.
	g.Go(func() error {
		return container.StartConsumers(gctx)
	})

	if container.OutboxProcessor != nil {
		if err := container.OutboxProcessor.Start(gctx); err != nil {
			logger.Error("failed to start outbox processor", "error", err)
			os.Exit(1)
		}
		g.Go(func() error {
			runOutboxMaintenance(gctx, container, cfg, logger)
			return nil
		})
	}

	if cfg.WorkerHealthAddr != "" {
		healthSrv := newHealthServer(cfg.WorkerHealthAddr, container)
		g.Go(func() error {
			logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
			if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := healthSrv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("health server shutdown error", "error", err)
			}
			return nil
		})
	}

	err = g.Wait()
	logger.Info("shutting down worker")
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped with error", "error", err)
		container.Close()
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

func newHealthServer(addr string, container *app.Container) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		report := container.Health.Check(r.Context())
		response := map[string]any{
			"status":       report.Status,
			"checks":       report.Checks,
			"feed_running": container.FeedWorker.IsRunning(),
			"in_flight":    container.InboxState.InFlight(),
		}
		if container.OutboxProcessor != nil {
			stats := container.OutboxProcessor.GetStats()
			response["outbox"] = map[string]any{
				"running":           stats.IsRunning,
				"published":         stats.PublishedCount,
				"failed":            stats.FailedCount,
				"dead":              stats.DeadCount,
				"last_processed_at": stats.LastProcessedAt,
				"last_error":        stats.LastError,
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if report.Status == observability.HealthStatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(response)
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !container.FeedWorker.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "not_ready"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ready"})
	})

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func runOutboxMaintenance(ctx context.Context, container *app.Container, cfg *config.Config, logger *slog.Logger) {
	cleanupTicker := time.NewTicker(cfg.OutboxCleanupInterval)
	defer cleanupTicker.Stop()
	statsTicker := time.NewTicker(cfg.OutboxStatsInterval)
	defer statsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cleanupTicker.C:
			deleted, err := container.OutboxRepo.DeleteOld(ctx, cfg.OutboxRetentionDays)
			if err != nil {
				logger.Error("outbox cleanup failed", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("outbox cleanup completed", "deleted", deleted, "retention_days", cfg.OutboxRetentionDays)
			}
		case <-statsTicker.C:
			stats := container.OutboxProcessor.GetStats()
			logger.Info("outbox stats",
				"published", stats.PublishedCount,
				"failed", stats.FailedCount,
				"dead", stats.DeadCount,
				"lag_seconds", stats.LagSeconds,
				"last_error", stats.LastError,
			)
		}
	}
}

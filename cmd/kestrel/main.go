// Kestrel - Benford and Isolation Forest forensic dashboard.
// Copyright (c) 2025 opensource.finance
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/opensource-finance/kestrel/internal/api"
	"github.com/opensource-finance/kestrel/internal/cache"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/engine"
	"github.com/opensource-finance/kestrel/internal/repository"
	"github.com/opensource-finance/kestrel/internal/rules"
	"github.com/opensource-finance/kestrel/internal/session"
	"github.com/opensource-finance/kestrel/internal/store"
	"github.com/opensource-finance/kestrel/internal/telemetry"
	"github.com/opensource-finance/kestrel/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Load configuration
	cfg, err := domain.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logger
	slog.SetDefault(newLogger(cfg.Logging))

	slog.Info("starting kestrel",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)
	slog.Info("configuration loaded",
		"source", cfg.Source.Path,
		"format", cfg.Source.Format,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Tracing
	shutdownTracing, err := telemetry.Setup(cfg.Tracing, Version, nil)
	if err != nil {
		slog.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Error("failed to flush traces", "error", err)
		}
	}()

	// Initialize Repository (optional)
	var repo domain.ObservationRepository
	if cfg.Repository.Driver != "" {
		sqlRepo, err := repository.New(cfg.Repository)
		if err != nil {
			slog.Error("failed to initialize repository", "error", err)
			os.Exit(1)
		}
		defer sqlRepo.Close()
		repo = sqlRepo
		slog.Info("repository initialized", "driver", cfg.Repository.Driver)
	}

	// Initialize Screening Engine
	screens, err := rules.NewEngine()
	if err != nil {
		slog.Error("failed to initialize screening engine", "error", err)
		os.Exit(1)
	}
	if err := loadScreensFromDatabase(ctx, repo, screens); err != nil {
		slog.Error("failed to load screens", "error", err)
		os.Exit(1)
	}
	slog.Info("screening engine initialized", "screens_count", screens.ScreensCount())

	// Load the Record Store once for the whole session
	loader := store.NewLoader(repo)
	st, err := loader.Load(ctx, store.SourceFromConfig(cfg.Source))
	if err != nil {
		var loadErr *domain.LoadError
		if errors.As(err, &loadErr) {
			slog.Error("failed to load dataset",
				"source", loadErr.Source,
				"row", loadErr.Row,
				"column", loadErr.Column,
				"error", loadErr.Err,
			)
		} else {
			slog.Error("failed to load dataset", "error", err)
		}
		os.Exit(1)
	}

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	if cacheImpl != nil {
		defer cacheImpl.Close()
	}
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize Dashboard Service
	service := engine.NewService(cacheImpl, screens, cfg.Engine, cfg.Cache.LocalTTL)

	// Initialize Sessions
	sessions := session.NewRegistry(st)
	if cfg.Server.SessionTTL > 0 {
		go expireSessions(ctx, sessions, cfg.Server.SessionTTL)
	}

	// Warm the cache for common selections
	var warmer *worker.Warmer
	if cfg.Warmup.Enabled && cacheImpl != nil {
		warmer = worker.NewWarmer(service, st)
		warmer.Start(worker.Config{WorkerCount: cfg.Warmup.Workers})
	}

	var metrics *api.Metrics
	if cfg.Metrics.Enabled {
		metrics = api.NewMetrics(sessions.Len)
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, api.Deps{
		Store:    st,
		Service:  service,
		Screens:  screens,
		Sessions: sessions,
		Repo:     repo,
		Cache:    cacheImpl,
		Metrics:  metrics,
		Version:  Version,
	})

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("kestrel is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"dataset", st.ID(),
		"rows", st.Len(),
	)

	printBanner(cfg, st, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop the warmer first
	if warmer != nil {
		if err := warmer.Stop(); err != nil {
			slog.Error("failed to stop cache warmer", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("kestrel shutdown complete")
}

func newLogger(cfg domain.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// loadScreensFromDatabase loads the enabled screens stored in the repository.
// Without a repository the engine starts empty; screens can be added via POST /screens.
func loadScreensFromDatabase(ctx context.Context, repo domain.ObservationRepository, screens *rules.Engine) error {
	if repo == nil {
		slog.Info("no repository - screens are kept in memory only")
		return nil
	}

	stored, err := repo.ListScreens(ctx)
	if err != nil {
		slog.Warn("failed to list screens from database", "error", err)
		return nil
	}

	if len(stored) > 0 {
		slog.Info("loading screens from database", "count", len(stored))
		return screens.LoadScreens(stored)
	}

	slog.Info("no screens in database - configure via POST /screens API")
	return nil
}

// expireSessions drops idle sessions until ctx is cancelled.
func expireSessions(ctx context.Context, sessions *session.Registry, ttl time.Duration) {
	interval := ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Expire(ttl); n > 0 {
				slog.Info("expired idle sessions", "count", n, "live", sessions.Len())
			}
		}
	}
}

func printBanner(cfg *domain.Config, st *store.Store, version string) {
	fmt.Println()
	fmt.Println("  Kestrel - Benford's Law + Isolation Forest")
	fmt.Println("  Forensic dashboard for financial statements")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Dataset:  %s (%d rows)\n", st.Source(), st.Len())
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    GET  /facets                     - Year and statement type domains")
	fmt.Println("    GET  /observations               - Filtered view")
	fmt.Println("    GET  /dashboard                  - KPIs and aggregates")
	fmt.Println("    GET  /dashboard/charts           - Render-ready charts and tables")
	fmt.Println("    GET  /top-risk                   - Lowest anomaly scores")
	fmt.Println("    GET  /screens                    - List screening expressions")
	fmt.Println("    POST /screens                    - Create a screen")
	fmt.Println("    POST /screens/reload             - Hot-reload screens from database")
	fmt.Println("    POST /sessions                   - Start a session")
	fmt.Println("    PUT  /sessions/{id}/selection    - Change a session's filters")
	fmt.Println("    GET  /sessions/{id}/dashboard    - Session dashboard")
	fmt.Println("    GET  /health                     - Health check")
	fmt.Println("    GET  /metrics                    - Prometheus metrics")
	fmt.Println()
}

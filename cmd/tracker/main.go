package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/tick-tracker/data"
	"github.com/couchcryptid/tick-tracker/internal/adapter/feed"
	httpadapter "github.com/couchcryptid/tick-tracker/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/tick-tracker/internal/adapter/kafka"
	"github.com/couchcryptid/tick-tracker/internal/adapter/mapbox"
	"github.com/couchcryptid/tick-tracker/internal/analytics"
	"github.com/couchcryptid/tick-tracker/internal/config"
	"github.com/couchcryptid/tick-tracker/internal/domain"
	"github.com/couchcryptid/tick-tracker/internal/ingest"
	"github.com/couchcryptid/tick-tracker/internal/observability"
	"github.com/couchcryptid/tick-tracker/internal/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Geocoding fallback for locations outside the reference table
	// (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		cached, err := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		if err != nil {
			logger.Error("failed to create geocoder cache", "error", err)
			os.Exit(1)
		}
		geocoder = cached
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var baseline ingest.Baseline = ingest.EmbeddedBaseline(data.Seed)
	if cfg.SeedFile != "" {
		baseline = ingest.FileBaseline(cfg.SeedFile)
	}

	var remote ingest.Feed
	var kafkaFeed *kafkaadapter.Feed
	switch cfg.FeedKind {
	case config.FeedHTTP:
		remote = feed.NewClient(cfg.FeedURL, logger)
	case config.FeedKafka:
		kafkaFeed = kafkaadapter.NewFeed(cfg, logger)
		remote = kafkaFeed
	}

	coordinator := ingest.New(store, baseline, remote, ingest.Settings{
		FeedTimeout: cfg.FeedTimeout,
		MaxRecords:  cfg.FeedMaxRecords,
	}, logger, metrics)

	engine := analytics.New(store, domain.NewLocator(geocoder, logger), logger, metrics)
	handler := httpadapter.NewHandler(engine, coordinator, logger)
	router := httpadapter.NewRouter(handler, coordinator, cfg.CORSAllowedOrigins, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, router, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server. /readyz reports 503 until startup ingestion is done.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	exitCode := 0
	report, err := coordinator.Run(ctx)
	if err != nil {
		logger.Error("startup ingestion failed", "error", err)
		exitCode = 1
		stop()
	} else {
		logger.Info("serving queries",
			"stored", report.Stored,
			"baseline_inserted", report.Baseline.Inserted,
			"remote_inserted", report.Remote.Inserted,
			"remote_failed", report.RemoteFailure != nil,
		)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaFeed != nil {
		if err := kafkaFeed.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	if exitCode != 0 {
		store.Close()
		os.Exit(exitCode)
	}
}

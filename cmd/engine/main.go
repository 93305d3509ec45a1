package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/aurora-sight/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/aurora-sight/internal/adapter/kafka"
	"github.com/couchcryptid/aurora-sight/internal/adapter/mapbox"
	"github.com/couchcryptid/aurora-sight/internal/config"
	"github.com/couchcryptid/aurora-sight/internal/domain"
	"github.com/couchcryptid/aurora-sight/internal/engine"
	"github.com/couchcryptid/aurora-sight/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Initialize name resolution (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var resolver domain.NameResolver
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		resolver = mapbox.NewCachedResolver(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox name resolution enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox name resolution disabled")
	}

	var observer *domain.Observer
	if cfg.ObserverSet {
		observer = &domain.Observer{
			Latitude:       cfg.ObserverLatitude,
			Longitude:      cfg.ObserverLongitude,
			AltitudeMeters: cfg.ObserverAltitude,
		}
		logger.Info("site observer configured", "lat", observer.Latitude, "lon", observer.Longitude)
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)

	params := domain.OutlookParams{
		TargetAltMeters: cfg.AuroraAltitudeMeters,
		MaxHighlights:   cfg.MaxHighlights,
		MinProbability:  cfg.MinProbability,
	}

	e := engine.New(reader, writer, resolver, observer, params, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, e, e, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start refresh engine.
	go func() {
		if err := e.Run(ctx); err != nil {
			logger.Error("engine error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}

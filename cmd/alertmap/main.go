package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/nws-alert-map/internal/adapter/geojsonfile"
	httpadapter "github.com/couchcryptid/nws-alert-map/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/nws-alert-map/internal/adapter/kafka"
	"github.com/couchcryptid/nws-alert-map/internal/adapter/nws"
	"github.com/couchcryptid/nws-alert-map/internal/config"
	"github.com/couchcryptid/nws-alert-map/internal/observability"
	"github.com/couchcryptid/nws-alert-map/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := nws.NewClient(nws.Options{
		FeedURL:        cfg.FeedURL,
		UserAgent:      cfg.UserAgent,
		RequestTimeout: cfg.RequestTimeout,
		RetryMax:       cfg.RetryMax,
		RetryWaitMin:   cfg.RetryWaitMin,
		RetryWaitMax:   cfg.RetryWaitMax,
	}, logger, metrics)
	zones := nws.NewCachedZoneResolver(client, metrics)
	enricher := pipeline.NewEnricher(zones, cfg.SimplifyTolerance, cfg.ZoneConcurrency, logger, metrics)

	store := httpadapter.NewSnapshotStore()
	sinks := pipeline.Publishers{store}
	if cfg.OutputPath != "" {
		sinks = append(sinks, geojsonfile.NewWriter(cfg.OutputPath, logger))
		logger.Info("geojson file output enabled", "path", cfg.OutputPath)
	}
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sinks = append(sinks, writer)
		logger.Info("kafka output enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	defer func() {
		if writer == nil {
			return
		}
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}()

	p := pipeline.New(client, enricher, sinks, logger, metrics, clockwork.NewRealClock(), pipeline.Options{
		PollInterval: cfg.PollInterval,
		RetryBackoff: cfg.PollRetryBackoff,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RunOnce {
		if err := p.RunOnce(ctx); err != nil {
			logger.Error("poll cycle failed", "error", err)
			return 1
		}
		return 0
	}

	var states []byte
	if cfg.StatesGeoJSONPath != "" {
		states, err = os.ReadFile(cfg.StatesGeoJSONPath)
		if err != nil {
			logger.Error("failed to read state boundaries", "path", cfg.StatesGeoJSONPath, "error", err)
			return 1
		}
	}
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, store, states, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Start poll loop.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("poll loop did not stop before shutdown timeout")
	}

	logger.Info("shutdown complete")
	return 0
}

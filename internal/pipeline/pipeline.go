package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/nws-alert-map/internal/domain"
	"github.com/couchcryptid/nws-alert-map/internal/observability"
)

// FeedFetcher retrieves the current active-alerts feed.
type FeedFetcher interface {
	FetchActiveAlerts(ctx context.Context) (domain.AlertCollection, error)
}

// AlertEnricher turns raw alerts into enriched per-zone records.
type AlertEnricher interface {
	Enrich(ctx context.Context, alerts []domain.Alert) ([]domain.Alert, error)
}

// Publisher hands a snapshot to a presentation sink.
type Publisher interface {
	Publish(ctx context.Context, snap domain.Snapshot) error
}

// Options tunes the poll loop.
type Options struct {
	PollInterval time.Duration
	RetryBackoff time.Duration
}

// Pipeline orchestrates the fetch-enrich-publish poll loop.
type Pipeline struct {
	fetcher   FeedFetcher
	enricher  AlertEnricher
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	opts      Options
	ready     atomic.Bool
}

// New creates a Pipeline with the given stages and observability. A nil clock
// means the real clock.
func New(f FeedFetcher, e AlertEnricher, p Publisher, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock, opts Options) *Pipeline {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		fetcher:   f,
		enricher:  e,
		publisher: p,
		logger:    logger,
		metrics:   metrics,
		clock:     clock,
		opts:      opts,
	}
}

// CheckReadiness returns nil once an enriched snapshot has been published,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no enriched snapshot published yet")
	}
	return nil
}

// Run polls the feed immediately and then every PollInterval until the
// context is cancelled. A failed cycle is retried with exponential backoff
// capped at the poll interval.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "poll_interval", p.opts.PollInterval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := p.opts.RetryBackoff
	for {
		wait := p.opts.PollInterval
		if err := p.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			p.logger.Error("poll cycle failed", "error", err, "retry_in", backoff)
			wait = backoff
			backoff = nextBackoff(backoff, p.opts.PollInterval)
		} else {
			backoff = p.opts.RetryBackoff
		}

		if !p.sleep(ctx, wait) {
			break
		}
	}
	p.logger.Info("pipeline stopping", "reason", ctx.Err())
	return nil
}

// RunOnce performs one poll cycle: fetch the feed, publish the raw snapshot,
// enrich, publish the enriched snapshot. Feed and enrichment failures are
// returned; publish failures are logged and counted.
func (p *Pipeline) RunOnce(ctx context.Context) error {
	start := p.clock.Now()
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)

	err := p.runCycle(ctx, runID, logger)
	p.metrics.PollCycleDuration.Observe(p.clock.Since(start).Seconds())
	if err != nil {
		p.metrics.PollCycles.WithLabelValues("error").Inc()
		return err
	}
	p.metrics.PollCycles.WithLabelValues("success").Inc()
	return nil
}

func (p *Pipeline) runCycle(ctx context.Context, runID string, logger *slog.Logger) error {
	fc, err := p.fetcher.FetchActiveAlerts(ctx)
	if err != nil {
		return fmt.Errorf("fetch active alerts: %w", err)
	}
	p.metrics.AlertsFetched.Add(float64(len(fc.Features)))
	logger.Info("feed fetched", "alerts", len(fc.Features))

	p.publish(ctx, logger, domain.Snapshot{
		RunID:       runID,
		Stage:       domain.StageRaw,
		GeneratedAt: p.clock.Now().UTC(),
		Alerts:      p.prepareRaw(fc.Features, logger),
	})

	enriched, err := p.enricher.Enrich(ctx, fc.Features)
	if err != nil {
		return fmt.Errorf("enrich alerts: %w", err)
	}

	if p.publish(ctx, logger, domain.Snapshot{
		RunID:       runID,
		Stage:       domain.StageEnriched,
		GeneratedAt: p.clock.Now().UTC(),
		Alerts:      enriched,
	}) {
		p.ready.Store(true)
	}
	logger.Info("poll cycle complete", "records", len(enriched))
	return nil
}

// prepareRaw colours every alert and rewinds inline geometry for the initial
// render. Geometry that cannot be rewound is published as received.
func (p *Pipeline) prepareRaw(alerts []domain.Alert, logger *slog.Logger) []domain.Alert {
	out := make([]domain.Alert, 0, len(alerts))
	for _, a := range alerts {
		prepared, err := domain.PrepareRaw(a)
		if err != nil {
			logger.Warn("rewind failed for raw alert", "alert_id", a.ID, "error", err)
			p.metrics.GeometryErrors.Inc()
		}
		out = append(out, prepared)
	}
	return out
}

// publish reports whether the snapshot reached every sink.
func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, snap domain.Snapshot) bool {
	if err := p.publisher.Publish(ctx, snap); err != nil {
		logger.Error("publish snapshot failed", "stage", snap.Stage, "error", err)
		p.metrics.PublishErrors.WithLabelValues(string(snap.Stage)).Inc()
		return false
	}
	return true
}

func (p *Pipeline) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-p.clock.After(d):
		return true
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

package pipeline

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/nws-alert-map/internal/domain"
	"github.com/couchcryptid/nws-alert-map/internal/observability"
)

// Enricher expands raw alerts into per-zone records with processed geometry
// and a display colour.
type Enricher struct {
	resolver    domain.ZoneResolver
	tolerance   float64
	concurrency int
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewEnricher creates an Enricher. concurrency bounds how many alerts resolve
// zones at once; values below 1 mean sequential.
func NewEnricher(resolver domain.ZoneResolver, tolerance float64, concurrency int, logger *slog.Logger, metrics *observability.Metrics) *Enricher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Enricher{
		resolver:    resolver,
		tolerance:   tolerance,
		concurrency: concurrency,
		logger:      logger,
		metrics:     metrics,
	}
}

// Enrich returns the enriched records for alerts in input order. Failed
// zones are skipped; the only error returned is context cancellation.
func (e *Enricher) Enrich(ctx context.Context, alerts []domain.Alert) ([]domain.Alert, error) {
	slots := make([][]domain.Alert, len(alerts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, alert := range alerts {
		g.Go(func() error {
			records, err := domain.EnrichWithZones(gctx, alert, e.resolver, e.logger)
			if err != nil {
				return err
			}
			e.countDropped(alert, len(records))
			slots[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []domain.Alert
	for _, records := range slots {
		for _, rec := range records {
			final, err := domain.FinalizeAlert(rec, e.tolerance)
			if err != nil {
				e.logger.Warn("geometry processing failed, keeping original geometry",
					"alert_id", rec.ID,
					"zone", rec.Zone,
					"error", err,
				)
				e.metrics.GeometryErrors.Inc()
			}
			out = append(out, final)
		}
	}

	deduped := domain.Dedupe(out)
	if n := len(out) - len(deduped); n > 0 {
		e.metrics.RecordsDropped.WithLabelValues("duplicate").Add(float64(n))
	}
	e.metrics.RecordsEnriched.Add(float64(len(deduped)))
	return deduped, nil
}

func (e *Enricher) countDropped(alert domain.Alert, produced int) {
	if alert.Geometry != nil {
		return
	}
	zones := len(alert.Properties.AffectedZones)
	if zones == 0 {
		e.metrics.RecordsDropped.WithLabelValues("no_zones").Inc()
		return
	}
	if failed := zones - produced; failed > 0 {
		e.metrics.RecordsDropped.WithLabelValues("zone_error").Add(float64(failed))
	}
}

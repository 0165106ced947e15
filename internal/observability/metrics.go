package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "alert_map"

// Metrics holds the Prometheus counters, histograms, and gauges for the alert pipeline.
type Metrics struct {
	// Poll cycle metrics.
	PollCycles        *prometheus.CounterVec // labels: outcome={success,error}
	PollCycleDuration prometheus.Histogram
	PipelineRunning   prometheus.Gauge
	AlertsFetched     prometheus.Counter
	RecordsEnriched   prometheus.Counter
	RecordsDropped    *prometheus.CounterVec // labels: reason={no_zones,zone_error,duplicate}
	GeometryErrors    prometheus.Counter
	PublishErrors     *prometheus.CounterVec // labels: stage={raw,enriched}

	// NWS API metrics.
	NWSRequests        *prometheus.CounterVec   // labels: kind={feed,zone}, outcome={success,error}
	NWSRequestDuration *prometheus.HistogramVec // labels: kind={feed,zone}
	NWSBreakerState    prometheus.Gauge         // 0 closed, 1 half-open, 2 open

	// Zone cache metrics.
	ZoneCacheLookups *prometheus.CounterVec // labels: result={hit,miss,error}
	ZoneCacheEntries prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PollCycles,
		m.PollCycleDuration,
		m.PipelineRunning,
		m.AlertsFetched,
		m.RecordsEnriched,
		m.RecordsDropped,
		m.GeometryErrors,
		m.PublishErrors,
		m.NWSRequests,
		m.NWSRequestDuration,
		m.NWSBreakerState,
		m.ZoneCacheLookups,
		m.ZoneCacheEntries,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PollCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_cycles_total",
			Help:      "Poll cycles by outcome.",
		}, []string{"outcome"}),
		PollCycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_cycle_duration_seconds",
			Help:      "Duration of a complete fetch-enrich-publish cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the poll loop is active, 0 when shut down.",
		}),
		AlertsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_fetched_total",
			Help:      "Total alerts read from the active-alerts feed.",
		}),
		RecordsEnriched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_enriched_total",
			Help:      "Total per-zone records produced by enrichment.",
		}),
		RecordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Records dropped during enrichment by reason.",
		}, []string{"reason"}),
		GeometryErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geometry_errors_total",
			Help:      "Geometries that could not be simplified or rewound.",
		}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Snapshot publish failures by stage.",
		}, []string{"stage"}),
		NWSRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nws_requests_total",
			Help:      "NWS API requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		NWSRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "nws_request_duration_seconds",
			Help:      "NWS API request duration in seconds, retries included.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),
		NWSBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "nws_breaker_state",
			Help:      "NWS circuit breaker state: 0 closed, 1 half-open, 2 open.",
		}),
		ZoneCacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "zone_cache_lookups_total",
			Help:      "Zone geometry cache lookups by result.",
		}, []string{"result"}),
		ZoneCacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "zone_cache_entries",
			Help:      "Zone geometries held in the cache.",
		}),
	}
}

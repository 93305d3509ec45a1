package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// aurora engine.
type Metrics struct {
	SnapshotsConsumed prometheus.Counter
	OutlooksPublished prometheus.Counter
	ParseErrors       prometheus.Counter
	EngineRunning     prometheus.Gauge

	// Refresh metrics.
	SnapshotPoints  prometheus.Histogram
	RefreshDuration prometheus.Histogram

	// Name-resolution metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge
	NamesApplied       prometheus.Counter
	NamesDiscarded     prometheus.Counter
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		SnapshotsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aurora_engine",
			Name:      "snapshots_consumed_total",
			Help:      "Total forecast snapshots read from the source topic.",
		}),
		OutlooksPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aurora_engine",
			Name:      "outlooks_published_total",
			Help:      "Total computed outlooks written to the sink topic.",
		}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aurora_engine",
			Name:      "parse_errors_total",
			Help:      "Total forecast snapshots that failed to parse.",
		}),
		EngineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aurora_engine",
			Name:      "engine_running",
			Help:      "1 when the refresh loop is active, 0 when shut down.",
		}),
		SnapshotPoints: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aurora_engine",
			Name:      "snapshot_points",
			Help:      "Non-zero forecast cells per snapshot after parsing.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aurora_engine",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete parse-score-publish refresh.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aurora_engine",
			Name:      "geocode_requests_total",
			Help:      "Reverse-geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aurora_engine",
			Name:      "geocode_cache_total",
			Help:      "Reverse-geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aurora_engine",
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aurora_engine",
			Name:      "geocode_enabled",
			Help:      "1 when place-name resolution is enabled, 0 otherwise.",
		}),
		NamesApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aurora_engine",
			Name:      "names_applied_total",
			Help:      "Resolved place names applied onto current points.",
		}),
		NamesDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aurora_engine",
			Name:      "names_discarded_total",
			Help:      "Resolved place names discarded as stale or duplicate.",
		}),
	}

	prometheus.MustRegister(
		m.SnapshotsConsumed,
		m.OutlooksPublished,
		m.ParseErrors,
		m.EngineRunning,
		m.SnapshotPoints,
		m.RefreshDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
		m.NamesApplied,
		m.NamesDiscarded,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		SnapshotsConsumed:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "aurora_engine", Name: "snapshots_consumed_total"}),
		OutlooksPublished:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "aurora_engine", Name: "outlooks_published_total"}),
		ParseErrors:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "aurora_engine", Name: "parse_errors_total"}),
		EngineRunning:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "aurora_engine", Name: "engine_running"}),
		SnapshotPoints:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "aurora_engine", Name: "snapshot_points"}),
		RefreshDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "aurora_engine", Name: "refresh_duration_seconds"}),
		GeocodeRequests:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "aurora_engine", Name: "geocode_requests_total"}, []string{"outcome"}),
		GeocodeCache:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "aurora_engine", Name: "geocode_cache_total"}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "aurora_engine", Name: "geocode_api_duration_seconds"}),
		GeocodeEnabled:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "aurora_engine", Name: "geocode_enabled"}),
		NamesApplied:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "aurora_engine", Name: "names_applied_total"}),
		NamesDiscarded:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "aurora_engine", Name: "names_discarded_total"}),
	}
}

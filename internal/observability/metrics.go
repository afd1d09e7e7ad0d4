package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// console service.
type Metrics struct {
	// State persistence metrics.
	StateWrites        *prometheus.CounterVec // label: slice
	StateLoadFallbacks *prometheus.CounterVec // label: slice

	// Upstream adapter metrics.
	WeatherRequests    *prometheus.CounterVec // label: outcome={success,error,no_location}
	WeatherAPIDuration prometheus.Histogram
	FeedFetches        *prometheus.CounterVec // label: outcome={success,no_data,error,superseded}
	FeedFetchDuration  prometheus.Histogram

	// Feedback metrics.
	FeedbackSubmitted prometheus.Counter
	ExportPublished   prometheus.Counter
	ExportErrors      prometheus.Counter
	ExportEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.StateWrites,
		m.StateLoadFallbacks,
		m.WeatherRequests,
		m.WeatherAPIDuration,
		m.FeedFetches,
		m.FeedFetchDuration,
		m.FeedbackSubmitted,
		m.ExportPublished,
		m.ExportErrors,
		m.ExportEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		StateWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "console",
			Name:      "state_writes_total",
			Help:      "State slice writes by slice key.",
		}, []string{"slice"}),
		StateLoadFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "console",
			Name:      "state_load_fallbacks_total",
			Help:      "Loads that fell back to defaults due to absent or corrupt data.",
		}, []string{"slice"}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "console",
			Name:      "weather_requests_total",
			Help:      "Current-conditions lookups by outcome.",
		}, []string{"outcome"}),
		WeatherAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "console",
			Name:      "weather_api_duration_seconds",
			Help:      "Current-conditions API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		FeedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "console",
			Name:      "feed_fetches_total",
			Help:      "Space-weather feed fetches by outcome.",
		}, []string{"outcome"}),
		FeedFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "console",
			Name:      "feed_fetch_duration_seconds",
			Help:      "Space-weather feed fetch-and-parse duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		FeedbackSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "console",
			Name:      "feedback_submitted_total",
			Help:      "Accepted mission feedback entries.",
		}),
		ExportPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "console",
			Name:      "export_published_total",
			Help:      "Feedback events published to the export topic.",
		}),
		ExportErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "console",
			Name:      "export_errors_total",
			Help:      "Failed feedback export publishes.",
		}),
		ExportEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "console",
			Name:      "export_enabled",
			Help:      "1 when feedback export is enabled, 0 otherwise.",
		}),
	}
}

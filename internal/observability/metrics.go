package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for provider calls and report runs.
type Metrics struct {
	ProviderRequests *prometheus.CounterVec   // labels: endpoint, outcome={success,error,empty}
	ProviderDuration *prometheus.HistogramVec // labels: endpoint
	RowsAppended     prometheus.Counter
	Runs             *prometheus.CounterVec // labels: outcome={success,error}
	RunDuration      prometheus.Histogram
	LastSuccess      prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := NewMetricsForTesting()
	prometheus.MustRegister(
		m.ProviderRequests,
		m.ProviderDuration,
		m.RowsAppended,
		m.Runs,
		m.RunDuration,
		m.LastSuccess,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as many
// as they like.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pass_weather",
			Name:      "provider_requests_total",
			Help:      "Weather provider requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pass_weather",
			Name:      "provider_request_duration_seconds",
			Help:      "Weather provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		RowsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pass_weather",
			Name:      "rows_appended_total",
			Help:      "Total rows appended to the report spreadsheet.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pass_weather",
			Name:      "runs_total",
			Help:      "Report runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pass_weather",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-format-append run.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pass_weather",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}
}

// Package observability holds the Prometheus metrics of the export console.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mtaprecip"

// Export outcomes used as the outcome label.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeInvalid   = "invalid"
	OutcomeBusy      = "busy"
)

// Metrics holds the Prometheus collectors for exports and sessions.
type Metrics struct {
	// Export metrics.
	Exports         *prometheus.CounterVec   // labels: outcome, scope={all,region,stations,none}
	ExportDuration  *prometheus.HistogramVec // labels: scope
	ExportsInFlight prometheus.Gauge
	ReportBytes     prometheus.Histogram

	// Session metrics.
	SessionsActive  prometheus.Gauge
	SessionsExpired prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Exports,
		m.ExportDuration,
		m.ExportsInFlight,
		m.ReportBytes,
		m.SessionsActive,
		m.SessionsExpired,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build as
// many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Export attempts by outcome and request scope.",
		}, []string{"outcome", "scope"}),
		ExportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_duration_seconds",
			Help:      "Time spent waiting on the report backend per export.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}, []string{"scope"}),
		ExportsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "exports_in_flight",
			Help:      "Exports currently waiting on the report backend.",
		}),
		ReportBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_size_bytes",
			Help:      "Size of delivered workbooks.",
			Buckets:   prometheus.ExponentialBuckets(4096, 4, 8),
		}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Open operator sessions.",
		}),
		SessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_expired_total",
			Help:      "Sessions removed by the idle sweeper.",
		}),
	}
}

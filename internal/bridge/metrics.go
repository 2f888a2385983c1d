package bridge

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts bridge calls. Each instance owns its registry so several
// bridges (and tests) can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	Calls        *prometheus.CounterVec
	CallDuration *prometheus.HistogramVec
	AppsReturned prometheus.Histogram
}

// NewMetrics creates and registers the bridge metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "appsize_bridge_calls_total",
				Help: "Total number of bridge method calls",
			},
			[]string{"method", "outcome"},
		),
		CallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "appsize_bridge_call_duration_seconds",
				Help:    "Bridge method call duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"method"},
		),
		AppsReturned: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "appsize_bridge_apps_returned",
				Help:    "Number of app records returned per getInstalledApps call",
				Buckets: prometheus.ExponentialBuckets(8, 2, 8),
			},
		),
	}
	m.registry.MustRegister(m.Calls, m.CallDuration, m.AppsReturned)
	return m
}

func (m *Metrics) observe(method, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Calls.WithLabelValues(method, outcome).Inc()
	m.CallDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) observeApps(n int) {
	if m == nil {
		return
	}
	m.AppsReturned.Observe(float64(n))
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Package telemetry exposes the dashboard's Prometheus instruments.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service instruments. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry      *prometheus.Registry
	cacheRequests *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	exports       *prometheus.CounterVec
	renders       *prometheus.CounterVec
}

// NewMetrics registers the instruments on a fresh registry together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		cacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_query_cache_requests_total",
			Help: "Query cache lookups by result (hit, miss, bypass).",
		}, []string{"result"}),
		queryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_warehouse_query_duration_seconds",
			Help:    "Warehouse round trip latency by outcome.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"outcome"}),
		exports: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_exports_total",
			Help: "Table exports by tab and format.",
		}, []string{"tab", "format"}),
		renders: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_renders_total",
			Help: "Dashboard view renders by tab and outcome.",
		}, []string{"tab", "outcome"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// CacheResult records one cache lookup.
func (m *Metrics) CacheResult(result string) {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues(result).Inc()
}

// QueryDuration records one warehouse round trip.
func (m *Metrics) QueryDuration(d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.queryDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// Export records one table download.
func (m *Metrics) Export(tab, format string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(tab, format).Inc()
}

// Render records one tab render.
func (m *Metrics) Render(tab string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.renders.WithLabelValues(tab, outcome).Inc()
}

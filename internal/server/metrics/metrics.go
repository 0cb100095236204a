// Package metrics exposes the mirror server's Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	RPCs          *prometheus.CounterVec
	RPCDuration   *prometheus.HistogramVec
	Watchers      prometheus.Gauge
	DocumentPuts  prometheus.Counter
	DocumentBytes prometheus.Histogram
	CacheLookups  *prometheus.CounterVec
	RateLimited   prometheus.Counter
}

// New registers every metric on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		RPCs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sabo_rpc_requests_total",
			Help: "gRPC requests by method and status code",
		}, []string{"method", "code"}),
		RPCDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sabo_rpc_duration_seconds",
			Help:    "Unary gRPC latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		Watchers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sabo_watch_streams_active",
			Help: "Open Watch streams",
		}),
		DocumentPuts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sabo_document_puts_total",
			Help: "Stored document versions",
		}),
		DocumentBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sabo_document_size_bytes",
			Help:    "Size of stored item arrays",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sabo_document_cache_lookups_total",
			Help: "Document cache lookups by result",
		}, []string{"result"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sabo_rate_limited_total",
			Help: "Put calls rejected by the per-user rate limit",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RPCs, m.RPCDuration, m.Watchers, m.DocumentPuts, m.DocumentBytes, m.CacheLookups, m.RateLimited,
	)
	return m
}

// ObserveRPC records one finished call.
func (m *Metrics) ObserveRPC(method, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RPCs.WithLabelValues(method, code).Inc()
	m.RPCDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) ObservePut(size int) {
	if m == nil {
		return
	}
	m.DocumentPuts.Inc()
	m.DocumentBytes.Observe(float64(size))
}

func (m *Metrics) CacheHit(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
	} else {
		m.CacheLookups.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) WatchOpened() {
	if m != nil {
		m.Watchers.Inc()
	}
}

func (m *Metrics) WatchClosed() {
	if m != nil {
		m.Watchers.Dec()
	}
}

func (m *Metrics) Limited() {
	if m != nil {
		m.RateLimited.Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

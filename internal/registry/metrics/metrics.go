package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the registry resolver.
type Metrics struct {
	Lookups        *prometheus.CounterVec
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	LookupDuration prometheus.Histogram
}

// New creates and registers all registry metrics.
func New() *Metrics {
	return &Metrics{
		Lookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vitrina_registry_lookups_total",
			Help: "Registry lookups by classified outcome",
		}, []string{"outcome"}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vitrina_registry_cache_hits_total",
			Help: "Registry cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vitrina_registry_cache_misses_total",
			Help: "Registry cache misses",
		}),
		LookupDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vitrina_registry_lookup_duration_seconds",
			Help:    "Latency of registry lookups including cache checks",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// RecordLookup increments the outcome counter; nil-safe.
func (m *Metrics) RecordLookup(outcome string) {
	if m != nil {
		m.Lookups.WithLabelValues(outcome).Inc()
	}
}

// RecordCacheHit increments the hit counter; nil-safe.
func (m *Metrics) RecordCacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

// RecordCacheMiss increments the miss counter; nil-safe.
func (m *Metrics) RecordCacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}

// ObserveLookupDuration records a lookup latency; nil-safe.
func (m *Metrics) ObserveLookupDuration(seconds float64) {
	if m != nil {
		m.LookupDuration.Observe(seconds)
	}
}

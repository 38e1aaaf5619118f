package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the provider aggregate.
type Metrics struct {
	Created     *prometheus.CounterVec
	Transitions *prometheus.CounterVec
}

// New creates and registers all provider metrics.
func New() *Metrics {
	return &Metrics{
		Created: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vitrina_providers_created_total",
			Help: "Providers created by kind and initial status",
		}, []string{"kind", "status"}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vitrina_provider_status_transitions_total",
			Help: "Verification status transitions",
		}, []string{"from", "to"}),
	}
}

// RecordCreated counts a new provider; nil-safe.
func (m *Metrics) RecordCreated(kind, status string) {
	if m != nil {
		m.Created.WithLabelValues(kind, status).Inc()
	}
}

// RecordTransition counts a status change; nil-safe.
func (m *Metrics) RecordTransition(from, to string) {
	if m != nil {
		m.Transitions.WithLabelValues(from, to).Inc()
	}
}

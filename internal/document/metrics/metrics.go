package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for document intake.
type Metrics struct {
	Submitted   *prometheus.CounterVec
	Rejected    *prometheus.CounterVec
	Reviews     *prometheus.CounterVec
	UploadBytes prometheus.Histogram
}

// New creates and registers all document metrics.
func New() *Metrics {
	return &Metrics{
		Submitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vitrina_documents_submitted_total",
			Help: "Documents accepted into the store by type",
		}, []string{"type"}),
		Rejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vitrina_documents_rejected_total",
			Help: "Uploads rejected before storage by reason",
		}, []string{"reason"}),
		Reviews: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vitrina_document_reviews_total",
			Help: "Document review decisions",
		}, []string{"decision"}),
		UploadBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vitrina_document_upload_bytes",
			Help:    "Size of accepted document uploads",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		}),
	}
}

// RecordSubmitted counts an accepted upload; nil-safe.
func (m *Metrics) RecordSubmitted(docType string, size int64) {
	if m != nil {
		m.Submitted.WithLabelValues(docType).Inc()
		m.UploadBytes.Observe(float64(size))
	}
}

// RecordRejected counts a pre-storage rejection; nil-safe.
func (m *Metrics) RecordRejected(reason string) {
	if m != nil {
		m.Rejected.WithLabelValues(reason).Inc()
	}
}

// RecordReview counts a review decision; nil-safe.
func (m *Metrics) RecordReview(decision string) {
	if m != nil {
		m.Reviews.WithLabelValues(decision).Inc()
	}
}

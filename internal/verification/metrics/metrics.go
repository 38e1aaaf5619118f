package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for verification codes.
type Metrics struct {
	Issued       *prometheus.CounterVec
	Attempts     *prometheus.CounterVec
	SweptExpired prometheus.Counter
}

// New creates and registers all verification metrics.
func New() *Metrics {
	return &Metrics{
		Issued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vitrina_verification_codes_issued_total",
			Help: "Verification codes issued by channel",
		}, []string{"channel"}),
		Attempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vitrina_verification_attempts_total",
			Help: "Verification attempts by channel and classified result",
		}, []string{"channel", "result"}),
		SweptExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vitrina_verification_swept_expired_total",
			Help: "Expired codes removed by the background sweep",
		}),
	}
}

// RecordIssued increments the issuance counter; nil-safe.
func (m *Metrics) RecordIssued(channel string) {
	if m != nil {
		m.Issued.WithLabelValues(channel).Inc()
	}
}

// RecordAttempt increments the attempt counter; nil-safe.
func (m *Metrics) RecordAttempt(channel, result string) {
	if m != nil {
		m.Attempts.WithLabelValues(channel, result).Inc()
	}
}

// RecordSwept adds to the sweep counter; nil-safe.
func (m *Metrics) RecordSwept(count int) {
	if m != nil {
		m.SweptExpired.Add(float64(count))
	}
}

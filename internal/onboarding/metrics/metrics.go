package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the onboarding wizard.
type Metrics struct {
	DraftsStarted *prometheus.CounterVec
	StepsPassed   *prometheus.CounterVec
	Submissions   *prometheus.CounterVec
}

// New creates and registers all onboarding metrics.
func New() *Metrics {
	return &Metrics{
		DraftsStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vitrina_onboarding_drafts_started_total",
			Help: "Onboarding drafts started by provider kind",
		}, []string{"kind"}),
		StepsPassed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vitrina_onboarding_steps_passed_total",
			Help: "Wizard steps completed",
		}, []string{"step"}),
		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vitrina_onboarding_submissions_total",
			Help: "Final submissions by kind and result",
		}, []string{"kind", "result"}),
	}
}

// RecordDraftStarted counts a new draft; nil-safe.
func (m *Metrics) RecordDraftStarted(kind string) {
	if m != nil {
		m.DraftsStarted.WithLabelValues(kind).Inc()
	}
}

// RecordStepPassed counts a completed step; nil-safe.
func (m *Metrics) RecordStepPassed(step string) {
	if m != nil {
		m.StepsPassed.WithLabelValues(step).Inc()
	}
}

// RecordSubmission counts a submission attempt; nil-safe.
func (m *Metrics) RecordSubmission(kind, result string) {
	if m != nil {
		m.Submissions.WithLabelValues(kind, result).Inc()
	}
}

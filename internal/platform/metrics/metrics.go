package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the engagement service: email capture
// outcomes and consent decision volume.
type Metrics struct {
	SubscriptionsCreated *prometheus.CounterVec
	DuplicatesBlocked    *prometheus.CounterVec
	SubmissionDuration   prometheus.Histogram
	ConsentDecisions     *prometheus.CounterVec
}

// New creates a Metrics instance with all service metrics registered on the
// default registry.
func New() *Metrics {
	return &Metrics{
		SubscriptionsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bullishbrief_subscriptions_created_total",
			Help: "Total email subscriptions created, by scope kind",
		}, []string{"scope"}),
		DuplicatesBlocked: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bullishbrief_subscriptions_duplicate_total",
			Help: "Total email submissions rejected as duplicates, by scope kind",
		}, []string{"scope"}),
		SubmissionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "bullishbrief_submission_duration_seconds",
			Help:    "Duration of the full email submission flow",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		ConsentDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bullishbrief_consent_decisions_total",
			Help: "Total consent decisions recorded, by action",
		}, []string{"action"}),
	}
}

// IncrementSubscriptionsCreated records a successful subscription insert.
func (m *Metrics) IncrementSubscriptionsCreated(scope string) {
	m.SubscriptionsCreated.WithLabelValues(scope).Inc()
}

// IncrementDuplicatesBlocked records a submission rejected by the
// deduplication guard.
func (m *Metrics) IncrementDuplicatesBlocked(scope string) {
	m.DuplicatesBlocked.WithLabelValues(scope).Inc()
}

// ObserveSubmission records the duration of a submission attempt.
// Call with time.Now() captured at the start of the flow.
func (m *Metrics) ObserveSubmission(start time.Time) {
	m.SubmissionDuration.Observe(time.Since(start).Seconds())
}

// IncrementConsentDecisions records a consent decision by action
// (granted, denied, updated, withdrawn).
func (m *Metrics) IncrementConsentDecisions(action string) {
	m.ConsentDecisions.WithLabelValues(action).Inc()
}

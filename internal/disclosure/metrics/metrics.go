package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for submissions.
const (
	OutcomeMatched  = "matched"
	OutcomeReplayed = "replayed"
	OutcomeDenied   = "denied"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
	OutcomeFailed   = "failed"
)

// Metrics provides observability for the disclosure engine.
type Metrics struct {
	// Submission outcomes
	SubmissionOutcome *prometheus.CounterVec

	// Candidates produced per successful submission
	CandidateCount prometheus.Histogram

	// End-to-end submission latency
	SubmitLatency prometheus.Histogram

	// Reads and administrative deletes by operation and outcome
	Operations *prometheus.CounterVec
}

// New creates a new Metrics instance with disclosure metrics registered.
func New() *Metrics {
	return &Metrics{
		SubmissionOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sidesa_disclosure_submissions_total",
			Help: "Disclosure submissions by outcome",
		}, []string{"outcome"}),

		CandidateCount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sidesa_disclosure_candidates",
			Help:    "Number of candidates produced per disclosure",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		}),

		SubmitLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sidesa_disclosure_submit_duration_seconds",
			Help:    "Duration of disclosure submissions including registry reads and persistence",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		Operations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sidesa_disclosure_operations_total",
			Help: "Disclosure reads and administrative deletes by operation and outcome",
		}, []string{"operation", "outcome"}),
	}
}

func (m *Metrics) IncrementSubmission(outcome string) {
	if m != nil {
		m.SubmissionOutcome.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObserveCandidates(n int) {
	if m != nil {
		m.CandidateCount.Observe(float64(n))
	}
}

func (m *Metrics) ObserveSubmitLatency(d time.Duration) {
	if m != nil {
		m.SubmitLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementOperation(operation, outcome string) {
	if m != nil {
		m.Operations.WithLabelValues(operation, outcome).Inc()
	}
}

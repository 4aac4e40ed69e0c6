package recorder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	audit "sidesa/pkg/platform/audit"
)

// Metrics holds Prometheus metrics for access log recording.
type Metrics struct {
	Entries         *prometheus.CounterVec
	AppendFailures  prometheus.Counter
	AppendDurations prometheus.Histogram
}

// NewMetrics creates and registers access log metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Entries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sidesa_access_log_entries_total",
			Help: "Total number of access log entries appended, by action",
		}, []string{"action"}),
		AppendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sidesa_access_log_append_failures_total",
			Help: "Total number of access log appends that failed to persist",
		}),
		AppendDurations: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sidesa_access_log_append_duration_seconds",
			Help:    "Time taken to persist an access log entry",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncEntries(action audit.Action) {
	if m == nil {
		return
	}
	m.Entries.WithLabelValues(string(action)).Inc()
}

func (m *Metrics) IncAppendFailures() {
	if m == nil {
		return
	}
	m.AppendFailures.Inc()
}

func (m *Metrics) ObserveAppendDuration(seconds float64) {
	if m == nil {
		return
	}
	m.AppendDurations.Observe(seconds)
}

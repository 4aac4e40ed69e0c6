package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for registry reads.
type Metrics struct {
	// Lookup latency by operation ("sub_region", "report")
	LookupLatency *prometheus.HistogramVec

	// Lookup failures by operation and kind ("timeout", "error")
	LookupFailures *prometheus.CounterVec

	// Sub-region scans that joined an in-flight identical scan
	SharedScans prometheus.Counter
}

// New creates a new Metrics instance with registry metrics registered.
func New() *Metrics {
	return &Metrics{
		LookupLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sidesa_registry_lookup_duration_seconds",
			Help:    "Duration of registry lookups by operation",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),

		LookupFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sidesa_registry_lookup_failures_total",
			Help: "Registry lookups that failed, by operation and kind",
		}, []string{"operation", "kind"}),

		SharedScans: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sidesa_registry_shared_scans_total",
			Help: "Sub-region scans served by an identical in-flight scan",
		}),
	}
}

func (m *Metrics) ObserveLookup(operation string, d time.Duration) {
	if m != nil {
		m.LookupLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementFailure(operation, kind string) {
	if m != nil {
		m.LookupFailures.WithLabelValues(operation, kind).Inc()
	}
}

func (m *Metrics) IncrementShared() {
	if m != nil {
		m.SharedScans.Inc()
	}
}

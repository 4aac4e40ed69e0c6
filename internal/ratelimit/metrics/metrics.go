package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Rejected    prometheus.Counter
	StoreErrors prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Rejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sidesa_ratelimit_rejected_total",
			Help: "Operator requests rejected by the rate limiter",
		}),
		StoreErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sidesa_ratelimit_store_errors_total",
			Help: "Rate limit checks that failed open because the store was unavailable",
		}),
	}
}

func (m *Metrics) IncrementRejected() {
	if m != nil {
		m.Rejected.Inc()
	}
}

func (m *Metrics) IncrementStoreErrors() {
	if m != nil {
		m.StoreErrors.Inc()
	}
}

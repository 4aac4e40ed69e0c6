package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process wide HTTP metrics.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
}

// New creates and registers the HTTP metrics.
func New() *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sidesa_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sidesa_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
	}
}

// Middleware records latency and status per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		m.RequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		m.RequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).Inc()
	})
}

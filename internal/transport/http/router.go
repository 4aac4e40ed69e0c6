// Package httptransport assembles the portal's HTTP surface.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	contentHandler "sidesa/internal/content/handler"
	disclosureHandler "sidesa/internal/disclosure/handler"
	"sidesa/internal/platform/metrics"
	"sidesa/pkg/platform/httputil"
	adminmw "sidesa/pkg/platform/middleware/admin"
	authmw "sidesa/pkg/platform/middleware/auth"
	"sidesa/pkg/platform/middleware/metadata"
	request "sidesa/pkg/platform/middleware/request"
	"sidesa/pkg/platform/middleware/requesttime"
)

const defaultRequestTimeout = 30 * time.Second

// HealthFunc reports whether a backing dependency is reachable.
type HealthFunc func(ctx context.Context) error

// Deps are the collaborators the router mounts.
type Deps struct {
	Disclosure     *disclosureHandler.Handler
	Content        *contentHandler.Handler
	Tokens         authmw.JWTValidator
	Sessions       authmw.SessionToucher
	AdminTokenHash string
	Metrics        *metrics.Metrics
	// RateLimit wraps every authenticated route. Nil disables it.
	RateLimit      func(http.Handler) http.Handler
	Health         map[string]HealthFunc
	Logger         *slog.Logger
	RequestTimeout time.Duration
}

// NewRouter wires the public, operator and admin routes.
func NewRouter(d Deps) http.Handler {
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(d.Logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Logger(d.Logger))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}

	r.Get("/healthz", healthHandler(d.Health))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(timeout))
		r.Use(request.ContentTypeJSON)

		d.Content.RegisterPublic(r)

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireAuth(d.Tokens, d.Sessions, d.Logger))
			if d.RateLimit != nil {
				r.Use(d.RateLimit)
			}
			d.Disclosure.Register(r)
			d.Content.RegisterAdmin(r)

			r.Group(func(r chi.Router) {
				r.Use(adminmw.RequireAdminToken(d.AdminTokenHash, d.Logger))
				d.Disclosure.RegisterAdmin(r)
			})
		})
	})

	return r
}

func healthHandler(checks map[string]HealthFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		result := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				result[name] = "unavailable"
				continue
			}
			result[name] = "ok"
		}
		httputil.WriteJSON(w, status, map[string]any{
			"status": http.StatusText(status),
			"checks": result,
		})
	}
}

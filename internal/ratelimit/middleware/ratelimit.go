// Package middleware throttles authenticated operator traffic.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"sidesa/internal/ratelimit/metrics"
	"sidesa/internal/ratelimit/models"
	"sidesa/pkg/platform/circuit"
	"sidesa/pkg/platform/httputil"
	request "sidesa/pkg/platform/middleware/request"
	"sidesa/pkg/requestcontext"
)

// Store admits or rejects one request against a policy.
type Store interface {
	Allow(ctx context.Context, key string, policy models.Policy) (*models.Result, error)
}

type Middleware struct {
	store    Store
	fallback Store
	breaker  *circuit.Breaker
	policy   models.Policy
	logger   *slog.Logger
	metrics  *metrics.Metrics
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns the limiter into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = mt
	}
}

// WithFallback serves checks from a local store while the primary store is
// failing. Without one, store failures let requests through.
func WithFallback(fallback Store, opts ...circuit.Option) Option {
	return func(m *Middleware) {
		m.fallback = fallback
		m.breaker = circuit.New("ratelimit-store", opts...)
	}
}

func New(store Store, policy models.Policy, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store:  store,
		policy: policy,
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled || policy.Limit <= 0 || policy.Window <= 0 {
		m.disabled = true
		logger.Info("operator rate limiting disabled")
	}
	return m
}

// LimitOperator limits requests per authenticated operator, falling back to
// the client address when no operator is attached. Store failures let the
// request through.
func (m *Middleware) LimitOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		key := "ip:" + requestcontext.ClientIP(ctx)
		if caller := requestcontext.Operator(ctx); caller.ID != "" {
			key = "operator:" + caller.ID
		}

		result, degraded, err := m.allow(ctx, key)
		if err != nil {
			m.metrics.IncrementStoreErrors()
			m.logger.ErrorContext(ctx, "rate limit check failed",
				"error", err,
				"request_id", request.GetRequestID(ctx),
			)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
		if degraded {
			w.Header().Set("X-RateLimit-Status", "degraded")
		}

		if !result.Allowed {
			m.metrics.IncrementRejected()
			m.logger.WarnContext(ctx, "operator rate limit exceeded",
				"key", key,
				"request_id", request.GetRequestID(ctx),
			)
			w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
			httputil.WriteJSON(w, http.StatusTooManyRequests, &models.ExceededResponse{
				Error:      "rate_limit_exceeded",
				Message:    "Too many requests. Please try again later.",
				RetryAfter: result.RetryAfter,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allow consults the primary store, switching to the fallback while the
// breaker is open. The primary is still probed so the breaker can close.
func (m *Middleware) allow(ctx context.Context, key string) (*models.Result, bool, error) {
	result, err := m.store.Allow(ctx, key, m.policy)
	if m.fallback == nil {
		return result, false, err
	}

	if err != nil {
		useFallback, change := m.breaker.RecordFailure()
		if change.Opened {
			m.logger.WarnContext(ctx, "rate limit store circuit opened", "breaker", m.breaker.Name(), "error", err)
		}
		if !useFallback {
			return nil, false, err
		}
		m.metrics.IncrementStoreErrors()
		result, err = m.fallback.Allow(ctx, key, m.policy)
		return result, true, err
	}

	usePrimary, change := m.breaker.RecordSuccess()
	if change.Closed {
		m.logger.InfoContext(ctx, "rate limit store circuit closed", "breaker", m.breaker.Name())
	}
	if usePrimary {
		return result, false, nil
	}
	result, err = m.fallback.Allow(ctx, key, m.policy)
	return result, true, err
}

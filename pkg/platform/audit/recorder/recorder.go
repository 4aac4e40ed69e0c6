// Package recorder appends access log entries with fail-closed semantics.
//
// Record blocks until the entry is persisted. When persistence fails the
// error is returned and the calling operation must not report success.
package recorder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sidesa/pkg/domain"
	audit "sidesa/pkg/platform/audit"
	"sidesa/pkg/requestcontext"
)

// Recorder enriches entries from the request context and appends them.
type Recorder struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures the Recorder.
type Option func(*Recorder)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// New creates a recorder over store.
func New(store audit.Store, opts ...Option) *Recorder {
	r := &Recorder{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends exactly one entry. Missing ID, timestamp, client address,
// user agent and request id are filled from ctx.
func (r *Recorder) Record(ctx context.Context, entry audit.Entry) error {
	start := time.Now()

	if !entry.Action.IsValid() {
		return fmt.Errorf("access log entry has unknown action %q", entry.Action)
	}
	if entry.PerformedBy == "" {
		return fmt.Errorf("access log entry requires PerformedBy")
	}

	if entry.ID.IsNil() {
		entry.ID = domain.NewLogEntryID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = requestcontext.Now(ctx)
	}
	if entry.IPAddress == "" {
		entry.IPAddress = requestcontext.ClientIP(ctx)
	}
	if entry.UserAgent == "" {
		entry.UserAgent = requestcontext.UserAgent(ctx)
	}
	if entry.RequestID == "" {
		entry.RequestID = requestcontext.RequestID(ctx)
	}

	if err := r.store.Append(ctx, entry); err != nil {
		r.metrics.IncAppendFailures()
		if r.logger != nil {
			r.logger.ErrorContext(ctx, "CRITICAL: access log append failed",
				"action", entry.Action,
				"performed_by", entry.PerformedBy,
				"ticket_code", entry.TicketCode,
				"error", err,
			)
		}
		return fmt.Errorf("access log persistence failed: %w", err)
	}

	r.metrics.ObserveAppendDuration(time.Since(start).Seconds())
	r.metrics.IncEntries(entry.Action)
	return nil
}

// List returns all entries, oldest first.
func (r *Recorder) List(ctx context.Context) ([]audit.Entry, error) {
	return r.store.List(ctx)
}

// Find returns a single entry.
func (r *Recorder) Find(ctx context.Context, id domain.LogEntryID) (*audit.Entry, error) {
	return r.store.FindByID(ctx, id)
}

// Remove deletes an entry. It is only reachable from the administrative override.
func (r *Recorder) Remove(ctx context.Context, id domain.LogEntryID) error {
	return r.store.Delete(ctx, id)
}

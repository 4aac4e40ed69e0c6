// Package relay publishes access log outbox rows to the audit topic.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"sidesa/pkg/platform/audit/store/postgres"
)

// Source yields unpublished outbox rows and marks them delivered.
type Source interface {
	FetchUnpublished(ctx context.Context, limit int) ([]postgres.OutboxRecord, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Publisher delivers one message to the broker and waits for the ack.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte, headers map[string]string) error
}

// TxRunner runs fn inside a database transaction carried in ctx.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// Relay moves outbox rows to the broker in batches.
type Relay struct {
	source    Source
	publisher Publisher
	runInTx   TxRunner
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// Option configures the Relay.
type Option func(*Relay)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) { r.logger = logger }
}

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// New creates a relay. runInTx may be nil when source needs no transaction.
func New(source Source, publisher Publisher, runInTx TxRunner, opts ...Option) *Relay {
	r := &Relay{
		source:    source,
		publisher: publisher,
		runInTx:   runInTx,
		logger:    slog.Default(),
		interval:  time.Second,
		batchSize: 100,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.runInTx == nil {
		r.runInTx = func(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }
	}
	return r
}

// Drain publishes one batch. Rows are only marked after every message in the
// batch is acknowledged; on failure the batch stays pending for the next pass.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	var published int
	err := r.runInTx(ctx, func(txCtx context.Context) error {
		records, err := r.source.FetchUnpublished(txCtx, r.batchSize)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, 0, len(records))
		for _, rec := range records {
			headers := map[string]string{
				"event_type": rec.EventType,
				"outbox_id":  rec.ID.String(),
			}
			if err := r.publisher.Publish(txCtx, rec.AggregateID, rec.Payload, headers); err != nil {
				return fmt.Errorf("publish outbox %s: %w", rec.ID, err)
			}
			ids = append(ids, rec.ID)
		}
		if err := r.source.MarkPublished(txCtx, ids, r.now()); err != nil {
			return err
		}
		published = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return published, nil
}

// Run drains on every tick until ctx is cancelled. Failures are logged and
// retried on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := r.Drain(ctx)
			if err != nil {
				r.logger.ErrorContext(ctx, "outbox relay pass failed", "error", err)
				continue
			}
			if n > 0 {
				r.logger.DebugContext(ctx, "outbox relay published", "count", n)
			}
		}
	}
}

package service

import (
	"context"
	"sync"
	"time"

	dErrors "sidesa/pkg/domain-errors"
)

// defaultTxTimeout is the maximum duration for a disclosure transaction.
const defaultTxTimeout = 5 * time.Second

// LockedTx serializes disclosure writes against memory stores with a single
// lock. It has no rollback; callers compensate on failure.
type LockedTx struct {
	mu      sync.Mutex
	timeout time.Duration
}

// NewLockedTx creates a memory transaction runner.
func NewLockedTx(timeout time.Duration) *LockedTx {
	return &LockedTx{timeout: timeout}
}

func (t *LockedTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}

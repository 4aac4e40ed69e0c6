package postgres

import (
	"context"
	"database/sql"
	"time"

	dErrors "sidesa/pkg/domain-errors"
	txcontext "sidesa/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// TxRunner runs a function inside a database transaction. Stores reached
// through the callback context pick the transaction up via tx.ExecutorFrom.
type TxRunner struct {
	db      *sql.DB
	timeout time.Duration
}

// NewTxRunner creates a TxRunner. A zero timeout uses the default.
func NewTxRunner(db *sql.DB, timeout time.Duration) *TxRunner {
	return &TxRunner{db: db, timeout: timeout}
}

func (t *TxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
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

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	return tx.Commit()
}

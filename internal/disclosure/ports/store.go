package ports

//go:generate mockgen -source=store.go -destination=mocks/store-mocks.go -package=mocks

import (
	"context"
	"time"

	"sidesa/internal/disclosure/models"
	"sidesa/pkg/domain"
)

// DisclosureStore persists disclosure requests. Insert returns
// sentinel.ErrAlreadyUsed when the ticket already has a request.
type DisclosureStore interface {
	Insert(ctx context.Context, req *models.DisclosureRequest) error
	FindByID(ctx context.Context, id domain.DisclosureID) (*models.DisclosureRequest, error)
	List(ctx context.Context) ([]*models.DisclosureRequest, error)
	Delete(ctx context.Context, id domain.DisclosureID) error
}

// IdempotencyStore remembers which request a caller's idempotency key produced.
// Get returns sentinel.ErrNotFound for unknown keys.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (domain.DisclosureID, error)
	Put(ctx context.Context, key string, id domain.DisclosureID, ttl time.Duration) error
}

// TxRunner runs fn so that every store write made through ctx commits or
// fails together.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

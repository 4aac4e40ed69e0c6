package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sidesa/pkg/domain"
	"sidesa/pkg/platform/sentinel"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	s := NewInMemoryStore()
	s.now = func() time.Time { return now }

	_, err := s.Get(ctx, "op-1:key")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	id := domain.NewDisclosureID()
	require.NoError(t, s.Put(ctx, "op-1:key", id, time.Hour))

	got, err := s.Get(ctx, "op-1:key")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	now = now.Add(time.Hour)
	_, err = s.Get(ctx, "op-1:key")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

// Package idempotency remembers which disclosure a caller's idempotency key produced.
package idempotency

import (
	"context"
	"sync"
	"time"

	"sidesa/pkg/domain"
	"sidesa/pkg/platform/sentinel"
)

type entry struct {
	id        domain.DisclosureID
	expiresAt time.Time
}

// InMemoryStore keeps keys until their TTL passes.
type InMemoryStore struct {
	mu   sync.Mutex
	keys map[string]entry
	now  func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{keys: make(map[string]entry), now: time.Now}
}

func (s *InMemoryStore) Get(_ context.Context, key string) (domain.DisclosureID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.keys[key]
	if !ok {
		return domain.DisclosureID{}, sentinel.ErrNotFound
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.keys, key)
		return domain.DisclosureID{}, sentinel.ErrNotFound
	}
	return e.id, nil
}

func (s *InMemoryStore) Put(_ context.Context, key string, id domain.DisclosureID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = entry{id: id, expiresAt: s.now().Add(ttl)}
	return nil
}

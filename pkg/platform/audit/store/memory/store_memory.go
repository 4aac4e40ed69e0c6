package memory

import (
	"context"
	"sync"

	"sidesa/pkg/domain"
	audit "sidesa/pkg/platform/audit"
	"sidesa/pkg/platform/sentinel"
)

// InMemoryStore keeps entries in a slice so List returns them in append order.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

func (s *InMemoryStore) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// List returns a copy of all entries, oldest first.
func (s *InMemoryStore) List(_ context.Context) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Entry{}, s.entries...), nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.LogEntryID) (*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			entry := s.entries[i]
			return &entry, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Delete(_ context.Context, id domain.LogEntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return sentinel.ErrNotFound
}

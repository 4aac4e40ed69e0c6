// Package store keeps the current version of each content section.
package store

import (
	"context"
	"sync"
	"time"

	"sidesa/internal/content/models"
	"sidesa/pkg/platform/sentinel"
)

// Record is a stored section with its last editor.
type Record struct {
	Section   models.Section
	UpdatedBy string
	UpdatedAt time.Time
}

type InMemoryStore struct {
	mu       sync.RWMutex
	sections map[models.Kind]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sections: make(map[models.Kind]Record)}
}

func (s *InMemoryStore) Get(_ context.Context, kind models.Kind) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sections[kind]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &rec, nil
}

// Put replaces the section of rec's kind.
func (s *InMemoryStore) Put(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections[rec.Section.Kind()] = rec
	return nil
}

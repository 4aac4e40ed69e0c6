// Package store persists operator sessions.
package store

import (
	"context"
	"sync"

	"sidesa/internal/session/models"
	"sidesa/pkg/domain"
	"sidesa/pkg/platform/sentinel"
)

// InMemoryStore keeps sessions for a single instance.
type InMemoryStore struct {
	mu       sync.Mutex
	sessions map[domain.SessionID]models.Session
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[domain.SessionID]models.Session)}
}

func (s *InMemoryStore) Create(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.sessions[session.ID] = *session
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, id domain.SessionID) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &session, nil
}

// Update applies fn to the stored session atomically. The session is saved
// only when fn returns nil.
func (s *InMemoryStore) Update(_ context.Context, id domain.SessionID, fn func(*models.Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if err := fn(&session); err != nil {
		return err
	}
	s.sessions[id] = session
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id domain.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

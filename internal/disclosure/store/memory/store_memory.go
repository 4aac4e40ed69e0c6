package memory

import (
	"context"
	"sync"

	"sidesa/internal/disclosure/models"
	"sidesa/pkg/domain"
	"sidesa/pkg/platform/sentinel"
)

// InMemoryStore keeps disclosure requests in creation order with a ticket index.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests []*models.DisclosureRequest
	byTicket map[string]domain.DisclosureID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byTicket: make(map[string]domain.DisclosureID)}
}

// Insert stores req. A second request for the same ticket is rejected with
// sentinel.ErrAlreadyUsed.
func (s *InMemoryStore) Insert(_ context.Context, req *models.DisclosureRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byTicket[req.TicketCode]; taken {
		return sentinel.ErrAlreadyUsed
	}
	s.byTicket[req.TicketCode] = req.ID
	s.requests = append(s.requests, clone(req))
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.DisclosureID) (*models.DisclosureRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.requests {
		if r.ID == id {
			return clone(r), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// List returns all requests, oldest first.
func (s *InMemoryStore) List(_ context.Context) ([]*models.DisclosureRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.DisclosureRequest, 0, len(s.requests))
	for _, r := range s.requests {
		out = append(out, clone(r))
	}
	return out, nil
}

// Delete hard-removes a request and frees its ticket.
func (s *InMemoryStore) Delete(_ context.Context, id domain.DisclosureID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.requests {
		if r.ID == id {
			delete(s.byTicket, r.TicketCode)
			s.requests = append(s.requests[:i], s.requests[i+1:]...)
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func clone(r *models.DisclosureRequest) *models.DisclosureRequest {
	c := *r
	c.DisclosedNIKs = append([]models.Candidate{}, r.DisclosedNIKs...)
	return &c
}

package store

import (
	"context"
	"sync"

	"sidesa/internal/registry/models"
	"sidesa/pkg/platform/sentinel"
)

// InMemoryStore keeps residents in insertion order and reports by ticket.
type InMemoryStore struct {
	mu        sync.RWMutex
	residents []models.Resident
	byNIK     map[string]int
	reports   map[string]models.Report
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byNIK:   make(map[string]int),
		reports: make(map[string]models.Report),
	}
}

// SaveResident inserts a resident or updates an existing one in place,
// keeping its original position.
func (s *InMemoryStore) SaveResident(_ context.Context, r models.Resident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.byNIK[r.NIK.String()]; ok {
		s.residents[i] = r
		return nil
	}
	s.byNIK[r.NIK.String()] = len(s.residents)
	s.residents = append(s.residents, r)
	return nil
}

func (s *InMemoryStore) SaveReport(_ context.Context, r models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.TicketCode] = r
	return nil
}

// FindBySubRegion returns residents whose sub-region equals subRegion exactly,
// in insertion order.
func (s *InMemoryStore) FindBySubRegion(_ context.Context, subRegion string) ([]models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Resident{}
	for _, r := range s.residents {
		if r.SubRegion == subRegion {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *InMemoryStore) FindReportByTicket(_ context.Context, ticketCode string) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[ticketCode]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &r, nil
}

// SaveResidents saves residents in slice order.
func (s *InMemoryStore) SaveResidents(ctx context.Context, residents []models.Resident) error {
	for _, r := range residents {
		if err := s.SaveResident(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (s *InMemoryStore) SaveReports(ctx context.Context, reports []models.Report) error {
	for _, r := range reports {
		if err := s.SaveReport(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

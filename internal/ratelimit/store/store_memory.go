package store

import (
	"context"
	"sync"
	"time"

	"sidesa/internal/ratelimit/models"
)

// InMemoryStore is a per-process sliding window limiter.
type InMemoryStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow records one request for key if the window still has room.
func (s *InMemoryStore) Allow(_ context.Context, key string, policy models.Policy) (*models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stamps := prune(s.windows[key], now.Add(-policy.Window))

	if len(stamps) >= policy.Limit {
		s.windows[key] = stamps
		resetAt := now.Add(policy.Window)
		if len(stamps) > 0 {
			resetAt = stamps[0].Add(policy.Window)
		}
		return &models.Result{
			Allowed:    false,
			Limit:      policy.Limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: models.RetryAfterSeconds(resetAt.Sub(now)),
		}, nil
	}

	stamps = append(stamps, now)
	s.windows[key] = stamps
	return &models.Result{
		Allowed:   true,
		Limit:     policy.Limit,
		Remaining: policy.Limit - len(stamps),
		ResetAt:   stamps[0].Add(policy.Window),
	}, nil
}

// prune drops timestamps at or before cutoff. stamps is in ascending order.
func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(stamps); i++ {
		if stamps[i].After(cutoff) {
			break
		}
	}
	return stamps[i:]
}

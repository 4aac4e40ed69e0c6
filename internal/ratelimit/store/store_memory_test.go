package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sidesa/internal/ratelimit/models"
)

var testPolicy = models.Policy{Limit: 3, Window: time.Minute}

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	now   time.Time
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s.store = NewInMemoryStore()
	s.store.now = func() time.Time { return s.now }
	s.ctx = context.Background()
}

func (s *InMemoryStoreSuite) TestAllow() {
	s.Run("requests up to the limit are admitted", func() {
		for i := range testPolicy.Limit {
			res, err := s.store.Allow(s.ctx, "operator:up-to", testPolicy)
			s.Require().NoError(err)
			s.True(res.Allowed)
			s.Equal(testPolicy.Limit-i-1, res.Remaining)
		}
	})

	s.Run("request over the limit is rejected with retry-after", func() {
		for range testPolicy.Limit {
			_, err := s.store.Allow(s.ctx, "operator:over", testPolicy)
			s.Require().NoError(err)
		}
		res, err := s.store.Allow(s.ctx, "operator:over", testPolicy)
		s.Require().NoError(err)
		s.False(res.Allowed)
		s.Equal(0, res.Remaining)
		s.Equal(60, res.RetryAfter)
	})

	s.Run("keys are independent", func() {
		for range testPolicy.Limit {
			_, err := s.store.Allow(s.ctx, "operator:a", testPolicy)
			s.Require().NoError(err)
		}
		res, err := s.store.Allow(s.ctx, "operator:b", testPolicy)
		s.Require().NoError(err)
		s.True(res.Allowed)
	})
}

func (s *InMemoryStoreSuite) TestWindowSlides() {
	for range testPolicy.Limit {
		_, err := s.store.Allow(s.ctx, "operator:slide", testPolicy)
		s.Require().NoError(err)
		s.now = s.now.Add(10 * time.Second)
	}

	res, err := s.store.Allow(s.ctx, "operator:slide", testPolicy)
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.Equal(30, res.RetryAfter)

	// The first stamp leaves the window; one slot frees up.
	s.now = s.now.Add(31 * time.Second)
	res, err = s.store.Allow(s.ctx, "operator:slide", testPolicy)
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.Equal(0, res.Remaining)
}

func (s *InMemoryStoreSuite) TestConcurrentCallersNeverExceedLimit() {
	policy := models.Policy{Limit: 10, Window: time.Minute}
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 50 {
		wg.Go(func() {
			res, err := s.store.Allow(s.ctx, "operator:race", policy)
			s.NoError(err)
			if res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		})
	}
	wg.Wait()
	s.Equal(policy.Limit, allowed)
}

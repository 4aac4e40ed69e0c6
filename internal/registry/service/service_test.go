package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"sidesa/internal/registry/models"
	"sidesa/internal/registry/store"
	"sidesa/pkg/domain"
	dErrors "sidesa/pkg/domain-errors"
)

type blockingPopulation struct {
	calls   atomic.Int32
	release chan struct{}
	result  []models.Resident
	err     error
}

func (b *blockingPopulation) FindBySubRegion(ctx context.Context, _ string) ([]models.Resident, error) {
	b.calls.Add(1)
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return b.result, b.err
}

type ServiceSuite struct {
	suite.Suite
	store   *store.InMemoryStore
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewInMemoryStore()
	s.service = New(s.store, s.store, WithTimeout(time.Second))
}

func (s *ServiceSuite) addResident(nik, name, region string) {
	n, err := domain.ParseNIK(nik)
	s.Require().NoError(err)
	s.Require().NoError(s.store.SaveResident(context.Background(), models.Resident{NIK: n, Name: name, SubRegion: region}))
}

func (s *ServiceSuite) TestFindBySubRegionTrimsInput() {
	s.addResident("3201010101010001", "Ani", "Dusun Krajan")
	got, err := s.service.FindBySubRegion(context.Background(), "  Dusun Krajan ")
	s.Require().NoError(err)
	s.Len(got, 1)
}

func (s *ServiceSuite) TestFindReportByTicketNotFound() {
	_, err := s.service.FindReportByTicket(context.Background(), "ASP-404")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestFindReportByTicket() {
	s.Require().NoError(s.store.SaveReport(context.Background(), models.Report{TicketCode: "ASP-1", SubRegion: "RW 02"}))
	r, err := s.service.FindReportByTicket(context.Background(), "ASP-1")
	s.Require().NoError(err)
	s.Equal("RW 02", r.SubRegion)
}

func TestFindBySubRegion_DependencyFailure(t *testing.T) {
	pop := &blockingPopulation{release: make(chan struct{}), err: errors.New("connection reset")}
	close(pop.release)
	svc := New(pop, store.NewInMemoryStore())

	_, err := svc.FindBySubRegion(context.Background(), "RT 01")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeDependency))
}

func TestFindBySubRegion_Timeout(t *testing.T) {
	pop := &blockingPopulation{release: make(chan struct{})}
	defer close(pop.release)
	svc := New(pop, store.NewInMemoryStore(), WithTimeout(20*time.Millisecond))

	_, err := svc.FindBySubRegion(context.Background(), "RT 01")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeDependency))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFindBySubRegion_SharesInFlightScan(t *testing.T) {
	n, err := domain.ParseNIK("3201010101010001")
	require.NoError(t, err)
	pop := &blockingPopulation{
		release: make(chan struct{}),
		result:  []models.Resident{{NIK: n, Name: "Ani", SubRegion: "RT 01"}},
	}
	svc := New(pop, store.NewInMemoryStore(), WithTimeout(time.Second))

	const callers = 5
	var wg sync.WaitGroup
	results := make([][]models.Resident, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.FindBySubRegion(context.Background(), "RT 01")
			assert.NoError(t, err)
			results[i] = res
		}()
	}

	require.Eventually(t, func() bool { return pop.calls.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(pop.release)
	wg.Wait()

	assert.LessOrEqual(t, pop.calls.Load(), int32(callers))
	for _, res := range results {
		require.Len(t, res, 1)
		assert.Equal(t, "Ani", res[0].Name)
	}
	results[0][0].Name = "mutated"
	assert.Equal(t, "Ani", results[1][0].Name)
}

func TestFindBySubRegion_NotCachedAfterCompletion(t *testing.T) {
	pop := &blockingPopulation{release: make(chan struct{})}
	close(pop.release)
	svc := New(pop, store.NewInMemoryStore())

	_, err := svc.FindBySubRegion(context.Background(), "RT 01")
	require.NoError(t, err)
	_, err = svc.FindBySubRegion(context.Background(), "RT 01")
	require.NoError(t, err)
	assert.Equal(t, int32(2), pop.calls.Load())
}

// Package service fronts the registry stores with per-call timeouts and
// in-flight deduplication of identical sub-region scans.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"sidesa/internal/registry/metrics"
	"sidesa/internal/registry/models"
	dErrors "sidesa/pkg/domain-errors"
	"sidesa/pkg/platform/sentinel"
)

// PopulationStore reads residents.
type PopulationStore interface {
	FindBySubRegion(ctx context.Context, subRegion string) ([]models.Resident, error)
}

// ReportStore reads anonymous report metadata.
type ReportStore interface {
	FindReportByTicket(ctx context.Context, ticketCode string) (*models.Report, error)
}

const defaultTimeout = 3 * time.Second

// Service is the read-only registry facade used by the disclosure engine.
type Service struct {
	population PopulationStore
	reports    ReportStore
	timeout    time.Duration
	scans      singleflight.Group
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures the Service.
type Option func(*Service)

func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(population PopulationStore, reports ReportStore, opts ...Option) *Service {
	s := &Service{
		population: population,
		reports:    reports,
		timeout:    defaultTimeout,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindBySubRegion returns residents of subRegion in registry insertion order.
// Concurrent calls for the same sub-region share one store scan; results are
// never retained after the scan completes.
func (s *Service) FindBySubRegion(ctx context.Context, subRegion string) ([]models.Resident, error) {
	subRegion = strings.TrimSpace(subRegion)
	start := time.Now()

	ch := s.scans.DoChan(subRegion, func() (any, error) {
		scanCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.population.FindBySubRegion(scanCtx, subRegion)
	})

	select {
	case <-ctx.Done():
		s.metrics.IncrementFailure("sub_region", "cancelled")
		return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeDependency, "population registry lookup cancelled")
	case res := <-ch:
		s.metrics.ObserveLookup("sub_region", time.Since(start))
		if res.Shared {
			s.metrics.IncrementShared()
		}
		if res.Err != nil {
			return nil, s.dependencyError(ctx, "sub_region", res.Err, "population registry unavailable")
		}
		shared, _ := res.Val.([]models.Resident)
		return append([]models.Resident{}, shared...), nil
	}
}

// FindReportByTicket resolves a ticket to its report metadata.
func (s *Service) FindReportByTicket(ctx context.Context, ticketCode string) (*models.Report, error) {
	start := time.Now()
	lookupCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	report, err := s.reports.FindReportByTicket(lookupCtx, ticketCode)
	s.metrics.ObserveLookup("report", time.Since(start))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "report not found")
		}
		return nil, s.dependencyError(ctx, "report", err, "report lookup unavailable")
	}
	return report, nil
}

func (s *Service) dependencyError(ctx context.Context, operation string, err error, msg string) error {
	kind := "error"
	if errors.Is(err, context.DeadlineExceeded) {
		kind = "timeout"
	}
	s.metrics.IncrementFailure(operation, kind)
	s.logger.WarnContext(ctx, "registry lookup failed",
		"operation", operation,
		"kind", kind,
		"error", err,
	)
	return dErrors.Wrap(err, dErrors.CodeDependency, msg)
}

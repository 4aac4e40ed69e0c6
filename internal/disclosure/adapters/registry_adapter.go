package adapters

import (
	"context"

	"sidesa/internal/disclosure/matcher"
	"sidesa/internal/disclosure/ports"
	"sidesa/internal/registry/models"
)

// RegistryService is the subset of the registry service the adapter needs.
type RegistryService interface {
	FindReportByTicket(ctx context.Context, ticketCode string) (*models.Report, error)
	FindBySubRegion(ctx context.Context, subRegion string) ([]models.Resident, error)
}

// RegistryAdapter implements ports.RegistryPort by calling the registry
// service in process. The registry service already returns coded errors.
type RegistryAdapter struct {
	registry RegistryService
}

// NewRegistryAdapter creates an in-process registry adapter.
func NewRegistryAdapter(registry RegistryService) ports.RegistryPort {
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) FindReportByTicket(ctx context.Context, ticketCode string) (*matcher.Report, error) {
	r, err := a.registry.FindReportByTicket(ctx, ticketCode)
	if err != nil {
		return nil, err
	}
	return &matcher.Report{
		TicketCode:  r.TicketCode,
		SubRegion:   r.SubRegion,
		SubmittedAt: r.SubmittedAt,
	}, nil
}

func (a *RegistryAdapter) FindBySubRegion(ctx context.Context, subRegion string) ([]matcher.Resident, error) {
	residents, err := a.registry.FindBySubRegion(ctx, subRegion)
	if err != nil {
		return nil, err
	}
	out := make([]matcher.Resident, len(residents))
	for i, r := range residents {
		out[i] = matcher.Resident{
			NIK:       r.NIK,
			Name:      r.Name,
			SubRegion: r.SubRegion,
		}
	}
	return out, nil
}

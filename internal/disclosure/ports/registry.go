package ports

//go:generate mockgen -source=registry.go -destination=mocks/registry-mocks.go -package=mocks RegistryPort

import (
	"context"

	"sidesa/internal/disclosure/matcher"
)

// RegistryPort reads the population registry and the anonymous report index
// without depending on how or where they are stored.
type RegistryPort interface {
	// FindReportByTicket returns CodeNotFound when the ticket is unknown and
	// CodeDependency when the index is unreachable.
	FindReportByTicket(ctx context.Context, ticketCode string) (*matcher.Report, error)

	// FindBySubRegion returns residents in registry insertion order.
	FindBySubRegion(ctx context.Context, subRegion string) ([]matcher.Resident, error)
}

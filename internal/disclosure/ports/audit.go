package ports

//go:generate mockgen -source=audit.go -destination=mocks/audit-mocks.go -package=mocks AuditPort

import (
	"context"

	"sidesa/pkg/domain"
	audit "sidesa/pkg/platform/audit"
)

// AuditPort appends and reads the access log. Record is fail-closed.
type AuditPort interface {
	Record(ctx context.Context, entry audit.Entry) error
	List(ctx context.Context) ([]audit.Entry, error)
	Find(ctx context.Context, id domain.LogEntryID) (*audit.Entry, error)
	Remove(ctx context.Context, id domain.LogEntryID) error
}

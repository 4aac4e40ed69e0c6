// Package service reads and edits portal content sections.
package service

import (
	"context"
	"errors"
	"log/slog"

	"sidesa/internal/content/models"
	"sidesa/internal/content/store"
	"sidesa/pkg/domain"
	dErrors "sidesa/pkg/domain-errors"
	"sidesa/pkg/platform/sentinel"
	"sidesa/pkg/requestcontext"
)

type Store interface {
	Get(ctx context.Context, kind models.Kind) (*store.Record, error)
	Put(ctx context.Context, rec store.Record) error
}

type Service struct {
	store  Store
	logger *slog.Logger
}

func New(st Store, logger *slog.Logger) *Service {
	return &Service{store: st, logger: logger}
}

// Get is public; published content needs no caller.
func (s *Service) Get(ctx context.Context, kind models.Kind) (*store.Record, error) {
	rec, err := s.store.Get(ctx, kind)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "content not published")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeDependency, "failed to load content")
	}
	return rec, nil
}

// Put replaces a section. Any administrative role may edit content.
func (s *Service) Put(ctx context.Context, section models.Section) (*store.Record, error) {
	caller := requestcontext.Operator(ctx)
	if caller.Role != domain.RoleSuperAdmin && caller.Role != domain.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "editing content requires an administrative role")
	}
	if err := section.Validate(); err != nil {
		return nil, err
	}

	rec := store.Record{
		Section:   section,
		UpdatedBy: caller.ID,
		UpdatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Put(ctx, rec); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDependency, "failed to save content")
	}
	s.logger.InfoContext(ctx, "content section updated",
		"kind", string(section.Kind()),
		"updated_by", caller.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return &rec, nil
}

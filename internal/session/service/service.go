// Package service starts, touches and ends operator sessions.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sidesa/internal/session/models"
	"sidesa/pkg/domain"
	dErrors "sidesa/pkg/domain-errors"
	"sidesa/pkg/platform/sentinel"
	"sidesa/pkg/requestcontext"
)

const defaultIdleTimeout = 30 * time.Minute

var errSessionExpired = errors.New("session expired")

// Store persists sessions. Update must apply fn atomically.
type Store interface {
	Create(ctx context.Context, session *models.Session) error
	Find(ctx context.Context, id domain.SessionID) (*models.Session, error)
	Update(ctx context.Context, id domain.SessionID, fn func(*models.Session) error) error
	Delete(ctx context.Context, id domain.SessionID) error
}

// Service manages session lifetime from last activity.
type Service struct {
	store  Store
	idle   time.Duration
	logger *slog.Logger
}

type Option func(*Service)

func WithIdleTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.idle = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		idle:   defaultIdleTimeout,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens a session for an operator.
func (s *Service) Start(ctx context.Context, operatorID string, role domain.Role) (*models.Session, error) {
	if operatorID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "operator id is required")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	now := requestcontext.Now(ctx)
	session := &models.Session{
		ID:             domain.NewSessionID(),
		OperatorID:     operatorID,
		Role:           role,
		CreatedAt:      now,
		LastActivityAt: now,
	}
	if err := s.store.Create(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDependency, "failed to create session")
	}
	return session, nil
}

// Touch records activity on a live session. An expired session is removed
// and reported as unauthorized.
func (s *Service) Touch(ctx context.Context, id domain.SessionID) error {
	now := requestcontext.Now(ctx)
	err := s.store.Update(ctx, id, func(session *models.Session) error {
		if session.Expired(now, s.idle) {
			return errSessionExpired
		}
		session.LastActivityAt = now
		return nil
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errSessionExpired):
		if delErr := s.store.Delete(ctx, id); delErr != nil && !errors.Is(delErr, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to remove expired session",
				"session_id", id.String(),
				"error", delErr,
			)
		}
		return dErrors.New(dErrors.CodeUnauthorized, "session expired")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeUnauthorized, "session not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeDependency, "failed to touch session")
	}
}

// End closes a session. Ending an unknown session is not an error.
func (s *Service) End(ctx context.Context, id domain.SessionID) error {
	if err := s.store.Delete(ctx, id); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeDependency, "failed to end session")
	}
	return nil
}

// Package models defines operator sessions.
package models

import (
	"time"

	"sidesa/pkg/domain"
)

// Session is an explicit operator session. Liveness is derived from
// LastActivityAt on every check; there are no background timers.
type Session struct {
	ID             domain.SessionID `json:"id"`
	OperatorID     string           `json:"operator_id"`
	Role           domain.Role      `json:"role"`
	CreatedAt      time.Time        `json:"created_at"`
	LastActivityAt time.Time        `json:"last_activity_at"`
}

// Expired reports whether the session has been idle for at least idle.
// A non-positive idle never expires.
func (s *Session) Expired(now time.Time, idle time.Duration) bool {
	if idle <= 0 {
		return false
	}
	return !now.Before(s.LastActivityAt.Add(idle))
}

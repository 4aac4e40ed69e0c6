package audit

import (
	"context"
	"time"

	"sidesa/pkg/domain"
)

// Action classifies an access log entry.
type Action string

const (
	// ActionAccessDenied records a caller that failed the role gate.
	ActionAccessDenied Action = "access-denied"
	// ActionRequestRejected records a submission refused by validation, a missing
	// ticket, or an existing disclosure for the same ticket.
	ActionRequestRejected Action = "request-rejected"
	// ActionRequestFailed records a dependency failure after the caller was identified.
	ActionRequestFailed Action = "request-failed"
	// ActionMatchComputed records a persisted disclosure and its candidate list.
	ActionMatchComputed Action = "match-computed"
	// ActionDisclosureViewed records any read of stored disclosure results.
	ActionDisclosureViewed Action = "disclosure-viewed"
	// ActionRecordDeleted records an administrative delete. These entries are permanent.
	ActionRecordDeleted Action = "record-deleted"
)

var validActions = map[Action]struct{}{
	ActionAccessDenied:     {},
	ActionRequestRejected:  {},
	ActionRequestFailed:    {},
	ActionMatchComputed:    {},
	ActionDisclosureViewed: {},
	ActionRecordDeleted:    {},
}

// IsValid reports whether a is a known action.
func (a Action) IsValid() bool {
	_, ok := validActions[a]
	return ok
}

// Deletable reports whether entries with this action may be removed by an
// administrative override.
func (a Action) Deletable() bool {
	return a != ActionRecordDeleted
}

func (a Action) String() string { return string(a) }

// Entry is one immutable access log record.
type Entry struct {
	ID           domain.LogEntryID
	Action       Action
	PerformedBy  string
	IPAddress    string
	UserAgent    string
	RequestID    string
	TicketCode   string
	DisclosureID domain.DisclosureID
	Detail       string
	CreatedAt    time.Time
}

// Store persists access log entries in append order.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	List(ctx context.Context) ([]Entry, error)
	FindByID(ctx context.Context, id domain.LogEntryID) (*Entry, error)
	Delete(ctx context.Context, id domain.LogEntryID) error
}

package domain

import (
	"github.com/google/uuid"

	dErrors "sidesa/pkg/domain-errors"
)

// Typed identifiers. Distinct named types keep a disclosure ID from being
// passed where a log entry ID is expected.
type (
	DisclosureID uuid.UUID
	LogEntryID   uuid.UUID
	OperatorID   uuid.UUID
	SessionID    uuid.UUID
)

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return parsed, nil
}

// ParseDisclosureID parses a disclosure request ID at a trust boundary.
func ParseDisclosureID(s string) (DisclosureID, error) {
	u, err := parseUUID(s, "disclosure id")
	return DisclosureID(u), err
}

// ParseLogEntryID parses an access log entry ID at a trust boundary.
func ParseLogEntryID(s string) (LogEntryID, error) {
	u, err := parseUUID(s, "log entry id")
	return LogEntryID(u), err
}

// ParseOperatorID parses an operator ID at a trust boundary.
func ParseOperatorID(s string) (OperatorID, error) {
	u, err := parseUUID(s, "operator id")
	return OperatorID(u), err
}

// ParseSessionID parses a session ID at a trust boundary.
func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session id")
	return SessionID(u), err
}

func (id DisclosureID) String() string { return uuid.UUID(id).String() }
func (id DisclosureID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id LogEntryID) String() string { return uuid.UUID(id).String() }
func (id LogEntryID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id OperatorID) String() string { return uuid.UUID(id).String() }
func (id OperatorID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id SessionID) String() string { return uuid.UUID(id).String() }
func (id SessionID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// NewDisclosureID returns a fresh random disclosure ID.
func NewDisclosureID() DisclosureID { return DisclosureID(uuid.New()) }

// NewLogEntryID returns a fresh random log entry ID.
func NewLogEntryID() LogEntryID { return LogEntryID(uuid.New()) }

// NewSessionID returns a fresh random session ID.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

func (id SessionID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *SessionID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

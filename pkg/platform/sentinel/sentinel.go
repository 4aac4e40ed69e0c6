package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: entity does not exist in store
//   - ErrAlreadyUsed: a unique key (ticket code, idempotency key) is taken
//   - ErrImmutable: the record may not be changed or removed
//   - ErrUnavailable: backing service unreachable or timed out
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrAlreadyUsed = errors.New("already used")
	ErrImmutable   = errors.New("immutable")
	ErrUnavailable = errors.New("unavailable")
)

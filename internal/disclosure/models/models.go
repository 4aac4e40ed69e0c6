// Package models defines the disclosure request aggregate.
package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"sidesa/pkg/domain"
	dErrors "sidesa/pkg/domain-errors"
)

// Disclaimer accompanies every candidate list shown to a caller.
const Disclaimer = "Candidates are an approximate narrowing based on weak report metadata. " +
	"A probability is never proof of identity."

// MaxOfficialDocumentLength bounds the optional supporting document reference.
const MaxOfficialDocumentLength = 100

// Candidate is a population record suggested as a possible match for a report.
type Candidate struct {
	NIK         domain.NIK
	Name        string
	SubRegion   string
	Probability float64
}

// DisclosureRequest is an approved emergency disclosure. It is created once
// with its candidate list and never modified afterwards.
type DisclosureRequest struct {
	ID               domain.DisclosureID
	TicketCode       string
	RequestedBy      string
	RequestReason    string
	OfficialDocument string
	AuthorizedBy     string
	DisclosedNIKs    []Candidate
	CreatedAt        time.Time
}

// NewDisclosureRequest builds a request and enforces its invariants.
func NewDisclosureRequest(
	id domain.DisclosureID,
	ticketCode, requestedBy, reason, officialDocument, authorizedBy string,
	candidates []Candidate,
	createdAt time.Time,
) (*DisclosureRequest, error) {
	switch {
	case id.IsNil():
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "disclosure id is required")
	case strings.TrimSpace(ticketCode) == "":
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "ticket code is required")
	case strings.TrimSpace(requestedBy) == "":
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "requester is required")
	case strings.TrimSpace(authorizedBy) == "":
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "authorizer is required")
	case utf8.RuneCountInString(officialDocument) > MaxOfficialDocumentLength:
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "official document reference too long")
	case createdAt.IsZero():
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "creation time is required")
	}
	for _, c := range candidates {
		if c.Probability < 0 || c.Probability > 100 {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "candidate probability out of range")
		}
	}
	if candidates == nil {
		candidates = []Candidate{}
	}
	return &DisclosureRequest{
		ID:               id,
		TicketCode:       ticketCode,
		RequestedBy:      requestedBy,
		RequestReason:    reason,
		OfficialDocument: officialDocument,
		AuthorizedBy:     authorizedBy,
		DisclosedNIKs:    append([]Candidate{}, candidates...),
		CreatedAt:        createdAt,
	}, nil
}

// Submission carries the caller-supplied fields of a disclosure request.
type Submission struct {
	TicketCode       string
	RequestReason    string
	OfficialDocument string
	AuthorizedBy     string
	IdempotencyKey   string
}

// Normalize trims surrounding whitespace from every field.
func (s *Submission) Normalize() {
	s.TicketCode = strings.TrimSpace(s.TicketCode)
	s.RequestReason = strings.TrimSpace(s.RequestReason)
	s.OfficialDocument = strings.TrimSpace(s.OfficialDocument)
	s.AuthorizedBy = strings.TrimSpace(s.AuthorizedBy)
	s.IdempotencyKey = strings.TrimSpace(s.IdempotencyKey)
}

// SubmitResult is returned for a successful submission or an idempotent replay.
type SubmitResult struct {
	RequestID   domain.DisclosureID
	TicketCode  string
	Candidates  []Candidate
	DisclosedAt time.Time
	Approximate bool
	Replayed    bool
}

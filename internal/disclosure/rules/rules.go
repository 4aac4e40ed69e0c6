// Package rules decides whether a disclosure request may proceed.
// Everything here is pure: no I/O, no side effects.
package rules

import (
	"strings"
	"unicode/utf8"

	"sidesa/internal/disclosure/models"
	"sidesa/pkg/domain"
	dErrors "sidesa/pkg/domain-errors"
)

// MinReasonLength is the minimum request reason length in characters.
const MinReasonLength = 50

// Reason codes returned with validation errors.
const (
	ReasonMissingTicketCode       = "missing-ticket-code"
	ReasonTooShort                = "reason-too-short"
	ReasonMissingUrgencyKeyword   = "reason-missing-urgency-keyword"
	ReasonMissingAuthorizer       = "missing-authorizer"
	ReasonOfficialDocumentTooLong = "official-document-too-long"
	ReasonTicketAlreadyDisclosed  = "ticket-already-disclosed"
)

// UrgencyKeywords are matched case-insensitively as substrings of the reason.
var UrgencyKeywords = []string{
	"ancaman",
	"kekerasan",
	"ilegal",
	"polisi",
	"pengadilan",
	"threat",
	"violence",
	"illegal",
	"police",
	"court",
}

// Input is a disclosure request ready for checking. TicketFound reports
// whether the ticket resolved to a report.
type Input struct {
	RequesterRole    domain.Role
	TicketCode       string
	TicketFound      bool
	RequestReason    string
	AuthorizedBy     string
	OfficialDocument string
}

// CheckRole is the first rule: only the top administrative role may proceed.
// It is exposed separately so callers can gate before any lookup.
func CheckRole(role domain.Role) error {
	if !role.IsSuperAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "emergency disclosure requires the super_admin role")
	}
	return nil
}

// Validate applies the rule chain and returns the first failure.
// Rule order (fail-fast):
//  1. Requester role
//  2. Ticket resolves to a report
//  3. Reason length
//  4. Urgency keyword
//  5. Authorizer present
//  6. Official document reference length
func Validate(in Input) error {
	if err := CheckRole(in.RequesterRole); err != nil {
		return err
	}

	ticket := strings.TrimSpace(in.TicketCode)
	if ticket == "" {
		return dErrors.NewReason(dErrors.CodeValidation, ReasonMissingTicketCode, "ticket code is required")
	}
	if !in.TicketFound {
		return dErrors.New(dErrors.CodeNotFound, "ticket does not match any report")
	}

	reason := strings.TrimSpace(in.RequestReason)
	if utf8.RuneCountInString(reason) < MinReasonLength {
		return dErrors.NewReason(dErrors.CodeValidation, ReasonTooShort, "request reason must be at least 50 characters")
	}
	if !HasUrgencyKeyword(reason) {
		return dErrors.NewReason(dErrors.CodeValidation, ReasonMissingUrgencyKeyword, "request reason must state the emergency")
	}

	if strings.TrimSpace(in.AuthorizedBy) == "" {
		return dErrors.NewReason(dErrors.CodeValidation, ReasonMissingAuthorizer, "authorizing official is required")
	}

	if utf8.RuneCountInString(strings.TrimSpace(in.OfficialDocument)) > models.MaxOfficialDocumentLength {
		return dErrors.NewReason(dErrors.CodeValidation, ReasonOfficialDocumentTooLong, "official document reference is too long")
	}
	return nil
}

// HasUrgencyKeyword reports whether reason contains any urgency keyword,
// ignoring case.
func HasUrgencyKeyword(reason string) bool {
	lower := strings.ToLower(reason)
	for _, kw := range UrgencyKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

package handler

import (
	"strings"
	"unicode/utf8"

	dErrors "sidesa/pkg/domain-errors"
)

// maxReasonLength bounds the free-text reason accepted on the wire.
const maxReasonLength = 4000

// SubmitRequest is the body of POST /disclosures. Business rules are
// applied by the service so that every refusal reaches the access log;
// only transport limits are checked here.
type SubmitRequest struct {
	TicketCode       string `json:"ticket_code"`
	RequestReason    string `json:"request_reason"`
	OfficialDocument string `json:"official_document,omitempty"`
	AuthorizedBy     string `json:"authorized_by"`
}

func (r *SubmitRequest) Validate() error {
	r.TicketCode = strings.TrimSpace(r.TicketCode)
	r.AuthorizedBy = strings.TrimSpace(r.AuthorizedBy)
	if utf8.RuneCountInString(r.RequestReason) > maxReasonLength {
		return dErrors.New(dErrors.CodeBadRequest, "request_reason is too long")
	}
	return nil
}

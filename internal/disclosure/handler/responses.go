package handler

import (
	"time"

	"sidesa/internal/disclosure/models"
	audit "sidesa/pkg/platform/audit"
)

type CandidateResponse struct {
	NIK         string  `json:"nik"`
	Name        string  `json:"name"`
	SubRegion   string  `json:"sub_region"`
	Probability float64 `json:"probability"`
}

// SubmitResponse always carries the disclaimer: candidates are a narrowing,
// not an identification.
type SubmitResponse struct {
	RequestID   string              `json:"request_id"`
	TicketCode  string              `json:"ticket_code"`
	Candidates  []CandidateResponse `json:"candidates"`
	DisclosedAt time.Time           `json:"disclosed_at"`
	Approximate bool                `json:"approximate"`
	Replayed    bool                `json:"replayed,omitempty"`
	Disclaimer  string              `json:"disclaimer"`
}

type DisclosureResponse struct {
	ID               string              `json:"id"`
	TicketCode       string              `json:"ticket_code"`
	RequestedBy      string              `json:"requested_by"`
	RequestReason    string              `json:"request_reason"`
	OfficialDocument string              `json:"official_document,omitempty"`
	AuthorizedBy     string              `json:"authorized_by"`
	Candidates       []CandidateResponse `json:"candidates"`
	CreatedAt        time.Time           `json:"created_at"`
}

type HistoryResponse struct {
	Requests   []DisclosureResponse `json:"requests"`
	Disclaimer string               `json:"disclaimer"`
}

type DisclosureDetailResponse struct {
	DisclosureResponse
	Approximate bool   `json:"approximate"`
	Disclaimer  string `json:"disclaimer"`
}

type AccessLogResponse struct {
	ID           string    `json:"id"`
	Action       string    `json:"action"`
	PerformedBy  string    `json:"performed_by"`
	IPAddress    string    `json:"ip_address,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	RequestID    string    `json:"request_id,omitempty"`
	TicketCode   string    `json:"ticket_code,omitempty"`
	DisclosureID string    `json:"disclosure_id,omitempty"`
	Detail       string    `json:"detail,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type AccessLogsResponse struct {
	Entries []AccessLogResponse `json:"entries"`
}

func toCandidates(in []models.Candidate) []CandidateResponse {
	out := make([]CandidateResponse, len(in))
	for i, c := range in {
		out[i] = CandidateResponse{
			NIK:         c.NIK.String(),
			Name:        c.Name,
			SubRegion:   c.SubRegion,
			Probability: c.Probability,
		}
	}
	return out
}

func toSubmitResponse(r *models.SubmitResult) SubmitResponse {
	return SubmitResponse{
		RequestID:   r.RequestID.String(),
		TicketCode:  r.TicketCode,
		Candidates:  toCandidates(r.Candidates),
		DisclosedAt: r.DisclosedAt,
		Approximate: r.Approximate,
		Replayed:    r.Replayed,
		Disclaimer:  models.Disclaimer,
	}
}

func toDisclosureResponse(r *models.DisclosureRequest) DisclosureResponse {
	return DisclosureResponse{
		ID:               r.ID.String(),
		TicketCode:       r.TicketCode,
		RequestedBy:      r.RequestedBy,
		RequestReason:    r.RequestReason,
		OfficialDocument: r.OfficialDocument,
		AuthorizedBy:     r.AuthorizedBy,
		Candidates:       toCandidates(r.DisclosedNIKs),
		CreatedAt:        r.CreatedAt,
	}
}

func toAccessLogResponse(e audit.Entry) AccessLogResponse {
	resp := AccessLogResponse{
		ID:          e.ID.String(),
		Action:      e.Action.String(),
		PerformedBy: e.PerformedBy,
		IPAddress:   e.IPAddress,
		UserAgent:   e.UserAgent,
		RequestID:   e.RequestID,
		TicketCode:  e.TicketCode,
		Detail:      e.Detail,
		CreatedAt:   e.CreatedAt,
	}
	if !e.DisclosureID.IsNil() {
		resp.DisclosureID = e.DisclosureID.String()
	}
	return resp
}

// NewHistoryResponse renders stored requests in listing order.
func NewHistoryResponse(requests []*models.DisclosureRequest) HistoryResponse {
	resp := HistoryResponse{
		Requests:   make([]DisclosureResponse, 0, len(requests)),
		Disclaimer: models.Disclaimer,
	}
	for _, req := range requests {
		resp.Requests = append(resp.Requests, toDisclosureResponse(req))
	}
	return resp
}

func NewAccessLogsResponse(entries []audit.Entry) AccessLogsResponse {
	resp := AccessLogsResponse{Entries: make([]AccessLogResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, toAccessLogResponse(e))
	}
	return resp
}

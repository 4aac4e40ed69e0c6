package handler

//go:generate mockgen -source=handler.go -destination=mocks/disclosure-mocks.go -package=mocks Service

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sidesa/internal/disclosure/models"
	"sidesa/pkg/domain"
	dErrors "sidesa/pkg/domain-errors"
	audit "sidesa/pkg/platform/audit"
	"sidesa/pkg/platform/httputil"
	request "sidesa/pkg/platform/middleware/request"
)

// IdempotencyKeyHeader lets a caller retry a submission without creating a
// second request.
const IdempotencyKeyHeader = "Idempotency-Key"

// Service defines the disclosure operations exposed over HTTP.
type Service interface {
	Submit(ctx context.Context, sub models.Submission) (*models.SubmitResult, error)
	History(ctx context.Context) ([]*models.DisclosureRequest, error)
	Get(ctx context.Context, id domain.DisclosureID) (*models.DisclosureRequest, error)
	AccessLogs(ctx context.Context) ([]audit.Entry, error)
	DeleteRequest(ctx context.Context, id domain.DisclosureID) error
	DeleteLog(ctx context.Context, id domain.LogEntryID) error
}

// Handler serves the emergency disclosure endpoints. Authentication runs
// before it; authorization is decided by the service on every call.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a disclosure Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register registers the operator routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/disclosures", h.HandleSubmit)
	r.Get("/disclosures", h.HandleHistory)
	r.Get("/disclosures/{id}", h.HandleGet)
	r.Get("/access-logs", h.HandleAccessLogs)
}

// RegisterAdmin registers the administrative override routes. The caller is
// expected to guard r with the admin token middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Delete("/admin/disclosures/{id}", h.HandleDeleteRequest)
	r.Delete("/admin/access-logs/{id}", h.HandleDeleteLog)
}

// HandleSubmit handles POST /disclosures.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Submit(ctx, models.Submission{
		TicketCode:       req.TicketCode,
		RequestReason:    req.RequestReason,
		OfficialDocument: req.OfficialDocument,
		AuthorizedBy:     req.AuthorizedBy,
		IdempotencyKey:   r.Header.Get(IdempotencyKeyHeader),
	})
	if err != nil {
		h.writeServiceError(ctx, w, "submit disclosure", err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, toSubmitResponse(result))
}

// HandleHistory handles GET /disclosures.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requests, err := h.service.History(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, "disclosure history", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, NewHistoryResponse(requests))
}

// HandleGet handles GET /disclosures/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseDisclosureID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, err := h.service.Get(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "get disclosure", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, DisclosureDetailResponse{
		DisclosureResponse: toDisclosureResponse(req),
		Approximate:        true,
		Disclaimer:         models.Disclaimer,
	})
}

// HandleAccessLogs handles GET /access-logs.
func (h *Handler) HandleAccessLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := h.service.AccessLogs(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, "access logs", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, NewAccessLogsResponse(entries))
}

// HandleDeleteRequest handles DELETE /admin/disclosures/{id}.
func (h *Handler) HandleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseDisclosureID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteRequest(ctx, id); err != nil {
		h.writeServiceError(ctx, w, "delete disclosure", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteLog handles DELETE /admin/access-logs/{id}.
func (h *Handler) HandleDeleteLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseLogEntryID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteLog(ctx, id); err != nil {
		h.writeServiceError(ctx, w, "delete access log entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	requestID := request.GetRequestID(ctx)
	switch dErrors.CodeOf(err) {
	case dErrors.CodeDependency, dErrors.CodeTimeout, dErrors.CodeInternal, dErrors.CodeInvariantViolation:
		h.logger.ErrorContext(ctx, op+" failed",
			"request_id", requestID,
			"error", err,
		)
	default:
		h.logger.WarnContext(ctx, op+" refused",
			"request_id", requestID,
			"code", string(dErrors.CodeOf(err)),
			"reason", dErrors.ReasonOf(err),
		)
	}
	httputil.WriteError(w, err)
}

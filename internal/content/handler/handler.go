package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sidesa/internal/content/models"
	"sidesa/internal/content/store"
	dErrors "sidesa/pkg/domain-errors"
	"sidesa/pkg/platform/httputil"
	request "sidesa/pkg/platform/middleware/request"
)

const maxSectionBytes = 64 << 10

type Service interface {
	Get(ctx context.Context, kind models.Kind) (*store.Record, error)
	Put(ctx context.Context, section models.Section) (*store.Record, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// SectionResponse is the envelope plus edit metadata.
type SectionResponse struct {
	Kind      models.Kind     `json:"kind"`
	Data      json.RawMessage `json:"data"`
	UpdatedBy string          `json:"updated_by,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// RegisterPublic registers the unauthenticated read route.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/content/{kind}", h.HandleGet)
}

// RegisterAdmin registers the edit route; r must already authenticate.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Put("/admin/content/{kind}", h.HandlePut)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rec, err := h.service.Get(r.Context(), kind)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeRecord(w, http.StatusOK, rec)
}

// HandlePut takes the section's data object as the body; the kind comes
// from the path.
func (h *Handler) HandlePut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSectionBytes))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	section, err := models.Decode(kind, body)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid content section",
			"request_id", request.GetRequestID(ctx),
			"kind", string(kind),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	rec, err := h.service.Put(ctx, section)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeRecord(w, http.StatusOK, rec)
}

func (h *Handler) writeRecord(w http.ResponseWriter, status int, rec *store.Record) {
	env, err := models.Encode(rec.Section)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, status, SectionResponse{
		Kind:      env.Kind,
		Data:      env.Data,
		UpdatedBy: rec.UpdatedBy,
		UpdatedAt: rec.UpdatedAt,
	})
}

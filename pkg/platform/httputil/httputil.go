// Package httputil holds the JSON response and request helpers shared by handlers.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "sidesa/pkg/domain-errors"
)

// maxBodyBytes caps request bodies accepted by DecodeAndPrepare.
const maxBodyBytes = 1 << 20

// Validatable is implemented by request DTOs that normalize and validate themselves.
type Validatable interface {
	Validate() error
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	Reason           string `json:"reason,omitempty"`
}

// StatusFor maps a domain error code to an HTTP status.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeValidation:
		return http.StatusUnprocessableEntity
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeDependency:
		return http.StatusServiceUnavailable
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes a coded JSON error. Internal errors never expose their message.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	var de *dErrors.Error
	if errors.As(err, &de) {
		code = de.Code
	}

	resp := errorResponse{Error: string(code)}
	if code != dErrors.CodeInternal && de != nil {
		resp.ErrorDescription = de.Message
		resp.Reason = dErrors.ReasonOf(err)
	}
	WriteJSON(w, StatusFor(code), resp)
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeAndPrepare decodes a JSON body into T and runs its Validate method.
// On failure it writes the error response and returns ok=false.
func DecodeAndPrepare[T any, PT interface {
	*T
	Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}
	if err := PT(&req).Validate(); err != nil {
		logger.WarnContext(ctx, "request validation failed",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, err)
		return nil, false
	}
	return &req, true
}

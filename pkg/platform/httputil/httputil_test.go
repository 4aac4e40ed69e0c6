package httputil

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "sidesa/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("bad request includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid input"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "bad_request" {
			t.Fatalf("expected error code bad_request, got %q", body["error"])
		}
		if body["error_description"] != "invalid input" {
			t.Fatalf("expected error_description to be returned for bad request")
		}
	})

	t.Run("validation error carries reason", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.NewReason(dErrors.CodeValidation, "reason-too-short", "reason too short"))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "reason-too-short", body["reason"])
	})

	t.Run("plain error maps to internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, io.ErrUnexpectedEOF)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

type sampleRequest struct {
	Name string `json:"name"`
}

func (r *sampleRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("valid body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"  Sari "}`))
		w := httptest.NewRecorder()
		req, ok := DecodeAndPrepare[sampleRequest](w, r, logger, r.Context(), "req-1")
		require.True(t, ok)
		assert.Equal(t, "Sari", req.Name)
	})

	t.Run("malformed body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
		w := httptest.NewRecorder()
		_, ok := DecodeAndPrepare[sampleRequest](w, r, logger, r.Context(), "req-1")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","extra":1}`))
		w := httptest.NewRecorder()
		_, ok := DecodeAndPrepare[sampleRequest](w, r, logger, r.Context(), "req-1")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("validation failure", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"  "}`))
		w := httptest.NewRecorder()
		_, ok := DecodeAndPrepare[sampleRequest](w, r, logger, r.Context(), "req-1")
		assert.False(t, ok)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

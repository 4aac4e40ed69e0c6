package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"sidesa/pkg/domain"
	"sidesa/pkg/requestcontext"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (v stubValidator) ValidateToken(string) (*JWTClaims, error) { return v.claims, v.err }

type stubSessions struct{ err error }

func (s stubSessions) Touch(context.Context, domain.SessionID) error { return s.err }

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessionID := uuid.NewString()
	validClaims := &JWTClaims{OperatorID: "op-1", Name: "Kepala Desa", Role: "super_admin", SessionID: sessionID}

	run := func(v JWTValidator, s SessionToucher, header string) (*httptest.ResponseRecorder, requestcontext.Caller) {
		var got requestcontext.Caller
		h := RequireAuth(v, s, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = requestcontext.Operator(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec, got
	}

	t.Run("missing header", func(t *testing.T) {
		rec, _ := run(stubValidator{claims: validClaims}, nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		rec, _ := run(stubValidator{err: errors.New("bad")}, nil, "Bearer x")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired session", func(t *testing.T) {
		rec, _ := run(stubValidator{claims: validClaims}, stubSessions{err: errors.New("expired")}, "Bearer x")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token attaches caller", func(t *testing.T) {
		rec, caller := run(stubValidator{claims: validClaims}, stubSessions{}, "Bearer x")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "op-1", caller.ID)
		assert.Equal(t, domain.RoleSuperAdmin, caller.Role)
		assert.Equal(t, sessionID, caller.SessionID.String())
	})

	t.Run("unknown role is passed through empty", func(t *testing.T) {
		claims := *validClaims
		claims.Role = "root"
		rec, caller := run(stubValidator{claims: &claims}, nil, "Bearer x")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, domain.Role(""), caller.Role)
	})
}

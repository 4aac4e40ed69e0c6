package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"sidesa/pkg/domain"
	request "sidesa/pkg/platform/middleware/request"
	"sidesa/pkg/requestcontext"
)

// JWTValidator defines the interface for validating operator bearer tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// SessionToucher records activity on an operator session and reports whether
// the session is still live. Expiry is derived from the stored last-activity
// timestamp, not from timers.
type SessionToucher interface {
	Touch(ctx context.Context, sessionID domain.SessionID) error
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	OperatorID string
	Name       string
	Role       string
	SessionID  string
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth validates the bearer token, touches the operator session when a
// session store is configured, and attaches the caller to the context. The role
// is attached as-is; authorization decisions are made by services per call.
func RequireAuth(validator JWTValidator, sessions SessionToucher, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := request.GetRequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			caller := requestcontext.Caller{ID: claims.OperatorID, Name: claims.Name}
			// Unknown roles are kept empty so the service-level role gate rejects and audits them.
			if role, err := domain.ParseRole(claims.Role); err == nil {
				caller.Role = role
			}

			if sessions != nil {
				sessionID, err := domain.ParseSessionID(claims.SessionID)
				if err != nil {
					logger.WarnContext(ctx, "unauthorized access - missing session",
						"request_id", requestID,
					)
					writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
					return
				}
				if err := sessions.Touch(ctx, sessionID); err != nil {
					logger.WarnContext(ctx, "unauthorized access - session rejected",
						"error", err,
						"request_id", requestID,
					)
					writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Session expired")
					return
				}
				caller.SessionID = sessionID
			}

			ctx = requestcontext.WithOperator(ctx, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

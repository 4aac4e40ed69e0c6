package testutil

import (
	"net/http"

	"sidesa/pkg/domain"
	"sidesa/pkg/requestcontext"
)

// WithOperator attaches an authenticated caller to the request, as the auth
// middleware would.
func WithOperator(req *http.Request, operatorID string, role domain.Role) *http.Request {
	ctx := requestcontext.WithOperator(req.Context(), requestcontext.Caller{
		ID:        operatorID,
		Name:      operatorID,
		Role:      role,
		SessionID: domain.NewSessionID(),
	})
	return req.WithContext(ctx)
}

// WithSuperAdmin is WithOperator for the top administrative role.
func WithSuperAdmin(req *http.Request, operatorID string) *http.Request {
	return WithOperator(req, operatorID, domain.RoleSuperAdmin)
}

// WithClient attaches client address and user agent metadata.
func WithClient(req *http.Request, ip, userAgent string) *http.Request {
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), ip, userAgent))
}

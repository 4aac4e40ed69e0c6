package token

import (
	authmw "sidesa/pkg/platform/middleware/auth"
)

// MiddlewareAdapter exposes JWTService as an auth middleware validator.
type MiddlewareAdapter struct {
	service *JWTService
}

func NewMiddlewareAdapter(service *JWTService) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &authmw.JWTClaims{
		OperatorID: claims.OperatorID,
		Name:       claims.Name,
		Role:       claims.Role,
		SessionID:  claims.SessionID,
	}, nil
}

// Package token issues and validates operator access tokens.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"sidesa/pkg/domain"
	dErrors "sidesa/pkg/domain-errors"
)

// Claims are the operator access token claims. The role is carried for the
// middleware to attach; services still re-check it on every call.
type Claims struct {
	OperatorID string `json:"operator_id"`
	Name       string `json:"name,omitempty"`
	Role       string `json:"role"`
	SessionID  string `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// Operator identifies who a token is issued to.
type Operator struct {
	ID        string
	Name      string
	Role      domain.Role
	SessionID domain.SessionID
}

// JWTService signs and verifies HS256 operator tokens.
type JWTService struct {
	signingKey []byte
	issuer     string
	now        func() time.Time
}

func NewJWTService(signingKey string, issuer string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		now:        time.Now,
	}
}

func (s *JWTService) IssueToken(op Operator, expiresIn time.Duration) (string, error) {
	if op.ID == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "operator id is required")
	}
	if !op.Role.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	now := s.now()
	claims := Claims{
		OperatorID: op.ID,
		Name:       op.Name,
		Role:       op.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   op.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	}
	if !op.SessionID.IsNil() {
		claims.SessionID = op.SessionID.String()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return signed, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.OperatorID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// Package token issues and validates the HMAC-signed access tokens carried
// on every API call. Claims map one to one onto the domain principal.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "hemabank/pkg/domain"
	dErrors "hemabank/pkg/domain-errors"
)

// Claims are the JWT claims for hemabank access tokens.
type Claims struct {
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	ClinicID string `json:"clinic_id,omitempty"`
	jwt.RegisteredClaims
}

// Service signs and validates access tokens.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewService(signingKey, issuer, audience string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// GenerateAccessToken signs a token for the given principal.
func (s *Service) GenerateAccessToken(principal id.Principal, expiresIn time.Duration) (string, error) {
	claims := Claims{
		UserID: principal.UserID.String(),
		Role:   string(principal.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	}
	if !principal.ClinicID.IsNil() {
		claims.ClinicID = principal.ClinicID.String()
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

// ValidateToken parses a signed token back into a principal.
func (s *Service) ValidateToken(tokenString string) (id.Principal, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return id.Principal{}, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return id.Principal{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return id.Principal{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	return principalFromClaims(claims)
}

func principalFromClaims(claims *Claims) (id.Principal, error) {
	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return id.Principal{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	role, ok := id.ParseRole(claims.Role)
	if !ok {
		return id.Principal{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	principal := id.Principal{UserID: userID, Role: role}
	if claims.ClinicID != "" {
		clinicID, err := id.ParseClinicID(claims.ClinicID)
		if err != nil {
			return id.Principal{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
		}
		principal.ClinicID = clinicID
	}
	return principal, nil
}

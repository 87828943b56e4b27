package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"custodia/pkg/domain"

	dErrors "custodia/pkg/domain-errors"
)

// Claims carries the ledger address the platform asserts for the caller.
type Claims struct {
	Address string `json:"address"`
	jwt.RegisteredClaims
}

// Service creates and validates the platform's caller-identity tokens.
type Service struct {
	signingKey []byte
	issuer     string
}

func New(signingKey, issuer string) *Service {
	return &Service{signingKey: []byte(signingKey), issuer: issuer}
}

// GenerateToken mints a token asserting the given address. Used by tooling and
// tests; in production the platform is the issuer.
func (s *Service) GenerateToken(addr domain.Address, expiresIn time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Address: addr.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// ValidateToken verifies the token signature and returns the asserted address.
func (s *Service) ValidateToken(tokenString string) (domain.Address, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return domain.ParseAddress(claims.Address)
}

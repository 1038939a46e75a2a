package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/infrastructure/config"
)

// Token validation errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// OperatorClaims are the JWT claims carried by an operator token. Operator
// tokens guard the dead-letter surface; they are platform staff credentials,
// not integration credentials.
type OperatorClaims struct {
	jwt.RegisteredClaims
	OperatorID string `json:"operator_id"`
	Name       string `json:"name"`
}

// OperatorTokenService issues and validates HS256 operator tokens
type OperatorTokenService struct {
	secret     []byte
	expiration time.Duration
	issuer     string
}

// NewOperatorTokenService creates a token service from operator config
func NewOperatorTokenService(cfg config.OperatorConfig) *OperatorTokenService {
	return &OperatorTokenService{
		secret:     []byte(cfg.JWTSecret),
		expiration: cfg.JWTExpiration,
		issuer:     cfg.JWTIssuer,
	}
}

// Generate issues a signed operator token
func (s *OperatorTokenService) Generate(operatorID uuid.UUID, name string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiration)

	claims := OperatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   operatorID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
		},
		OperatorID: operatorID.String(),
		Name:       name,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate parses and verifies an operator token
func (s *OperatorTokenService) Validate(tokenString string) (*OperatorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &OperatorClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*OperatorClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTokenTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the caller identity the escrow operations authorize against.
type Claims struct {
	Identity string `json:"identity"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 token for identity valid for DefaultTokenTTL.
func GenerateToken(identity, role, secret string) (string, error) {
	return GenerateTokenWithTTL(identity, role, secret, DefaultTokenTTL)
}

// GenerateTokenWithTTL is GenerateToken with an explicit lifetime. A
// non-positive ttl falls back to DefaultTokenTTL.
func GenerateTokenWithTTL(identity, role, secret string, ttl time.Duration) (string, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return "", errors.New("identity is required")
	}
	if secret == "" {
		return "", errors.New("secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := time.Now().UTC()
	claims := Claims{
		Identity: identity,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func ValidateToken(tokenString, secret string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Identity) == "" {
		return nil, fmt.Errorf("%w: identity claim is empty", ErrInvalidToken)
	}
	return &claims, nil
}

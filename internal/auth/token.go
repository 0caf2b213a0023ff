package auth

import (
	"errors"
	"fmt"
	"time"

	"mcq-contest-service/internal/domain"

	"github.com/golang-jwt/jwt/v4"
)

// Claims is the token payload. Subject carries the user id.
type Claims struct {
	Name string      `json:"name"`
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 bearer tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret not configured")
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue mints a token for identity valid for the configured TTL.
func (i *TokenIssuer) Issue(identity domain.Identity) (string, error) {
	if identity.ID == "" || !identity.Role.Valid() {
		return "", fmt.Errorf("issue token: %w", domain.ErrUnauthenticated)
	}
	now := i.now()
	claims := &Claims{
		Name: identity.DisplayName,
		Role: identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Parse verifies raw and returns the identity it carries. Every failure is
// reported as domain.ErrUnauthenticated.
func (i *TokenIssuer) Parse(raw string) (domain.Identity, error) {
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if !token.Valid || claims.Subject == "" || !claims.Role.Valid() {
		return domain.Identity{}, fmt.Errorf("%w: invalid claims", domain.ErrUnauthenticated)
	}
	return domain.Identity{ID: claims.Subject, DisplayName: claims.Name, Role: claims.Role}, nil
}

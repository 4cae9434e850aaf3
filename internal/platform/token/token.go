// Package token issues and validates the bearer tokens callers use to prove
// control of a principal address. The ledger notion of "signed by principal P"
// maps onto "bearer token whose subject is P". Admin tooling presents the same
// token shape with the admin role claim set.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"nameplate/pkg/domain"
)

const roleAdmin = "admin"

// Claims are the validated contents of a caller token.
type Claims struct {
	Principal domain.Address
	Admin     bool
}

// Manager signs and validates principal tokens with an HMAC key.
type Manager struct {
	key []byte
	ttl time.Duration
}

func NewManager(signingKey string) *Manager {
	return &Manager{key: []byte(signingKey), ttl: time.Hour}
}

// Issue mints a token for the given principal. Used by tests and by the
// local development token endpoint; production deployments issue tokens from
// their own auth infrastructure with the same claims.
func (m *Manager) Issue(principal domain.Address, admin bool) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": principal.String(),
		"iat": now.Unix(),
		"exp": now.Add(m.ttl).Unix(),
	}
	if admin {
		claims["role"] = roleAdmin
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a bearer token, returning its claims.
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, fmt.Errorf("token subject: %w", err)
	}
	principal, err := domain.ParseAddress(sub)
	if err != nil {
		return nil, fmt.Errorf("token subject is not an address: %w", err)
	}

	role, _ := claims["role"].(string)
	return &Claims{Principal: principal, Admin: role == roleAdmin}, nil
}

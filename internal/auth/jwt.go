// Package auth resolves the caller's owner identity from JWT bearer tokens.
// The rest of the service treats the owner id as an opaque string.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

var (
	ErrInvalidToken = errors.New("token is invalid")
	ErrExpiredToken = errors.New("token is expired")
)

const defaultTokenDuration = 24 * time.Hour

// Claims carries the owner identity inside access tokens.
type Claims struct {
	OwnerID string `json:"owner_id"`
	jwt.StandardClaims
}

// Manager signs and verifies HS256 access tokens.
type Manager struct {
	secret string
}

// NewManager creates a token manager with the given signing secret.
func NewManager(secret string) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	return &Manager{secret: secret}, nil
}

// Generate issues a signed token for the given owner.
func (m *Manager) Generate(ownerID string, duration time.Duration) (string, error) {
	if duration <= 0 {
		duration = defaultTokenDuration
	}
	claims := &Claims{
		OwnerID: ownerID,
		StandardClaims: jwt.StandardClaims{
			Subject:   ownerID,
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(duration).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.secret))
}

// Verify validates a token and returns the owner id it carries.
func (m *Manager) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(m.secret), nil
	})
	if err != nil {
		if verr, ok := err.(*jwt.ValidationError); ok && verr.Errors&jwt.ValidationErrorExpired != 0 {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	ownerID := claims.OwnerID
	if ownerID == "" {
		ownerID = claims.Subject
	}
	if ownerID == "" {
		return "", ErrInvalidToken
	}
	return ownerID, nil
}

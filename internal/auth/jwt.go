// Package auth inspects organizer bearer tokens issued by the backend.
// The kiosk does not hold the signing key; the backend verifies signatures,
// the kiosk only rejects tokens that are malformed or already expired.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims are the organizer claims the kiosk reads.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Inspector decodes tokens without verifying signatures.
type Inspector struct {
	leeway time.Duration
	now    func() time.Time
}

// NewInspector creates an inspector tolerating leeway of clock skew.
func NewInspector(leeway time.Duration) *Inspector {
	return &Inspector{leeway: leeway, now: time.Now}
}

// Inspect decodes token and checks its expiry.
func (i *Inspector) Inspect(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt != nil && i.now().After(claims.ExpiresAt.Time.Add(i.leeway)) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", ErrInvalidToken
	}
	return strings.TrimSpace(parts[1]), nil
}

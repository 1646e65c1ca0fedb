// Package token issues and verifies the signed identity tokens that
// authenticate every protected request.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Validity is how long an issued token remains usable. Expiry is the
// only termination mechanism; there is no refresh and no server-side
// revocation.
const Validity = 10 * time.Hour

var (
	// ErrMalformed is returned for an absent or unparseable token.
	ErrMalformed = errors.New("token missing or malformed")

	// ErrSignature is returned when the token was not signed with the
	// service key.
	ErrSignature = errors.New("token signature invalid")

	// ErrExpired is returned when the token's validity window has passed.
	ErrExpired = errors.New("token expired")
)

// Service mints and verifies HS256 tokens. The signing key is fixed at
// construction and never rotated at runtime.
type Service struct {
	key []byte
	now func() time.Time
}

// NewService returns a Service signing with the given key.
func NewService(key string) *Service {
	return &Service{key: []byte(key), now: time.Now}
}

// Issue returns a signed token identifying ownerID, expiring Validity
// from now.
func (s *Service) Issue(ownerID string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub": ownerID,
		"iat": now.Unix(),
		"exp": now.Add(Validity).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature before trusting anything in the payload
// and returns the owner id the token was issued for.
func (s *Service) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrMalformed
	}

	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.key, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", ErrSignature
		default:
			return "", ErrMalformed
		}
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok || !t.Valid {
		return "", ErrMalformed
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrMalformed
	}
	return sub, nil
}

// Package jwtmw signs and verifies access and refresh tokens and guards routes with them.
package jwtmw

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind distinguishes short-lived access tokens from long-lived refresh tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// ErrInvalidToken covers every verification failure: bad signature, wrong algorithm, expiry, bad claims.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the token payload.
type Claims struct {
	Email string `json:"email"`
	Type  Kind   `json:"type"`
	jwt.RegisteredClaims
}

// UserID parses the numeric subject.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}

// Signer issues and verifies HS256 tokens with one shared secret.
type Signer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewSigner creates a Signer with the given lifetimes per kind.
func NewSigner(secret string, accessTTL, refreshTTL time.Duration) *Signer {
	return &Signer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// TTL returns the lifetime of tokens of kind.
func (s *Signer) TTL(kind Kind) (time.Duration, error) {
	switch kind {
	case KindAccess:
		return s.accessTTL, nil
	case KindRefresh:
		return s.refreshTTL, nil
	default:
		return 0, fmt.Errorf("unknown token kind %q", kind)
	}
}

// Sign creates a signed token of kind for the given user.
// Each token carries a random jti, so two tokens issued in the same second still differ.
func (s *Signer) Sign(subject uint, email string, kind Kind) (string, error) {
	ttl, err := s.TTL(kind)
	if err != nil {
		return "", err
	}

	now := s.now()
	claims := Claims{
		Email: email,
		Type:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(subject), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry together and returns the claims.
func (s *Signer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != KindAccess && claims.Type != KindRefresh {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

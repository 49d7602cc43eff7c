// Package auth issues and verifies the bearer tokens handed to clients and
// hashes account passwords.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingToken is returned when no token was supplied.
	ErrMissingToken = errors.New("auth: token is missing")
	// ErrInvalidToken covers bad signatures, wrong algorithms, expiry, and
	// tokens without a subject.
	ErrInvalidToken = errors.New("auth: token is invalid")
)

// Claims is the token payload. user_id duplicates sub for older clients.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies HS256 tokens with a shared secret.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration

	// Now is the clock used for iat/exp and validation. Defaults to time.Now.
	Now func() time.Time
}

// NewTokenCodec returns a codec that issues tokens valid for ttl.
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), ttl: ttl, Now: time.Now}
}

// TTL returns the lifetime of issued tokens.
func (c *TokenCodec) TTL() time.Duration { return c.ttl }

// Issue signs a token for userID and returns it with its expiry time.
func (c *TokenCodec) Issue(userID string) (string, time.Time, error) {
	if strings.TrimSpace(userID) == "" {
		return "", time.Time{}, errors.New("auth: empty user id")
	}
	now := c.Now().UTC()
	exp := now.Add(c.ttl)
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign: %w", err)
	}
	return signed, exp, nil
}

// Verify validates raw (with or without a "Bearer " prefix) and returns the
// user id it was issued for.
func (c *TokenCodec) Verify(raw string) (string, error) {
	raw = StripBearer(raw)
	if raw == "" {
		return "", ErrMissingToken
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.Now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	sub := claims.Subject
	if sub == "" {
		sub = claims.UserID
	}
	if sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

// StripBearer removes a case-insensitive "Bearer " prefix and surrounding
// whitespace.
func StripBearer(h string) string {
	h = strings.TrimSpace(h)
	if strings.EqualFold(h, "bearer") {
		return ""
	}
	if len(h) > 6 && strings.EqualFold(h[:6], "bearer") && (h[6] == ' ' || h[6] == '\t') {
		h = strings.TrimSpace(h[7:])
	}
	return h
}

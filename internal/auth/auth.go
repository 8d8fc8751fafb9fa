// Package auth issues and verifies the bearer tokens accepted by the entity
// server. Tokens are HS256 JWTs carrying the user as subject; a static shared
// token can stand in when no signing key is configured.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fyrsmithlabs/streamline/internal/config"
)

// Errors returned by verifiers.
var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid bearer token")
	ErrExpiredToken = errors.New("bearer token expired")
)

// minKeyLen is the shortest accepted HS256 signing key.
const minKeyLen = 32

// Claims are the validated contents of a token.
type Claims struct {
	Subject   string
	Issuer    string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Verifier validates a raw bearer token.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// Issuer creates and verifies signed tokens.
type Issuer struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer. key must be at least 32 bytes.
func NewIssuer(key []byte, issuer string, ttl time.Duration) (*Issuer, error) {
	if len(key) < minKeyLen {
		return nil, fmt.Errorf("signing key must be at least %d bytes", minKeyLen)
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &Issuer{key: key, issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed token for subject.
func (i *Issuer) Issue(subject string) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("subject is required")
	}
	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    i.issuer,
		ID:        uuid.New().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, issuer and expiry of token.
func (i *Issuer) Verify(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	var parsed jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return i.key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if parsed.Subject == "" {
		return Claims{}, fmt.Errorf("%w: subject is empty", ErrInvalidToken)
	}

	claims := Claims{
		Subject:   parsed.Subject,
		Issuer:    parsed.Issuer,
		ID:        parsed.ID,
		ExpiresAt: parsed.ExpiresAt.Time,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time
	}
	return claims, nil
}

// StaticToken accepts one shared token.
type StaticToken struct {
	token   []byte
	subject string
}

// NewStaticToken creates a verifier for a shared token.
func NewStaticToken(token, subject string) *StaticToken {
	return &StaticToken{token: []byte(token), subject: subject}
}

// Verify compares token against the shared token in constant time.
func (s *StaticToken) Verify(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrMissingToken
	}
	if subtle.ConstantTimeCompare([]byte(token), s.token) != 1 {
		return Claims{}, ErrInvalidToken
	}
	return Claims{Subject: s.subject}, nil
}

// FromConfig builds the verifier described by cfg. It returns a nil
// Verifier when neither a signing key nor a static token is set.
func FromConfig(cfg config.AuthConfig) (Verifier, *Issuer, error) {
	if cfg.SigningKey.IsSet() {
		iss, err := NewIssuer([]byte(cfg.SigningKey.Value()), cfg.Issuer, cfg.TokenTTL.Duration())
		if err != nil {
			return nil, nil, err
		}
		return iss, iss, nil
	}
	if cfg.StaticToken.IsSet() {
		return NewStaticToken(cfg.StaticToken.Value(), "static"), nil, nil
	}
	return nil, nil, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrInvalidToken
	}
	return strings.TrimSpace(token), nil
}

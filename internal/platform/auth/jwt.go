package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 24 * time.Hour

var (
	// ErrTokenExpired signals that the provided access token has expired.
	ErrTokenExpired = errors.New("auth: access token expired")
	// ErrTokenInvalid signals that the provided access token is invalid for other reasons.
	ErrTokenInvalid = errors.New("auth: access token invalid")
)

// Claims is the JWT claim set issued and verified by the Signer.
type Claims struct {
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Signer issues and verifies HS256 access tokens for API sessions.
type Signer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// SignerOption customises Signer behaviour.
type SignerOption func(*Signer)

// WithTokenTTL overrides the default token lifetime.
func WithTokenTTL(ttl time.Duration) SignerOption {
	return func(s *Signer) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the time source used when issuing tokens.
func WithClock(now func() time.Time) SignerOption {
	return func(s *Signer) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSigner constructs a Signer from the shared secret and issuer name.
func NewSigner(secret, issuer string, opts ...SignerOption) (*Signer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("auth: signing secret is required")
	}

	s := &Signer{
		secret: []byte(secret),
		issuer: strings.TrimSpace(issuer),
		ttl:    defaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Issue creates a signed access token for the given principal.
func (s *Signer) Issue(uid, username, role string) (string, time.Time, error) {
	if s == nil {
		return "", time.Time{}, ErrTokenInvalid
	}
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return "", time.Time{}, errors.New("auth: subject is required")
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := Claims{
		Username: strings.TrimSpace(username),
		Role:     strings.ToLower(strings.TrimSpace(role)),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses and validates the token, returning the authenticated identity.
func (s *Signer) Verify(tokenStr string) (*Identity, error) {
	if s == nil {
		return nil, ErrTokenInvalid
	}
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return nil, ErrTokenInvalid
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	identity := &Identity{
		UID:      claims.Subject,
		Username: claims.Username,
	}
	if role := strings.ToLower(strings.TrimSpace(claims.Role)); role != "" {
		identity.Roles = []string{role}
	}
	return identity, nil
}

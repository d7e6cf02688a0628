// Package auth verifies session tokens and carries the resulting session
// through context. Every repository operation treats the presence of a
// session as a precondition and fails fast, before any network I/O, when
// it is missing.
package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/balhadj47/fleet-console/internal/domain"
)

// Session identifies an authenticated caller.
type Session struct {
	UserID string
	Name   string
}

type sessionKey struct{}

// WithSession returns a context carrying the given session.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext extracts the session from ctx, if any.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

// Require returns the session in ctx or domain.ErrAuthRequired.
func Require(ctx context.Context) (Session, error) {
	s, ok := FromContext(ctx)
	if !ok {
		return Session{}, domain.ErrAuthRequired
	}
	return s, nil
}

// SystemSession is the principal used by the process itself for boot-time
// work (initial collection load, migrations) that runs outside any HTTP
// request.
func SystemSession() Session {
	return Session{UserID: "system", Name: "system"}
}

// claims is the JWT payload shape issued by the account service.
type claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Verifier checks bearer tokens signed with the shared HMAC secret.
type Verifier struct {
	secret []byte
}

// NewVerifier returns a Verifier for the given shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates a raw token string and returns the session
// it represents. Any parse, signature, or expiry failure is reported as
// domain.ErrAuthRequired so callers need only one sentinel.
func (v *Verifier) Verify(token string) (Session, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Session{}, fmt.Errorf("%w: invalid token", domain.ErrAuthRequired)
	}
	if c.Subject == "" {
		return Session{}, fmt.Errorf("%w: token missing subject", domain.ErrAuthRequired)
	}
	return Session{UserID: c.Subject, Name: c.Name}, nil
}

// Sign issues a token for the given session. Used by tests and by the
// local dev login helper; production tokens come from the account service
// sharing the same secret.
func (v *Verifier) Sign(s Session) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Name:             s.Name,
		RegisteredClaims: jwt.RegisteredClaims{Subject: s.UserID},
	})
	signed, err := t.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("auth.Verifier.Sign: %w", err)
	}
	return signed, nil
}

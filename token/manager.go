// Package token issues and verifies the signed, stateless session tokens
// that carry authentication between requests. A token embeds the identity,
// a kind, and its validity window; nothing is persisted server-side beyond
// the signing secret.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Kind scopes what a session token authorizes.
type Kind string

const (
	// KindFullSession grants access to protected resources.
	KindFullSession Kind = "full_session"
	// KindPending2FA authorizes only the 2FA submission step. The guard on
	// protected resources must never accept it.
	KindPending2FA Kind = "pending_2fa"
)

// ErrInvalidToken covers bad signatures, expiry, unknown kinds and malformed
// input alike. Verify never exposes parse internals; callers branch on this
// single sentinel.
var ErrInvalidToken = errors.New("invalid token")

// Session is the verified content of a token.
type Session struct {
	IdentityID string
	Kind       Kind
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Kind Kind `json:"knd"`
}

// Manager creates and verifies session tokens. Verification is a pure
// function of the token, the secret and the clock, so a Manager is safe for
// concurrent use without locking.
type Manager struct {
	signer  Signer
	issuer  string
	nowFunc func() time.Time
}

type ManagerOption func(*Manager)

// WithNowFunc sets the clock (primarily for testing)
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func New(signer Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		signer:  signer,
		issuer:  "finvault",
		nowFunc: time.Now,
	}

	for _, opt := range options {
		opt(m)
	}
	return m
}

// Issue produces a signed token for the identity. Each call embeds a fresh
// issued-at and token ID, so two tokens for the same identity differ.
func (m *Manager) Issue(identityID string, kind Kind, ttl time.Duration) (string, error) {
	now := m.nowFunc()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   identityID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
		},
		Kind: kind,
	}

	signed, err := m.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "[Manager.Issue] signer.Sign")
	}
	return signed, nil
}

// Verify parses and validates a raw token. It returns ErrInvalidToken for
// any failure: wrong signature, expiry, structural garbage, or a kind the
// service does not know about.
func (m *Manager) Verify(raw string) (*Session, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, m.signer.GetVerificationKey,
		jwt.WithTimeFunc(m.nowFunc),
		jwt.WithValidMethods([]string{m.signer.GetSigningMethod().Alg()}),
		jwt.WithIssuer(m.issuer),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	switch claims.Kind {
	case KindFullSession, KindPending2FA:
	default:
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Session{IdentityID: claims.Subject, Kind: claims.Kind}, nil
}

package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/finvault/finvault/token"
)

const (
	secretStr  = "test-signing-secret"
	testUserID = "user-1"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	m := token.New(token.NewHMACSigner(secretStr))

	raw, err := m.Issue(testUserID, token.KindFullSession, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	session, err := m.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, testUserID, session.IdentityID)
	require.Equal(t, token.KindFullSession, session.Kind)
}

func TestVerifyPreservesKind(t *testing.T) {
	m := token.New(token.NewHMACSigner(secretStr))

	raw, err := m.Issue(testUserID, token.KindPending2FA, time.Minute)
	require.NoError(t, err)

	session, err := m.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, token.KindPending2FA, session.Kind)
}

func TestTokensDifferPerIssue(t *testing.T) {
	m := token.New(token.NewHMACSigner(secretStr))

	first, err := m.Issue(testUserID, token.KindFullSession, time.Hour)
	require.NoError(t, err)
	second, err := m.Issue(testUserID, token.KindFullSession, time.Hour)
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}

func TestVerifyExpiredToken(t *testing.T) {
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := issuedAt

	m := token.New(token.NewHMACSigner(secretStr), token.WithNowFunc(func() time.Time { return now }))

	raw, err := m.Issue(testUserID, token.KindFullSession, 10*time.Minute)
	require.NoError(t, err)

	// Still valid just inside the window.
	now = issuedAt.Add(9 * time.Minute)
	_, err = m.Verify(raw)
	require.NoError(t, err)

	now = issuedAt.Add(11 * time.Minute)
	_, err = m.Verify(raw)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	m := token.New(token.NewHMACSigner(secretStr))

	raw, err := m.Issue(testUserID, token.KindFullSession, time.Hour)
	require.NoError(t, err)

	tampered := raw[:len(raw)-2] + "xx"
	_, err = m.Verify(tampered)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuing := token.New(token.NewHMACSigner(secretStr))
	verifying := token.New(token.NewHMACSigner("a-different-secret"))

	raw, err := issuing.Issue(testUserID, token.KindFullSession, time.Hour)
	require.NoError(t, err)

	_, err = verifying.Verify(raw)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestVerifyMalformedInput(t *testing.T) {
	m := token.New(token.NewHMACSigner(secretStr))

	for _, raw := range []string{"", "not-a-token", "a.b.c", "eyJhbGciOiJIUzI1NiJ9"} {
		_, err := m.Verify(raw)
		require.ErrorIs(t, err, token.ErrInvalidToken, "input %q", raw)
	}
}

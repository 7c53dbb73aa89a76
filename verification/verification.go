// Package verification drives the one-time code state machine behind signup
// email verification, login 2FA and password reset. A code lives at most
// once per (identity, purpose) pair: issuing a new one supersedes any prior
// unconsumed code, a bounded attempt counter locks it against brute force,
// and a consumed code can never match again.
package verification

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

// Purpose tags which flow a one-time code belongs to.
type Purpose string

const (
	PurposeSignupVerify  Purpose = "signup_verify"
	PurposeLogin2FA      Purpose = "login_2fa"
	PurposePasswordReset Purpose = "password_reset"
)

const (
	codeDigits = 6

	// DefaultTTL bounds how long a delivered code stays valid.
	DefaultTTL = 10 * time.Minute
	// DefaultMaxAttempts bounds guessing before the code locks.
	DefaultMaxAttempts = 5
)

// Record is a pending one-time code for an (identity, purpose) pair. The
// code itself is never stored; only its SHA-256 hash.
type Record struct {
	IdentityID string    `json:"identity_id"`
	Purpose    Purpose   `json:"purpose"`
	CodeHash   string    `json:"code_hash"`
	ExpiresAt  time.Time `json:"expires_at"`
	Attempts   int       `json:"attempts"`
	Locked     bool      `json:"locked"`
}

// CodeSender delivers a one-time code out of band. A failure is reported to
// the caller, never retried silently; the stored code stays valid so the
// user can trigger a resend.
type CodeSender interface {
	SendCode(ctx context.Context, to string, purpose Purpose, code string) error
}

func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

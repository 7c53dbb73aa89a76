// Package captcha models CAPTCHA verification as a capability: any provider
// that can turn a client proof into a pass/fail signal can back the login
// flow.
package captcha

import (
	"context"

	"github.com/pkg/errors"
)

// ErrFailed means the proof did not pass. Transport or provider faults are
// returned as distinct wrapped errors so they surface as internal failures,
// not as a failed challenge.
var ErrFailed = errors.New("captcha verification failed")

// Verifier checks a client-supplied CAPTCHA proof.
type Verifier interface {
	Verify(ctx context.Context, proof, remoteIP string) error
}

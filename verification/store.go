package verification

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Verification-code outcomes. Locked and Expired are terminal for the code
// but never for the account: a fresh issue always supersedes.
var (
	ErrNotFound = errors.New("verification code not found")
	ErrExpired  = errors.New("verification code expired")
	ErrMismatch = errors.New("verification code mismatch")
	ErrLocked   = errors.New("verification code locked")
)

// Store persists pending verifications keyed by (identity, purpose). Save
// overwrites any prior record for the pair - that overwrite is how
// supersession is enforced. Check applies its read-modify-write (attempt
// counting, locking, consumption) atomically, so concurrent submissions of
// the same code cannot slip past the attempt limit.
type Store interface {
	Save(ctx context.Context, rec *Record, ttl time.Duration) error

	// Check compares codeHash against the stored record for the pair and
	// advances the state machine: a match consumes the record (it will never
	// match again), a mismatch increments the attempt counter and locks the
	// record once maxAttempts is reached, an expired record is garbage
	// collected. Returns one of the sentinel errors above on failure.
	Check(ctx context.Context, identityID string, purpose Purpose, codeHash string, maxAttempts int) (*Record, error)

	Delete(ctx context.Context, identityID string, purpose Purpose) error
}

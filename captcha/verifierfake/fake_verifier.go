package verifierfake

import (
	"context"
	"sync"

	"github.com/finvault/finvault/captcha"
)

var _ captcha.Verifier = (*FakeVerifier)(nil)

// FakeVerifier passes every proof unless an error is set.
type FakeVerifier struct {
	lock   sync.Mutex
	err    error
	proofs []string
}

func NewFakeVerifier() *FakeVerifier {
	return &FakeVerifier{}
}

// SetError makes every subsequent Verify fail with err. Use
// captcha.ErrFailed to simulate a failed challenge.
func (f *FakeVerifier) SetError(err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.err = err
}

func (f *FakeVerifier) Verify(_ context.Context, proof, _ string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.proofs = append(f.proofs, proof)
	return f.err
}

// Proofs returns every proof submitted so far.
func (f *FakeVerifier) Proofs() []string {
	f.lock.Lock()
	defer f.lock.Unlock()

	out := make([]string, len(f.proofs))
	copy(out, f.proofs)
	return out
}

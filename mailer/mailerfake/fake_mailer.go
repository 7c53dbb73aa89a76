package mailerfake

import (
	"context"
	"sync"

	"github.com/finvault/finvault/verification"
)

var _ verification.CodeSender = (*FakeMailer)(nil)

// Delivery is one captured send.
type Delivery struct {
	To      string
	Purpose verification.Purpose
	Code    string
}

// FakeMailer records delivered codes so tests can submit them.
type FakeMailer struct {
	lock       sync.Mutex
	deliveries []Delivery
	err        error
}

func NewFakeMailer() *FakeMailer {
	return &FakeMailer{}
}

// SetError makes every subsequent SendCode fail with err (nil restores
// normal delivery). The code is still recorded, mirroring a relay that
// accepted the message but never delivered it.
func (f *FakeMailer) SetError(err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.err = err
}

func (f *FakeMailer) SendCode(_ context.Context, to string, purpose verification.Purpose, code string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.deliveries = append(f.deliveries, Delivery{To: to, Purpose: purpose, Code: code})
	return f.err
}

// LastCode returns the most recently delivered code for the pair.
func (f *FakeMailer) LastCode(to string, purpose verification.Purpose) (string, bool) {
	f.lock.Lock()
	defer f.lock.Unlock()

	for i := len(f.deliveries) - 1; i >= 0; i-- {
		d := f.deliveries[i]
		if d.To == to && d.Purpose == purpose {
			return d.Code, true
		}
	}
	return "", false
}

func (f *FakeMailer) Deliveries() []Delivery {
	f.lock.Lock()
	defer f.lock.Unlock()

	out := make([]Delivery, len(f.deliveries))
	copy(out, f.deliveries)
	return out
}

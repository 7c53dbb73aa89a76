package verification

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrDeliveryFailed reports that a code was stored but could not be sent.
// The pending record remains valid, so a user-triggered resend can recover.
var ErrDeliveryFailed = errors.New("code delivery failed")

// Engine orchestrates code issuance and checking over a Store and a
// CodeSender. It holds no mutable state of its own and is safe for
// concurrent use.
type Engine struct {
	store       Store
	sender      CodeSender
	ttl         time.Duration
	maxAttempts int
	nowFunc     func() time.Time
}

type EngineOption func(*Engine)

// WithNowFunc sets the clock (primarily for testing)
func WithNowFunc(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.nowFunc = now
	}
}

func WithTTL(ttl time.Duration) EngineOption {
	return func(e *Engine) {
		e.ttl = ttl
	}
}

func WithMaxAttempts(max int) EngineOption {
	return func(e *Engine) {
		e.maxAttempts = max
	}
}

func NewEngine(store Store, sender CodeSender, options ...EngineOption) (*Engine, error) {
	if store == nil {
		return nil, errors.New("[NewEngine] store is required")
	}
	if sender == nil {
		return nil, errors.New("[NewEngine] sender is required")
	}

	e := &Engine{
		store:       store,
		sender:      sender,
		ttl:         DefaultTTL,
		maxAttempts: DefaultMaxAttempts,
		nowFunc:     time.Now,
	}

	for _, opt := range options {
		opt(e)
	}
	return e, nil
}

// Issue generates a fresh one-time code for the pair, superseding any prior
// unconsumed code, and delivers it out of band. On delivery failure the
// stored code stays valid and ErrDeliveryFailed is returned.
func (e *Engine) Issue(ctx context.Context, identityID, email string, purpose Purpose) error {
	code, err := generateCode()
	if err != nil {
		return errors.Wrap(err, "[Engine.Issue] generateCode")
	}

	rec := &Record{
		IdentityID: identityID,
		Purpose:    purpose,
		CodeHash:   hashCode(code),
		ExpiresAt:  e.nowFunc().Add(e.ttl),
	}
	if err := e.store.Save(ctx, rec, e.ttl); err != nil {
		return errors.Wrap(err, "[Engine.Issue] store.Save")
	}

	if err := e.sender.SendCode(ctx, email, purpose, code); err != nil {
		log.Err(err).Str("purpose", string(purpose)).Msg("one-time code delivery failed")
		return ErrDeliveryFailed
	}
	return nil
}

// Check verifies a submitted code for the pair. It returns nil on a match
// (consuming the code) or one of ErrNotFound, ErrExpired, ErrMismatch,
// ErrLocked.
func (e *Engine) Check(ctx context.Context, identityID string, purpose Purpose, code string) error {
	_, err := e.store.Check(ctx, identityID, purpose, hashCode(code), e.maxAttempts)
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrExpired), errors.Is(err, ErrMismatch), errors.Is(err, ErrLocked):
		return err
	default:
		return errors.Wrap(err, "[Engine.Check] store.Check")
	}
}

// Cancel drops any pending code for the pair.
func (e *Engine) Cancel(ctx context.Context, identityID string, purpose Purpose) error {
	if err := e.store.Delete(ctx, identityID, purpose); err != nil {
		return errors.Wrap(err, "[Engine.Cancel] store.Delete")
	}
	return nil
}

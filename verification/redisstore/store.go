// Package redisstore persists pending verifications in Redis. One key per
// (identity, purpose) pair gives supersession for free: issuing a new code
// is a plain SET over the old one. The check path runs under WATCH so the
// attempt counter survives concurrent submissions.
package redisstore

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/finvault/finvault/verification"
)

const (
	keyPrefix  = "pv"
	maxRetries = 4
)

// ErrUnavailable wraps transport-level Redis failures so callers can tell
// them apart from state-machine outcomes.
var ErrUnavailable = errors.New("verification store unavailable")

var _ verification.Store = (*Store)(nil)

type Store struct {
	client  *redis.Client
	nowFunc func() time.Time
}

type Option func(*Store)

// WithNowFunc sets the clock (primarily for testing)
func WithNowFunc(now func() time.Time) Option {
	return func(s *Store) {
		s.nowFunc = now
	}
}

func New(client *redis.Client, options ...Option) *Store {
	s := &Store{
		client:  client,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func key(identityID string, purpose verification.Purpose) string {
	return keyPrefix + ":" + string(purpose) + ":" + identityID
}

func (s *Store) Save(ctx context.Context, rec *verification.Record, ttl time.Duration) error {
	encoded, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "[Store.Save] marshal record")
	}
	if err := s.client.Set(ctx, key(rec.IdentityID, rec.Purpose), encoded, ttl).Err(); err != nil {
		return errors.Wrapf(ErrUnavailable, "[Store.Save] %v", err)
	}
	return nil
}

func (s *Store) Check(ctx context.Context, identityID string, purpose verification.Purpose, codeHash string, maxAttempts int) (*verification.Record, error) {
	k := key(identityID, purpose)

	for i := 0; i < maxRetries; i++ {
		var matched *verification.Record

		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, k).Bytes()
			if err != nil {
				return err
			}

			rec := &verification.Record{}
			if err := json.Unmarshal(data, rec); err != nil {
				return err
			}

			now := s.nowFunc()
			if now.After(rec.ExpiresAt) {
				// Redis should have expired the key already; garbage collect
				// in case the clocks disagree.
				if err := s.delete(ctx, tx, k); err != nil {
					return err
				}
				return verification.ErrExpired
			}

			if rec.Locked {
				return verification.ErrLocked
			}

			if subtle.ConstantTimeCompare([]byte(rec.CodeHash), []byte(codeHash)) != 1 {
				rec.Attempts++
				if rec.Attempts >= maxAttempts {
					rec.Locked = true
				}
				remaining := rec.ExpiresAt.Sub(now)
				updated, err := json.Marshal(rec)
				if err != nil {
					return err
				}
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Set(ctx, k, updated, remaining)
					return nil
				})
				if err != nil {
					return err
				}
				return verification.ErrMismatch
			}

			// Match: consume so the code can never be replayed.
			if err := s.delete(ctx, tx, k); err != nil {
				return err
			}
			matched = rec
			return nil
		}, k)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil):
				return nil, verification.ErrNotFound
			case errors.Is(err, verification.ErrExpired),
				errors.Is(err, verification.ErrMismatch),
				errors.Is(err, verification.ErrLocked):
				return nil, err
			default:
				return nil, errors.Wrapf(ErrUnavailable, "[Store.Check] %v", err)
			}
		}
		return matched, nil
	}

	return nil, verification.ErrNotFound
}

func (s *Store) Delete(ctx context.Context, identityID string, purpose verification.Purpose) error {
	if err := s.client.Del(ctx, key(identityID, purpose)).Err(); err != nil {
		return errors.Wrapf(ErrUnavailable, "[Store.Delete] %v", err)
	}
	return nil
}

func (s *Store) delete(ctx context.Context, tx *redis.Tx, k string) error {
	_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		return nil
	})
	return err
}

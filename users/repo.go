package users

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// UserRepo is the credential store. Implementations must serialize
// conflicting writes to a single record; callers treat it as a transactional
// collaborator and never hold locks across calls into it.
type UserRepo interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	SetEmailVerified(ctx context.Context, id string, verified bool) error
	SetTwoFactorEnabled(ctx context.Context, id string, enabled bool) error
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	SetLastLogin(ctx context.Context, id string, at time.Time) error
}

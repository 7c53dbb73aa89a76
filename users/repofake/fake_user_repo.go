package fakeuserrepo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finvault/finvault/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users    map[string]*users.User
	emailIds map[string]string // email to user id
	lock     sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.User),
		emailIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Create(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.emailIds[user.Email]; ok {
		return users.ErrEmailTaken
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	stored := *user
	ur.users[user.ID] = &stored
	ur.emailIds[user.Email] = user.ID
	return nil
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[email]
	if !ok {
		return nil, users.ErrNotFound
	}
	u := *ur.users[id]
	return &u, nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	u, ok := ur.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (ur *FakeUserRepo) SetEmailVerified(_ context.Context, id string, verified bool) error {
	return ur.update(id, func(u *users.User) { u.EmailVerified = verified })
}

func (ur *FakeUserRepo) SetTwoFactorEnabled(_ context.Context, id string, enabled bool) error {
	return ur.update(id, func(u *users.User) { u.TwoFactorEnabled = enabled })
}

func (ur *FakeUserRepo) UpdatePassword(_ context.Context, id string, passwordHash string) error {
	return ur.update(id, func(u *users.User) { u.PasswordHash = passwordHash })
}

func (ur *FakeUserRepo) SetLastLogin(_ context.Context, id string, at time.Time) error {
	return ur.update(id, func(u *users.User) { u.LastLogin = at })
}

func (ur *FakeUserRepo) update(id string, apply func(*users.User)) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[id]
	if !ok {
		return users.ErrNotFound
	}
	apply(u)
	return nil
}

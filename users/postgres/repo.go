// Package postgres provides the pgx-backed credential store.
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"github.com/finvault/finvault/users"
)

const uniqueViolationCode = "23505"

var _ users.UserRepo = (*Repo)(nil)

type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, user *users.User) error {
	query := `INSERT INTO identities (id, email, password_hash, name, email_verified, two_factor_enabled, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name, user.EmailVerified, user.TwoFactorEnabled, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return users.ErrEmailTaken
		}
		return errors.Wrap(err, "[Repo.Create] insert identity")
	}
	return nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	query := `SELECT id, email, password_hash, name, email_verified, two_factor_enabled, created_at, last_login
	          FROM identities WHERE email = $1`

	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *Repo) GetByID(ctx context.Context, id string) (*users.User, error) {
	query := `SELECT id, email, password_hash, name, email_verified, two_factor_enabled, created_at, last_login
	          FROM identities WHERE id = $1`

	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *Repo) SetEmailVerified(ctx context.Context, id string, verified bool) error {
	return r.exec(ctx, `UPDATE identities SET email_verified = $2 WHERE id = $1`, id, verified)
}

func (r *Repo) SetTwoFactorEnabled(ctx context.Context, id string, enabled bool) error {
	return r.exec(ctx, `UPDATE identities SET two_factor_enabled = $2 WHERE id = $1`, id, enabled)
}

func (r *Repo) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	return r.exec(ctx, `UPDATE identities SET password_hash = $2 WHERE id = $1`, id, passwordHash)
}

func (r *Repo) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, `UPDATE identities SET last_login = $2 WHERE id = $1`, id, at)
}

func (r *Repo) exec(ctx context.Context, query string, id string, arg any) error {
	res, err := r.db.ExecContext(ctx, query, id, arg)
	if err != nil {
		return errors.Wrap(err, "[Repo.exec] update identity")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "[Repo.exec] rows affected")
	}
	if affected == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *Repo) scanUser(row *sql.Row) (*users.User, error) {
	var (
		u         users.User
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.EmailVerified, &u.TwoFactorEnabled, &u.CreatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, errors.Wrap(err, "[Repo.scanUser] scan identity")
	}
	if lastLogin.Valid {
		u.LastLogin = lastLogin.Time
	}
	return &u, nil
}

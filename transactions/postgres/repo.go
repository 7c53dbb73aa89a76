// Package postgres provides the pgx-backed transaction ledger.
package postgres

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/finvault/finvault/transactions"
)

var _ transactions.Repo = (*Repo)(nil)

type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, txn *transactions.Transaction) error {
	query := `INSERT INTO transactions (id, user_id, kind, amount_cents, counterparty, note, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		txn.ID, txn.UserID, txn.Kind, txn.AmountCents, txn.Counterparty, txn.Note, txn.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "[Repo.Create] insert transaction")
	}
	return nil
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]transactions.Transaction, error) {
	query := `SELECT id, user_id, kind, amount_cents, counterparty, note, created_at
	          FROM transactions WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errors.Wrap(err, "[Repo.ListByUser] query transactions")
	}
	defer rows.Close()

	listed := []transactions.Transaction{}
	for rows.Next() {
		var txn transactions.Transaction
		err := rows.Scan(&txn.ID, &txn.UserID, &txn.Kind, &txn.AmountCents, &txn.Counterparty, &txn.Note, &txn.CreatedAt)
		if err != nil {
			return nil, errors.Wrap(err, "[Repo.ListByUser] scan transaction")
		}
		listed = append(listed, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "[Repo.ListByUser] rows")
	}
	return listed, nil
}

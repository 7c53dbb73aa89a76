package transactions

import (
	"context"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("transaction not found")

// Repo abstracts transaction storage.
type Repo interface {
	// Create stores a new transaction.
	Create(ctx context.Context, txn *Transaction) error
	// ListByUser returns the user's transactions, newest first.
	ListByUser(ctx context.Context, userID string) ([]Transaction, error)
}

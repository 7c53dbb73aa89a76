package faketransactionrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/finvault/finvault/transactions"
)

var _ transactions.Repo = (*FakeTransactionRepo)(nil)

type FakeTransactionRepo struct {
	byUser map[string][]transactions.Transaction
	lock   sync.RWMutex
}

func NewFakeTransactionRepo() *FakeTransactionRepo {
	return &FakeTransactionRepo{
		byUser: make(map[string][]transactions.Transaction),
	}
}

func (tr *FakeTransactionRepo) Create(_ context.Context, txn *transactions.Transaction) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	tr.byUser[txn.UserID] = append(tr.byUser[txn.UserID], *txn)
	return nil
}

func (tr *FakeTransactionRepo) ListByUser(_ context.Context, userID string) ([]transactions.Transaction, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	stored := tr.byUser[userID]
	listed := make([]transactions.Transaction, len(stored))
	copy(listed, stored)
	sort.SliceStable(listed, func(i, j int) bool {
		return listed[i].CreatedAt.After(listed[j].CreatedAt)
	})
	return listed, nil
}

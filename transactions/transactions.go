// Package transactions holds the account ledger entries exposed to a
// signed-in user.
package transactions

import "time"

// Kind classifies a ledger entry.
type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
	KindTransfer   Kind = "transfer"
)

// Transaction is a single ledger entry. Amounts are integral cents; the
// sign is carried by the kind, not the amount.
type Transaction struct {
	ID           string    `json:"id"`
	UserID       string    `json:"-"`
	Kind         Kind      `json:"kind"`
	AmountCents  int64     `json:"amountCents"`
	Counterparty string    `json:"counterparty,omitempty"`
	Note         string    `json:"note,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ValidKind reports whether k is one of the known transaction kinds.
func ValidKind(k Kind) bool {
	switch k {
	case KindDeposit, KindWithdrawal, KindTransfer:
		return true
	}
	return false
}

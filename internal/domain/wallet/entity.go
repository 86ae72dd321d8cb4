package wallet

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

type Wallet struct {
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	BalanceCents int64     `db:"balance_cents" json:"balance_cents"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Transaction rows are immutable once written. AmountCents is signed:
// positive for credits, negative for debits.
type Transaction struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	UserID         uuid.UUID       `db:"user_id" json:"user_id"`
	AmountCents    int64           `db:"amount_cents" json:"amount_cents"`
	Type           TransactionType `db:"type" json:"type"`
	ReferenceID    string          `db:"reference_id" json:"reference_id"`
	IdempotencyKey string          `db:"idempotency_key" json:"idempotency_key"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

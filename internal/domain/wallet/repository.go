package wallet

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) EnsureWallet(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO wallets (user_id, balance_cents)
		VALUES ($1, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	return err
}

func (r *Repository) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	if err := r.EnsureWallet(ctx, userID); err != nil {
		return 0, err
	}

	var balance int64
	err := r.db.GetContext(ctx, &balance, `SELECT balance_cents FROM wallets WHERE user_id = $1`, userID)
	return balance, err
}

func (r *Repository) Transactions(ctx context.Context, userID uuid.UUID) ([]Transaction, error) {
	var txs []Transaction
	err := r.db.SelectContext(ctx, &txs, `
		SELECT id, user_id, amount_cents, type, reference_id, idempotency_key, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	return txs, err
}

func (r *Repository) beginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// lockWallet takes a row lock on the wallet, creating it first if needed.
func (r *Repository) lockWallet(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (int64, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO wallets (user_id, balance_cents)
		VALUES ($1, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, userID); err != nil {
		return 0, err
	}

	var balance int64
	err := tx.GetContext(ctx, &balance, `SELECT balance_cents FROM wallets WHERE user_id = $1 FOR UPDATE`, userID)
	return balance, err
}

func (r *Repository) creditExists(ctx context.Context, tx *sqlx.Tx, referenceID string) (bool, error) {
	var one int
	err := tx.GetContext(ctx, &one, `
		SELECT 1
		FROM wallet_transactions
		WHERE type = $1 AND reference_id = $2
		LIMIT 1
	`, TransactionTypeCredit, referenceID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *Repository) updateBalance(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, balance int64) error {
	_, err := tx.ExecContext(ctx, `UPDATE wallets SET balance_cents = $1, updated_at = now() WHERE user_id = $2`, balance, userID)
	return err
}

func (r *Repository) insertTransaction(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, txType TransactionType, referenceID string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO wallet_transactions (id, user_id, amount_cents, type, reference_id, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New(), userID, amount, string(txType), referenceID, uuid.New().String())
	return err
}

// CreditTx increases the balance inside the caller's transaction. Idempotent
// per reference: if a committed credit with this referenceID exists, it is a
// no-op. A partial unique index on (reference_id) for credits backstops the
// check under concurrent commits.
func (r *Repository) CreditTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, referenceID string) error {
	balance, err := r.lockWallet(ctx, tx, userID)
	if err != nil {
		return err
	}

	exists, err := r.creditExists(ctx, tx, referenceID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	// A concurrent credit with the same reference can commit between the
	// exists check and our insert. The unique violation aborts everything
	// since the savepoint, so rolling back to it undoes the balance update
	// too and leaves the enclosing transaction usable.
	if _, err := tx.ExecContext(ctx, `SAVEPOINT wallet_credit`); err != nil {
		return err
	}

	if err := r.updateBalance(ctx, tx, userID, balance+amount); err != nil {
		return err
	}

	if err := r.insertTransaction(ctx, tx, userID, amount, TransactionTypeCredit, referenceID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			_, rbErr := tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT wallet_credit`)
			return rbErr
		}
		return err
	}

	_, err = tx.ExecContext(ctx, `RELEASE SAVEPOINT wallet_credit`)
	return err
}

// DebitTx decreases the balance inside the caller's transaction. Returns
// (false, nil) when the balance would go negative: an expected business
// outcome, not an error. Debits are not deduplicated by reference.
func (r *Repository) DebitTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, referenceID string) (bool, error) {
	balance, err := r.lockWallet(ctx, tx, userID)
	if err != nil {
		return false, err
	}

	if balance < amount {
		return false, nil
	}

	if err := r.updateBalance(ctx, tx, userID, balance-amount); err != nil {
		return false, err
	}

	if err := r.insertTransaction(ctx, tx, userID, -amount, TransactionTypeDebit, referenceID); err != nil {
		return false, err
	}
	return true, nil
}

// Credit runs CreditTx in its own transaction.
func (r *Repository) Credit(ctx context.Context, userID uuid.UUID, amount int64, referenceID string) error {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.CreditTx(ctx, tx, userID, amount, referenceID); err != nil {
		return err
	}
	return tx.Commit()
}

// Debit runs DebitTx in its own transaction.
func (r *Repository) Debit(ctx context.Context, userID uuid.UUID, amount int64, referenceID string) (bool, error) {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	ok, err := r.DebitTx(ctx, tx, userID, amount, referenceID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return true, tx.Commit()
}

package wallet

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Service is the wallet-mutation capability. The Tx variants participate in
// a caller-owned transaction; the reservation coordinator uses them so a
// debit, the matching owner credit, and the booking write commit or roll
// back as one unit.
type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.GetBalance(ctx, userID)
}

func (s *Service) Transactions(ctx context.Context, userID uuid.UUID) ([]Transaction, error) {
	return s.repo.Transactions(ctx, userID)
}

// Credit adds funds. Repeated calls with the same referenceID leave the
// balance unchanged after the first.
func (s *Service) Credit(ctx context.Context, userID uuid.UUID, amount int64, referenceID string) error {
	if amount <= 0 || referenceID == "" {
		return ErrInvalidAmount
	}
	if err := s.repo.Credit(ctx, userID, amount, referenceID); err != nil {
		return err
	}
	log.Info().Str("user_id", userID.String()).Int64("amount_cents", amount).Str("reference_id", referenceID).Msg("wallet credit applied")
	return nil
}

// Debit removes funds. Returns false when the balance is insufficient.
func (s *Service) Debit(ctx context.Context, userID uuid.UUID, amount int64, referenceID string) (bool, error) {
	if amount <= 0 || referenceID == "" {
		return false, ErrInvalidAmount
	}
	ok, err := s.repo.Debit(ctx, userID, amount, referenceID)
	if err != nil {
		return false, err
	}
	if ok {
		log.Info().Str("user_id", userID.String()).Int64("amount_cents", amount).Str("reference_id", referenceID).Msg("wallet debit applied")
	}
	return ok, nil
}

// CreditTx is Credit scoped to the caller's transaction.
func (s *Service) CreditTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, referenceID string) error {
	if amount <= 0 || referenceID == "" {
		return ErrInvalidAmount
	}
	return s.repo.CreditTx(ctx, tx, userID, amount, referenceID)
}

// DebitTx is Debit scoped to the caller's transaction.
func (s *Service) DebitTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, referenceID string) (bool, error) {
	if amount <= 0 || referenceID == "" {
		return false, ErrInvalidAmount
	}
	return s.repo.DebitTx(ctx, tx, userID, amount, referenceID)
}

package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

const columns = `id, user_id, slot_id, price_cents, status, lock_expires_at, created_at`

func (r *Repository) CreateTx(ctx context.Context, tx *sqlx.Tx, b *Booking) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO bookings (id, user_id, slot_id, price_cents, status, lock_expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, b.ID, b.UserID, b.SlotID, b.PriceCents, b.Status, b.LockExpiresAt, b.CreatedAt)
	return err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var b Booking
	err := r.db.GetContext(ctx, &b, `SELECT `+columns+` FROM bookings WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Booking, error) {
	var b Booking
	err := tx.GetContext(ctx, &b, `SELECT `+columns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ConfirmedBySlotTx finds the confirmed booking holding a slot, if any.
func (r *Repository) ConfirmedBySlotTx(ctx context.Context, tx *sqlx.Tx, slotID uuid.UUID) (*Booking, error) {
	var b Booking
	err := tx.GetContext(ctx, &b, `
		SELECT `+columns+`
		FROM bookings
		WHERE slot_id = $1 AND status = $2
		FOR UPDATE
	`, slotID, StatusConfirmed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repository) SetStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status Status) error {
	_, err := tx.ExecContext(ctx, `UPDATE bookings SET status = $1 WHERE id = $2`, status, id)
	return err
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Booking, error) {
	var bookings []Booking
	err := r.db.SelectContext(ctx, &bookings, `
		SELECT `+columns+`
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// CompleteEnded marks confirmed bookings on ended slots Completed.
// Returns the number of rows transitioned.
func (r *Repository) CompleteEnded(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE bookings b
		SET status = $1
		FROM slots s
		WHERE s.id = b.slot_id
		  AND b.status = $2
		  AND s.end_time <= $3
	`, StatusCompleted, StatusConfirmed, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

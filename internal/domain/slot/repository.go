package slot

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

const selectColumns = `
	s.id, s.court_id, c.venue_id, s.start_time, s.end_time, s.base_price_cents, s.status
`

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	var s Slot
	err := r.db.GetContext(ctx, &s, `
		SELECT `+selectColumns+`
		FROM slots s
		JOIN courts c ON c.id = s.court_id
		WHERE s.id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetForUpdate re-reads the slot inside tx with a row lock, so the status
// observed reflects the most recent committed writer.
func (r *Repository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Slot, error) {
	var s Slot
	err := tx.GetContext(ctx, &s, `
		SELECT `+selectColumns+`
		FROM slots s
		JOIN courts c ON c.id = s.court_id
		WHERE s.id = $1
		FOR UPDATE OF s
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) SetStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status Status) error {
	_, err := tx.ExecContext(ctx, `UPDATE slots SET status = $1 WHERE id = $2`, status, id)
	return err
}

// SearchAvailable lists available slots for a venue on a given day,
// optionally narrowed to one court.
func (r *Repository) SearchAvailable(ctx context.Context, venueID uuid.UUID, courtID *uuid.UUID, dayStart, dayEnd time.Time) ([]Slot, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM slots s
		JOIN courts c ON c.id = s.court_id
		WHERE c.venue_id = $1
		  AND s.status = $2
		  AND s.start_time >= $3
		  AND s.start_time < $4
	`
	args := []interface{}{venueID, StatusAvailable, dayStart, dayEnd}
	if courtID != nil {
		query += ` AND s.court_id = $5`
		args = append(args, *courtID)
	}
	query += ` ORDER BY s.start_time`

	var slots []Slot
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, err
	}
	return slots, nil
}

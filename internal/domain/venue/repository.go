package venue

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("venue not found")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// OwnerID returns the user who owns the venue and is credited on confirm.
func (r *Repository) OwnerID(ctx context.Context, venueID uuid.UUID) (uuid.UUID, error) {
	var ownerID uuid.UUID
	err := r.db.GetContext(ctx, &ownerID, `SELECT owner_id FROM venues WHERE id = $1`, venueID)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	return ownerID, nil
}

// ActiveDiscounts returns discounts in force for the venue (and the more
// specific court) at the given time.
func (r *Repository) ActiveDiscounts(ctx context.Context, venueID, courtID uuid.UUID, at time.Time) ([]Discount, error) {
	var discounts []Discount
	err := r.db.SelectContext(ctx, &discounts, `
		SELECT id, scope, venue_id, court_id, percent_off, valid_from, valid_to, is_active
		FROM discounts
		WHERE venue_id = $1
		  AND is_active = true
		  AND valid_from <= $3
		  AND valid_to >= $3
		  AND (scope = 'venue' OR court_id = $2)
	`, venueID, courtID, at)
	if err != nil {
		return nil, err
	}
	return discounts, nil
}

package venue

import (
	"time"

	"github.com/google/uuid"
)

type DiscountScope string

const (
	ScopeVenue DiscountScope = "venue"
	ScopeCourt DiscountScope = "court"
)

type Venue struct {
	ID      uuid.UUID `db:"id" json:"id"`
	OwnerID uuid.UUID `db:"owner_id" json:"owner_id"`
	Name    string    `db:"name" json:"name"`
}

type Court struct {
	ID      uuid.UUID `db:"id" json:"id"`
	VenueID uuid.UUID `db:"venue_id" json:"venue_id"`
	Name    string    `db:"name" json:"name"`
}

// Discount is a read-only pricing input owned by venue management.
type Discount struct {
	ID         uuid.UUID     `db:"id" json:"id"`
	Scope      DiscountScope `db:"scope" json:"scope"`
	VenueID    uuid.UUID     `db:"venue_id" json:"venue_id"`
	CourtID    *uuid.UUID    `db:"court_id" json:"court_id,omitempty"`
	PercentOff float64       `db:"percent_off" json:"percent_off"`
	ValidFrom  time.Time     `db:"valid_from" json:"valid_from"`
	ValidTo    time.Time     `db:"valid_to" json:"valid_to"`
	IsActive   bool          `db:"is_active" json:"is_active"`
}

package slot

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusLocked    Status = "locked"
	StatusBooked    Status = "booked"
)

// Slot is a bookable time window on a court. VenueID is denormalized from
// the court join so pricing and ownership lookups need no extra round trip.
type Slot struct {
	ID             uuid.UUID `db:"id" json:"id"`
	CourtID        uuid.UUID `db:"court_id" json:"court_id"`
	VenueID        uuid.UUID `db:"venue_id" json:"venue_id"`
	StartTime      time.Time `db:"start_time" json:"start_time"`
	EndTime        time.Time `db:"end_time" json:"end_time"`
	BasePriceCents int64     `db:"base_price_cents" json:"base_price_cents"`
	Status         Status    `db:"status" json:"status"`
}

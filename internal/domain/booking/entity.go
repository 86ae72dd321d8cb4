package booking

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusLocked    Status = "locked"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
	StatusCompleted Status = "completed"
)

// Booking is the durable reservation record. PriceCents is frozen at
// confirmation and never changes afterwards. Rows are never deleted;
// cancellation is a status change so the ledger linkage survives.
type Booking struct {
	ID            uuid.UUID `db:"id" json:"id"`
	UserID        uuid.UUID `db:"user_id" json:"user_id"`
	SlotID        uuid.UUID `db:"slot_id" json:"slot_id"`
	PriceCents    int64     `db:"price_cents" json:"price_cents"`
	Status        Status    `db:"status" json:"status"`
	LockExpiresAt time.Time `db:"lock_expires_at" json:"lock_expires_at"` // audit only
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// LockResult is what a successful slot lock returns to the client.
type LockResult struct {
	SlotID     uuid.UUID `json:"slot_id"`
	PriceCents int64     `json:"price_cents"`
	ExpiresAt  time.Time `json:"expires_at"`
}

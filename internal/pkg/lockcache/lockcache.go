// Package lockcache holds short-lived soft locks on slots. A soft lock
// reserves a quoted price for one user until it expires or is released.
//
// The one correctness property every implementation must provide: for a
// given slot key, no two concurrent Put calls may both succeed while a
// live lock exists. Expiry is evaluated lazily on read; an entry whose
// expiry has passed is treated as absent even if not yet evicted.
package lockcache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrAlreadyLocked is returned by Put when a live lock exists for the slot.
	ErrAlreadyLocked = errors.New("slot already locked")
	// ErrNotFound is returned by Get when no live lock exists for the slot.
	ErrNotFound = errors.New("lock not found")
)

// SlotLock is the ephemeral hold on a slot. It is never persisted.
type SlotLock struct {
	SlotID     uuid.UUID `json:"slot_id"`
	UserID     uuid.UUID `json:"user_id"`
	PriceCents int64     `json:"price_cents"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Cache is the soft-lock store. Backed by Redis in multi-instance
// deployments and by an in-process map in single-instance ones.
type Cache interface {
	// Put stores lock under slotID only if no live entry exists.
	Put(ctx context.Context, slotID uuid.UUID, lock SlotLock, ttl time.Duration) error
	// Get returns the live lock or ErrNotFound.
	Get(ctx context.Context, slotID uuid.UUID) (SlotLock, error)
	// Release deletes the entry if userID holds it. A lock held by
	// another user is left untouched. Idempotent.
	Release(ctx context.Context, slotID, userID uuid.UUID) error
}

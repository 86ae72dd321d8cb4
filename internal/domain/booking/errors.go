package booking

import "errors"

// Contention errors are expected under concurrent load and surfaced as
// retryable business rejections, never logged as system faults.
var (
	ErrSlotUnavailable  = errors.New("slot is not available")
	ErrAlreadyLocked    = errors.New("slot is locked by another user")
	ErrLockExpired      = errors.New("slot lock expired or not found")
	ErrNotLockOwner     = errors.New("lock is held by another user")
	ErrNotFound         = errors.New("booking not found")
	ErrNotBookingOwner  = errors.New("not authorized to cancel this booking")
	ErrAlreadyCancelled = errors.New("booking already cancelled")
	ErrNotCancellable   = errors.New("booking is not in a cancellable state")
)

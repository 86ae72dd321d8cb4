package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/courtside/courtside-api/internal/domain/pricing"
	"github.com/courtside/courtside-api/internal/domain/slot"
	"github.com/courtside/courtside-api/internal/domain/venue"
	"github.com/courtside/courtside-api/internal/domain/wallet"
	"github.com/courtside/courtside-api/internal/pkg/lockcache"
)

// Service is the reservation coordinator. A booking moves through two
// phases: a soft lock in the cache that freezes the quoted price, then a
// single database transaction that settles money and flips the slot. The
// cache entry is removed only after that transaction commits; on failure
// the lock stays so the holder can retry at the frozen price.
type Service struct {
	db       *sqlx.DB
	slots    *slot.Repository
	venues   *venue.Repository
	bookings *Repository
	wallets  *wallet.Service
	locks    lockcache.Cache
	quoter   *pricing.Quoter
	lockTTL  time.Duration
}

func NewService(
	db *sqlx.DB,
	slots *slot.Repository,
	venues *venue.Repository,
	bookings *Repository,
	wallets *wallet.Service,
	locks lockcache.Cache,
	quoter *pricing.Quoter,
	lockTTL time.Duration,
) *Service {
	return &Service{
		db:       db,
		slots:    slots,
		venues:   venues,
		bookings: bookings,
		wallets:  wallets,
		locks:    locks,
		quoter:   quoter,
		lockTTL:  lockTTL,
	}
}

// Lock quotes the slot at current demand and takes a soft lock for userID.
// The returned price is the one Confirm will charge, regardless of how the
// multipliers move while the lock is live.
func (s *Service) Lock(ctx context.Context, userID, slotID uuid.UUID) (*LockResult, error) {
	sl, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, slot.ErrNotFound) {
			return nil, ErrSlotUnavailable
		}
		return nil, err
	}
	if sl.Status != slot.StatusAvailable {
		return nil, ErrSlotUnavailable
	}

	// A lock attempt is demand too.
	s.quoter.Record(ctx, sl)

	price, err := s.quoter.QuoteSlot(ctx, sl, time.Now())
	if err != nil {
		return nil, err
	}

	lock := lockcache.SlotLock{
		SlotID:     slotID,
		UserID:     userID,
		PriceCents: price,
		ExpiresAt:  time.Now().Add(s.lockTTL),
	}
	if err := s.locks.Put(ctx, slotID, lock, s.lockTTL); err != nil {
		if errors.Is(err, lockcache.ErrAlreadyLocked) {
			return nil, ErrAlreadyLocked
		}
		return nil, err
	}

	log.Info().
		Str("slot_id", slotID.String()).
		Str("user_id", userID.String()).
		Int64("price_cents", price).
		Time("expires_at", lock.ExpiresAt).
		Msg("Slot locked")

	return &LockResult{SlotID: slotID, PriceCents: price, ExpiresAt: lock.ExpiresAt}, nil
}

// Confirm settles a held lock: debit the player, credit the venue owner,
// mark the slot booked, and write the booking row, all in one transaction.
// The soft lock is released only after the transaction commits. If the
// debit fails the lock stays live so the user can top up and retry.
func (s *Service) Confirm(ctx context.Context, userID, slotID uuid.UUID) (*Booking, error) {
	lock, err := s.locks.Get(ctx, slotID)
	if err != nil {
		if errors.Is(err, lockcache.ErrNotFound) {
			return nil, ErrLockExpired
		}
		return nil, err
	}
	if lock.UserID != userID {
		return nil, ErrNotLockOwner
	}

	sl, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	ownerID, err := s.venues.OwnerID(ctx, sl.VenueID)
	if err != nil {
		return nil, err
	}

	var b *Booking
	err = s.runTx(ctx, func(tx *sqlx.Tx) error {
		locked, err := s.slots.GetForUpdate(ctx, tx, slotID)
		if err != nil {
			return err
		}
		if locked.Status != slot.StatusAvailable {
			return ErrSlotUnavailable
		}

		id := uuid.New()
		ok, err := s.wallets.DebitTx(ctx, tx, userID, lock.PriceCents, "booking:"+id.String())
		if err != nil {
			return err
		}
		if !ok {
			return wallet.ErrInsufficientFunds
		}
		if err := s.wallets.CreditTx(ctx, tx, ownerID, lock.PriceCents, "booking_credit:"+id.String()); err != nil {
			return err
		}
		if err := s.slots.SetStatusTx(ctx, tx, slotID, slot.StatusBooked); err != nil {
			return err
		}

		b = &Booking{
			ID:            id,
			UserID:        userID,
			SlotID:        slotID,
			PriceCents:    lock.PriceCents,
			Status:        StatusConfirmed,
			LockExpiresAt: lock.ExpiresAt,
			CreatedAt:     time.Now(),
		}
		return s.bookings.CreateTx(ctx, tx, b)
	})
	if err != nil {
		return nil, err
	}

	// Past this point the booking is durable. Release is owner-checked so
	// a late commit cannot evict a fresh lock someone else took after ours
	// expired; a failed release only delays the key until TTL expiry and
	// must not fail the request.
	if err := s.locks.Release(ctx, slotID, userID); err != nil {
		log.Warn().Err(err).Str("slot_id", slotID.String()).Msg("Failed to release slot lock after confirm")
	}

	log.Info().
		Str("booking_id", b.ID.String()).
		Str("slot_id", slotID.String()).
		Str("user_id", userID.String()).
		Int64("price_cents", b.PriceCents).
		Msg("Booking confirmed")

	return b, nil
}

// Cancel cancels a confirmed booking and refunds the scheduled percentage
// of the paid price. The slot re-opens in the same transaction.
func (s *Service) Cancel(ctx context.Context, userID, bookingID uuid.UUID) (*Booking, error) {
	var b *Booking
	err := s.runTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		b, err = s.bookings.GetForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if b.UserID != userID {
			return ErrNotBookingOwner
		}
		if b.Status == StatusCancelled {
			return ErrAlreadyCancelled
		}
		if b.Status != StatusConfirmed {
			return ErrNotCancellable
		}

		sl, err := s.slots.GetForUpdate(ctx, tx, b.SlotID)
		if err != nil {
			return err
		}

		percent := RefundPercent(time.Until(sl.StartTime))
		refund := b.PriceCents * int64(percent) / 100
		if refund > 0 {
			if err := s.wallets.CreditTx(ctx, tx, userID, refund, "refund:"+b.ID.String()); err != nil {
				return err
			}
		}

		if err := s.bookings.SetStatusTx(ctx, tx, b.ID, StatusCancelled); err != nil {
			return err
		}
		b.Status = StatusCancelled
		return s.slots.SetStatusTx(ctx, tx, b.SlotID, slot.StatusAvailable)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("booking_id", b.ID.String()).
		Str("user_id", userID.String()).
		Msg("Booking cancelled")

	return b, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

// RefundPercent maps lead time before slot start to the refunded share of
// the paid price: a day or more 100%, six hours or more 50%, less nothing.
func RefundPercent(untilStart time.Duration) int {
	switch {
	case untilStart >= 24*time.Hour:
		return 100
	case untilStart >= 6*time.Hour:
		return 50
	default:
		return 0
	}
}

// runTx runs fn in a read-committed transaction, retrying once when
// Postgres reports a serialization or deadlock failure.
func (s *Service) runTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = s.execTx(ctx, fn)
		if err == nil || !isSerializationFailure(err) {
			return err
		}
		log.Warn().Err(err).Msg("Transaction serialization failure, retrying")
	}
	return err
}

func (s *Service) execTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("Transaction rollback failed")
		}
		return err
	}
	return tx.Commit()
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}

package booking

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/courtside/courtside-api/internal/domain/game"
	"github.com/courtside/courtside-api/internal/domain/slot"
)

// Sweeper is the background lifecycle pass. Each tick it cancels open
// games that cannot field their minimum before start, refunding the slot
// booking in full, and completes games and bookings whose slot has ended.
type Sweeper struct {
	svc      *Service
	games    *game.Repository
	interval time.Duration
	horizon  time.Duration
	stopCh   chan struct{}
}

func NewSweeper(svc *Service, games *game.Repository, interval, horizon time.Duration) *Sweeper {
	return &Sweeper{
		svc:      svc,
		games:    games,
		interval: interval,
		horizon:  horizon,
		stopCh:   make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	go s.loop()
	log.Info().
		Dur("interval", s.interval).
		Dur("horizon", s.horizon).
		Msg("Booking sweeper started")
}

func (s *Sweeper) Stop() {
	close(s.stopCh)
	log.Info().Msg("Booking sweeper stopped")
}

func (s *Sweeper) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// RunOnce executes a single sweep pass.
func (s *Sweeper) RunOnce(ctx context.Context) {
	s.cancelUnderMin(ctx)
	s.completeEnded(ctx)
}

func (s *Sweeper) cancelUnderMin(ctx context.Context) {
	now := time.Now()
	games, err := s.games.UnderMinStartingBefore(ctx, now, now.Add(s.horizon))
	if err != nil {
		log.Error().Err(err).Msg("Failed to list under-minimum games")
		return
	}

	for _, g := range games {
		if err := s.cancelGame(ctx, g); err != nil {
			log.Error().Err(err).Str("game_id", g.ID.String()).Msg("Failed to auto-cancel game")
			continue
		}
		log.Info().
			Str("game_id", g.ID.String()).
			Int("participants", g.ParticipantCount).
			Int("min_players", g.MinPlayers).
			Msg("Game auto-cancelled, booking refunded in full")
	}
}

// cancelGame runs one game's cancellation in its own transaction so a
// failure does not block the rest of the sweep. Auto-cancellation always
// refunds 100%: the platform pulled the game, not the player.
func (s *Sweeper) cancelGame(ctx context.Context, g game.UnderMinGame) error {
	return s.svc.runTx(ctx, func(tx *sqlx.Tx) error {
		b, err := s.svc.bookings.ConfirmedBySlotTx(ctx, tx, g.SlotID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if b != nil {
			if err := s.svc.wallets.CreditTx(ctx, tx, b.UserID, b.PriceCents, "auto_refund:"+b.ID.String()); err != nil {
				return err
			}
			if err := s.svc.bookings.SetStatusTx(ctx, tx, b.ID, StatusCancelled); err != nil {
				return err
			}
			if err := s.svc.slots.SetStatusTx(ctx, tx, g.SlotID, slot.StatusAvailable); err != nil {
				return err
			}
		}
		return s.games.SetStatusTx(ctx, tx, g.ID, game.StatusCancelled)
	})
}

func (s *Sweeper) completeEnded(ctx context.Context) {
	now := time.Now()

	ended, err := s.games.EndedBefore(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list ended games")
		return
	}
	for _, g := range ended {
		players, err := s.completeGame(ctx, g)
		if err != nil {
			log.Error().Err(err).Str("game_id", g.ID.String()).Msg("Failed to complete game")
			continue
		}
		log.Info().Str("game_id", g.ID.String()).Int("participants", players).Msg("Game completed")
	}

	completed, err := s.svc.bookings.CompleteEnded(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("Failed to complete ended bookings")
		return
	}
	if completed > 0 {
		log.Info().Int64("count", completed).Msg("Bookings completed")
	}
}

// completeGame flips the game and its counters in one transaction. The
// status stays open/full on failure so the next sweep retries the item.
func (s *Sweeper) completeGame(ctx context.Context, g game.Game) (int, error) {
	var players int
	err := s.svc.runTx(ctx, func(tx *sqlx.Tx) error {
		participants, err := s.games.ParticipantsTx(ctx, tx, g.ID)
		if err != nil {
			return err
		}
		for _, userID := range participants {
			if err := s.games.IncrementGamesPlayedTx(ctx, tx, userID); err != nil {
				return err
			}
		}
		players = len(participants)
		return s.games.SetStatusTx(ctx, tx, g.ID, game.StatusCompleted)
	})
	return players, err
}

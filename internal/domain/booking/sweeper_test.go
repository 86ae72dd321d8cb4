package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/courtside/courtside-api/internal/domain/booking"
	"github.com/courtside/courtside-api/internal/domain/game"
	"github.com/courtside/courtside-api/internal/domain/slot"
)

func TestSweeperAutoCancelsUnderMinGame(t *testing.T) {
	f := newFixture(t, time.Now().Add(30*time.Minute))
	t.Cleanup(f.close)
	setupGameTables(t, f.db)

	userID := uuid.New()
	seedWallet(t, f.wallets, userID, 50000)

	if _, err := f.svc.Lock(context.Background(), userID, f.slotID); err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	b, err := f.svc.Confirm(context.Background(), userID, f.slotID)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	balanceAfterPay, _ := f.wallets.Balance(context.Background(), userID)

	// Open game on the booked slot with only one of four required players.
	gameID := uuid.New()
	mustExecArgs(t, f.db, `
		INSERT INTO games (id, slot_id, owner_id, min_players, max_players, status)
		VALUES ($1, $2, $3, 4, 10, $4)`, gameID, f.slotID, userID, game.StatusOpen)
	mustExecArgs(t, f.db, `
		INSERT INTO game_participants (id, game_id, user_id)
		VALUES ($1, $2, $3)`, uuid.New(), gameID, userID)

	games := game.NewRepository(f.db)
	sweeper := booking.NewSweeper(f.svc, games, time.Minute, time.Hour)
	sweeper.RunOnce(context.Background())

	var gameStatus game.Status
	if err := f.db.Get(&gameStatus, "SELECT status FROM games WHERE id = $1", gameID); err != nil {
		t.Fatalf("game query failed: %v", err)
	}
	if gameStatus != game.StatusCancelled {
		t.Errorf("expected game cancelled, got %s", gameStatus)
	}

	got, err := f.svc.Get(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("booking query failed: %v", err)
	}
	if got.Status != booking.StatusCancelled {
		t.Errorf("expected booking cancelled, got %s", got.Status)
	}

	// Platform-initiated cancellation refunds in full regardless of lead time.
	balance, _ := f.wallets.Balance(context.Background(), userID)
	if balance != balanceAfterPay+b.PriceCents {
		t.Errorf("expected full refund to %d, got %d", balanceAfterPay+b.PriceCents, balance)
	}

	var slotStatus slot.Status
	if err := f.db.Get(&slotStatus, "SELECT status FROM slots WHERE id = $1", f.slotID); err != nil {
		t.Fatalf("slot query failed: %v", err)
	}
	if slotStatus != slot.StatusAvailable {
		t.Errorf("expected slot re-opened, got %s", slotStatus)
	}
}

func TestSweeperCompletesEndedGames(t *testing.T) {
	f := newFixture(t, time.Now().Add(-2*time.Hour))
	t.Cleanup(f.close)
	setupGameTables(t, f.db)

	userID := uuid.New()
	playerID := uuid.New()

	// Confirmed booking on a slot that has already ended.
	mustExecArgs(t, f.db, `
		INSERT INTO bookings (id, user_id, slot_id, price_cents, status, lock_expires_at)
		VALUES ($1, $2, $3, 10000, $4, now())`,
		uuid.New(), userID, f.slotID, booking.StatusConfirmed)

	gameID := uuid.New()
	mustExecArgs(t, f.db, `
		INSERT INTO games (id, slot_id, owner_id, min_players, max_players, status)
		VALUES ($1, $2, $3, 2, 10, $4)`, gameID, f.slotID, userID, game.StatusFull)
	for _, id := range []uuid.UUID{userID, playerID} {
		mustExecArgs(t, f.db, `
			INSERT INTO game_participants (id, game_id, user_id)
			VALUES ($1, $2, $3)`, uuid.New(), gameID, id)
	}

	games := game.NewRepository(f.db)
	sweeper := booking.NewSweeper(f.svc, games, time.Minute, time.Hour)
	sweeper.RunOnce(context.Background())

	var gameStatus game.Status
	if err := f.db.Get(&gameStatus, "SELECT status FROM games WHERE id = $1", gameID); err != nil {
		t.Fatalf("game query failed: %v", err)
	}
	if gameStatus != game.StatusCompleted {
		t.Errorf("expected game completed, got %s", gameStatus)
	}

	var bookingStatus booking.Status
	if err := f.db.Get(&bookingStatus, "SELECT status FROM bookings WHERE slot_id = $1", f.slotID); err != nil {
		t.Fatalf("booking query failed: %v", err)
	}
	if bookingStatus != booking.StatusCompleted {
		t.Errorf("expected booking completed, got %s", bookingStatus)
	}

	for _, id := range []uuid.UUID{userID, playerID} {
		var played int
		if err := f.db.Get(&played, "SELECT games_played FROM user_profiles WHERE user_id = $1", id); err != nil {
			t.Fatalf("profile query failed: %v", err)
		}
		if played != 1 {
			t.Errorf("expected games_played 1 for %s, got %d", id, played)
		}
	}
}

func TestSweeperRetriesFailedCompletion(t *testing.T) {
	f := newFixture(t, time.Now().Add(-2*time.Hour))
	t.Cleanup(f.close)
	setupGameTables(t, f.db)

	playerID := uuid.New()
	gameID := uuid.New()
	mustExecArgs(t, f.db, `
		INSERT INTO games (id, slot_id, owner_id, min_players, max_players, status)
		VALUES ($1, $2, $3, 2, 10, $4)`, gameID, f.slotID, playerID, game.StatusFull)
	mustExecArgs(t, f.db, `
		INSERT INTO game_participants (id, game_id, user_id)
		VALUES ($1, $2, $3)`, uuid.New(), gameID, playerID)

	games := game.NewRepository(f.db)
	sweeper := booking.NewSweeper(f.svc, games, time.Minute, time.Hour)

	// Break the counter increment so the completion item fails mid-way.
	if _, err := f.db.Exec("ALTER TABLE user_profiles RENAME TO user_profiles_down"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	restored := false
	restore := func() {
		if restored {
			return
		}
		restored = true
		if _, err := f.db.Exec("ALTER TABLE user_profiles_down RENAME TO user_profiles"); err != nil {
			t.Fatalf("restore failed: %v", err)
		}
	}
	t.Cleanup(restore)

	sweeper.RunOnce(context.Background())

	// The failed item must be left untouched so the next pass picks it up.
	var gameStatus game.Status
	if err := f.db.Get(&gameStatus, "SELECT status FROM games WHERE id = $1", gameID); err != nil {
		t.Fatalf("game query failed: %v", err)
	}
	if gameStatus != game.StatusFull {
		t.Fatalf("expected game left full after failed completion, got %s", gameStatus)
	}

	restore()
	sweeper.RunOnce(context.Background())

	if err := f.db.Get(&gameStatus, "SELECT status FROM games WHERE id = $1", gameID); err != nil {
		t.Fatalf("game query failed: %v", err)
	}
	if gameStatus != game.StatusCompleted {
		t.Errorf("expected game completed on retry, got %s", gameStatus)
	}
	var played int
	if err := f.db.Get(&played, "SELECT games_played FROM user_profiles WHERE user_id = $1", playerID); err != nil {
		t.Fatalf("profile query failed: %v", err)
	}
	if played != 1 {
		t.Errorf("expected games_played 1 after retry, got %d", played)
	}
}

func setupGameTables(t *testing.T, db *sqlx.DB) {
	t.Helper()
	statements := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id uuid PRIMARY KEY,
			slot_id uuid NOT NULL REFERENCES slots(id),
			owner_id uuid NOT NULL,
			min_players int NOT NULL,
			max_players int NOT NULL,
			status text NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS game_participants (
			id uuid PRIMARY KEY,
			game_id uuid NOT NULL REFERENCES games(id),
			user_id uuid NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_profiles (
			user_id uuid PRIMARY KEY,
			games_played int NOT NULL DEFAULT 0
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("setup query failed: %v", err)
		}
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM game_participants")
		db.Exec("DELETE FROM games")
		db.Exec("DELETE FROM user_profiles")
	})
}

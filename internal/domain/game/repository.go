package game

import (
	"context"
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

const gameColumns = `g.id, g.slot_id, g.owner_id, g.min_players, g.max_players, g.status, g.created_at`

// UnderMinStartingBefore returns open games whose slot starts within
// (now, deadline] and whose participant count is below the minimum.
func (r *Repository) UnderMinStartingBefore(ctx context.Context, now, deadline time.Time) ([]UnderMinGame, error) {
	var games []UnderMinGame
	err := r.db.SelectContext(ctx, &games, `
		SELECT `+gameColumns+`, count(p.id) AS participant_count
		FROM games g
		JOIN slots s ON s.id = g.slot_id
		LEFT JOIN game_participants p ON p.game_id = g.id
		WHERE g.status = $1
		  AND s.start_time > $2
		  AND s.start_time <= $3
		GROUP BY g.id
		HAVING count(p.id) < g.min_players
	`, StatusOpen, now, deadline)
	if err != nil {
		return nil, err
	}
	return games, nil
}

// EndedBefore returns open or full games whose slot end time has passed.
func (r *Repository) EndedBefore(ctx context.Context, now time.Time) ([]Game, error) {
	var games []Game
	err := r.db.SelectContext(ctx, &games, `
		SELECT `+gameColumns+`
		FROM games g
		JOIN slots s ON s.id = g.slot_id
		WHERE g.status IN ($1, $2)
		  AND s.end_time <= $3
	`, StatusOpen, StatusFull, now)
	if err != nil {
		return nil, err
	}
	return games, nil
}

func (r *Repository) ParticipantsTx(ctx context.Context, tx *sqlx.Tx, gameID uuid.UUID) ([]uuid.UUID, error) {
	var userIDs []uuid.UUID
	err := tx.SelectContext(ctx, &userIDs, `
		SELECT user_id FROM game_participants WHERE game_id = $1
	`, gameID)
	return userIDs, err
}

func (r *Repository) SetStatusTx(ctx context.Context, tx *sqlx.Tx, gameID uuid.UUID, status Status) error {
	_, err := tx.ExecContext(ctx, `UPDATE games SET status = $1 WHERE id = $2`, status, gameID)
	return err
}

// IncrementGamesPlayedTx bumps the participation counter on the user profile.
func (r *Repository) IncrementGamesPlayedTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO user_profiles (user_id, games_played)
		VALUES ($1, 1)
		ON CONFLICT (user_id) DO UPDATE SET games_played = user_profiles.games_played + 1
	`, userID)
	return err
}

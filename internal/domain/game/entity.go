package game

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusOpen      Status = "open"
	StatusFull      Status = "full"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Game is an organized match on a booked slot. The sweeper cancels games
// that cannot field their minimum and completes games whose slot has ended.
type Game struct {
	ID         uuid.UUID `db:"id" json:"id"`
	SlotID     uuid.UUID `db:"slot_id" json:"slot_id"`
	OwnerID    uuid.UUID `db:"owner_id" json:"owner_id"`
	MinPlayers int       `db:"min_players" json:"min_players"`
	MaxPlayers int       `db:"max_players" json:"max_players"`
	Status     Status    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// UnderMinGame is a game that will not reach its minimum before start.
type UnderMinGame struct {
	Game
	ParticipantCount int `db:"participant_count"`
}

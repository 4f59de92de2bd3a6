package storage

import (
	"time"

	"github.com/google/uuid"
)

// Game is one bank entry for rating rounds: a complete rated game with
// the players' Elos and enough metadata to present it.
type Game struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Moves       string
	White       string
	Black       string
	WhiteElo    int
	BlackElo    int
	AverageElo  int `gorm:"index"`
	Result      string
	Opening     string
	TimeControl string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Position is one bank entry for evaluation rounds: a position with a
// stored reference evaluation in pawns from White's point of view.
type Position struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	FEN        string
	Evaluation float64
	BestMove   string
	Opening    string
	White      string
	Black      string
	WhiteElo   int
	BlackElo   int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RoomSummary records a finished multiplayer room.
type RoomSummary struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Code       string    `gorm:"index"`
	Kind       string
	NumRounds  int
	NumPlayers int
	CreatedAt  time.Time
	FinishedAt time.Time
	Results    []PlayerResult
}

// PlayerResult is one leaderboard row of a finished room.
type PlayerResult struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RoomSummaryID uuid.UUID `gorm:"type:uuid;index"`
	PlayerName    string
	Score         int
	Rank          int
	CreatedAt     time.Time
}

package room

import (
	"sync"
	"time"

	"chessguessr/internal/wire"
)

// Kind selects what a room's players guess.
type Kind string

const (
	KindRating     Kind = "rating"
	KindEvaluation Kind = "evaluation"
)

// Hub manages all active rooms.
type Hub struct {
	Mu    sync.Mutex
	Rooms map[string]*Room

	// OnFinish is invoked after a room's final leaderboard is
	// broadcast, outside the room lock. Nil when nothing persists
	// finished rooms.
	OnFinish func(r *Room, final []wire.LeaderboardEntry)
}

// Room is one guessing party. It is the authority for its rounds: it
// owns the round clock, accepts each player's single guess per round,
// and scores everyone with the shared formula.
type Room struct {
	Mu            sync.Mutex
	Code          string
	Kind          Kind
	Rounds        []wire.Round
	RoundDuration int
	CreatedAt     time.Time
	LastSeen      time.Time

	players   []string // join order, host first
	scores    map[string]int
	submitted map[string]bool
	watchers  map[string]chan []byte // playerName -> outbound frames

	currentRound int // 0-based, -1 before start
	roundStart   time.Time
	started      bool
	closed       bool // current round no longer accepts guesses
	finished     bool

	timer   *time.Timer
	timerGn int // generation guard against stale timer fires

	onFinish func(r *Room, final []wire.LeaderboardEntry)
}

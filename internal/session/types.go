package session

import (
	"context"

	"chessguessr/internal/wire"
)

// State is the top-level session state. Exactly one is active.
type State int

const (
	StateTitle State = iota
	StateLobby
	StateOptionsSelect
	StateRoomSetup
	StatePlaying
	StateFinal
)

func (s State) String() string {
	switch s {
	case StateTitle:
		return "title"
	case StateLobby:
		return "lobby"
	case StateOptionsSelect:
		return "select"
	case StateRoomSetup:
		return "roomSetup"
	case StatePlaying:
		return "playing"
	case StateFinal:
		return "final"
	default:
		return "unknown"
	}
}

// Phase is the sub-state within StatePlaying.
type Phase int

const (
	PhaseGuessing Phase = iota
	PhaseRevealed
)

// Mode selects locally sequenced rounds or a remote round authority.
type Mode int

const (
	ModeSingle Mode = iota
	ModeMultiplayer
)

// Kind selects the hidden quantity being guessed.
type Kind int

const (
	GuessRating Kind = iota
	GuessEvaluation
)

// RoundRecord is one completed round's outcome. Records are appended
// in strictly increasing round order and never mutated afterwards. A
// round closed by the clock with no submission yields a record with
// Score 0 and a nil Guess.
type RoundRecord struct {
	Round      int
	Score      int
	Difference float64
	Actual     float64
	Guess      *float64
	White      string
	Black      string
	WhiteElo   int
	BlackElo   int
	FEN        string
}

// Evaluation is the engine's verdict from the side to move's point of
// view, the way UCI engines report it. Mate counts moves to mate
// (signed); zero when the score is not a mate.
type Evaluation struct {
	Pawns    float64
	Mate     int
	BestMove string
}

// DataService is the remote data collaborator: round retrieval, score
// confirmation, and room provisioning.
type DataService interface {
	RandomGame(ctx context.Context) (wire.Round, error)
	RandomPosition(ctx context.Context) (wire.Round, error)
	CalculateScore(ctx context.Context, kind Kind, actual, guess float64) (score int, difference float64, err error)
	CreateRoom(ctx context.Context, kind Kind, req wire.CreateRoomRequest) (wire.RoomResponse, error)
	JoinRoom(ctx context.Context, code, playerName string) (wire.RoomResponse, error)
}

// Channel is the outbound half of the realtime link to the round
// authority.
type Channel interface {
	JoinRoom(code, player string) error
	StartGame(code, player string) error
	SubmitGuess(code, player string, roundIndex int, guess float64) error
	NextRound(code string) error
	LeaveRoom(code, player string) error
	SendChat(code, player, text string) error
	Close() error
}

// EventHandler is the inbound half; the Controller implements it and
// the transport invokes it from its read loop.
type EventHandler interface {
	HandleConnected()
	HandleChannelError(message string)
	HandleRosterChanged(players []string)
	HandleGameStarted(roundStart float64, durationSec int)
	HandleRoundStarted(roundIndex int, roundStart float64, durationSec int)
	HandleLeaderboard(entries []wire.LeaderboardEntry)
	HandleAllSubmitted()
	HandleTimeUp(entries []wire.LeaderboardEntry)
	HandleGameOver(entries []wire.LeaderboardEntry)
	HandleChat(msg wire.ChatEvent)
}

// Evaluator is the external position-evaluation worker. The returned
// channel yields at most one result; a worker that never delivers is a
// cosmetic degradation, not an error.
type Evaluator interface {
	Analyze(ctx context.Context, fen string, depth int) (<-chan Evaluation, error)
}

// Config wires the Controller's collaborators.
type Config struct {
	Kind Kind
	Data DataService
	// NewChannel dials the realtime link; invoked when multiplayer is
	// chosen. Nil disables multiplayer.
	NewChannel func(h EventHandler) (Channel, error)
	// Evaluator is optional; nil leaves the analysis panel pending.
	Evaluator   Evaluator
	SearchDepth int
	// Notify surfaces a blocking user-visible message. Defaults to the
	// process log.
	Notify func(message string)
}

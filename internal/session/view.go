package session

import (
	"strings"

	"chessguessr/internal/wire"
)

// Read-side accessors for the presentation layer. Slices are copied so
// callers can never mutate owned state.

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Controller) CurrentRound() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentRound
}

func (c *Controller) TotalRounds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalRounds
}

func (c *Controller) Records() []RoundRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]RoundRecord, len(c.records))
	copy(out, c.records)
	return out
}

// TotalScore is the sum of all recorded round scores.
func (c *Controller) TotalScore() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, r := range c.records {
		total += r.Score
	}
	return total
}

// FEN returns the position to render: the live replay position for
// game rounds, the static round position otherwise.
func (c *Controller) FEN() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rep != nil {
		return c.rep.FEN()
	}
	return c.current.FEN
}

func (c *Controller) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rep == nil {
		return 0
	}
	return c.rep.Cursor()
}

func (c *Controller) MoveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rep == nil {
		return 0
	}
	return c.rep.Len()
}

func (c *Controller) AutoPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoPlaying
}

func (c *Controller) HasSubmitted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasSubmitted
}

// Remaining returns the countdown's last derived value in seconds.
func (c *Controller) Remaining() float64 {
	return c.clock.Remaining()
}

func (c *Controller) RoomCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomCode
}

func (c *Controller) PlayerName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerName
}

func (c *Controller) IsHost() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isHost
}

func (c *Controller) Players() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.players))
	copy(out, c.players)
	return out
}

func (c *Controller) Leaderboard() []wire.LeaderboardEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]wire.LeaderboardEntry, len(c.leaderboard))
	copy(out, c.leaderboard)
	return out
}

func (c *Controller) Chat() []wire.ChatEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]wire.ChatEvent, len(c.chat))
	copy(out, c.chat)
	return out
}

// Round returns the current round's display data.
func (c *Controller) Round() (wire.Round, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.hasCurrent
}

// EngineEval returns the engine's verdict with its sign normalized so
// positive always favors White, or false while analysis is pending.
func (c *Controller) EngineEval() (Evaluation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eval == nil {
		return Evaluation{}, false
	}
	ev := *c.eval
	if blackToMove(c.current.FEN) {
		ev.Pawns = -ev.Pawns
		ev.Mate = -ev.Mate
	}
	return ev, true
}

// blackToMove reads the side-to-move field of a FEN string.
func blackToMove(fen string) bool {
	fields := strings.Fields(fen)
	return len(fields) > 1 && fields[1] == "b"
}

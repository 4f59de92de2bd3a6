// Package room is the multiplayer authority: it owns room membership,
// the per-round timer, one-guess-per-player bookkeeping, and the
// leaderboard every client renders.
package room

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"chessguessr/internal/scoring"
	"chessguessr/internal/wire"
)

var (
	// ErrNotHost carries the exact message clients key their
	// suppression on.
	ErrNotHost = errors.New(wire.ErrOnlyHostCanStart)

	ErrAlreadyStarted  = errors.New("game already started")
	ErrNotStarted      = errors.New("game not started")
	ErrRoundClosed     = errors.New("round no longer accepts guesses")
	ErrAlreadyGuessed  = errors.New("already submitted a guess this round")
	ErrUnknownPlayer   = errors.New("player is not in this room")
	ErrRoundStillOpen  = errors.New("round still in progress")
	ErrWrongRoundIndex = errors.New("guess targets a different round")
)

// Touch updates the last seen timestamp for a room
func (r *Room) Touch() {
	r.Mu.Lock()
	r.LastSeen = time.Now()
	r.Mu.Unlock()
}

// Join adds a player to the roster and announces the new roster to
// everyone. The roster is frozen once the game starts.
func (r *Room) Join(player string) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if r.started {
		return ErrAlreadyStarted
	}
	if player == "" {
		return ErrUnknownPlayer
	}
	for _, p := range r.players {
		if p == player {
			// Rejoining before start is idempotent.
			r.broadcastLocked(wire.EvtPlayerJoined, wire.RosterEvent{Players: append([]string(nil), r.players...)})
			return nil
		}
	}
	r.players = append(r.players, player)
	r.scores[player] = 0
	r.LastSeen = time.Now()
	r.broadcastLocked(wire.EvtPlayerJoined, wire.RosterEvent{Players: append([]string(nil), r.players...)})
	return nil
}

// Leave removes a player. The next roster entry inherits host duties;
// an emptied room is marked finished for the hub's cleanup.
func (r *Room) Leave(player string) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	for i, p := range r.players {
		if p == player {
			r.players = append(r.players[:i], r.players[i+1:]...)
			break
		}
	}
	delete(r.scores, player)
	delete(r.submitted, player)
	delete(r.watchers, player)
	if len(r.players) == 0 {
		r.finished = true
		r.stopTimerLocked()
		return
	}
	r.broadcastLocked(wire.EvtPlayerJoined, wire.RosterEvent{Players: append([]string(nil), r.players...)})
	// A round cannot stall on a departed player's missing guess.
	if r.started && !r.closed && r.allSubmittedLocked() {
		r.closeRoundLocked(wire.EvtAllSubmitted)
	}
}

// AddWatcher registers a player's outbound frame channel
func (r *Room) AddWatcher(player string, ch chan []byte) {
	r.Mu.Lock()
	r.watchers[player] = ch
	r.Mu.Unlock()
}

// RemoveWatcher drops a player's outbound frame channel
func (r *Room) RemoveWatcher(player string) {
	r.Mu.Lock()
	delete(r.watchers, player)
	r.Mu.Unlock()
}

// Players returns the roster, host first.
func (r *Room) Players() []string {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return append([]string(nil), r.players...)
}

// Host returns the current host.
func (r *Room) Host() string {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if len(r.players) == 0 {
		return ""
	}
	return r.players[0]
}

// Start begins round one. Only the host may start; the error text for
// anyone else is fixed because clients match on it.
func (r *Room) Start(player string) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if r.started {
		return ErrAlreadyStarted
	}
	if len(r.players) == 0 || r.players[0] != player {
		return ErrNotHost
	}
	if len(r.Rounds) == 0 {
		return errors.New("room has no rounds")
	}
	r.started = true
	r.openRoundLocked(0)
	r.broadcastLocked(wire.EvtGameStarted, wire.GameStartedEvent{
		RoundStart:    epochSeconds(r.roundStart),
		RoundDuration: r.RoundDuration,
	})
	return nil
}

// SubmitGuess scores one player's single guess for the current round
// and publishes the updated leaderboard. When the last outstanding
// guess lands the round closes early.
func (r *Room) SubmitGuess(player string, roundIndex int, guess float64) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if !r.started || r.finished {
		return ErrNotStarted
	}
	if roundIndex != r.currentRound {
		return fmt.Errorf("%w: got %d, current %d", ErrWrongRoundIndex, roundIndex, r.currentRound)
	}
	if r.closed {
		return ErrRoundClosed
	}
	if _, ok := r.scores[player]; !ok {
		return ErrUnknownPlayer
	}
	if r.submitted[player] {
		return ErrAlreadyGuessed
	}

	actual := r.Rounds[r.currentRound].Actual
	var score int
	if r.Kind == KindEvaluation {
		score, _ = scoring.Evaluation(actual, guess)
	} else {
		score, _ = scoring.Rating(int(actual), int(guess))
	}
	r.submitted[player] = true
	r.scores[player] += score
	r.LastSeen = time.Now()

	r.broadcastLocked(wire.EvtLeaderboard, wire.LeaderboardEvent{
		Entries:         r.leaderboardLocked(),
		PlayerSubmitted: player,
	})
	if r.allSubmittedLocked() {
		r.closeRoundLocked(wire.EvtAllSubmitted)
	}
	return nil
}

// NextRound moves past a closed round: the next round opens, or the
// room finishes after the last one.
func (r *Room) NextRound() error {
	r.Mu.Lock()
	if !r.started || r.finished {
		r.Mu.Unlock()
		return ErrNotStarted
	}
	if !r.closed {
		r.Mu.Unlock()
		return ErrRoundStillOpen
	}
	next := r.currentRound + 1
	if next >= len(r.Rounds) {
		r.finished = true
		r.stopTimerLocked()
		final := r.leaderboardLocked()
		r.broadcastLocked(wire.EvtGameOver, wire.LeaderboardEvent{Entries: final})
		hook := r.onFinish
		r.Mu.Unlock()
		if hook != nil {
			hook(r, final)
		}
		return nil
	}
	r.openRoundLocked(next)
	r.broadcastLocked(wire.EvtRoundStarted, wire.RoundStartedEvent{
		RoundIndex:    next,
		RoundStart:    epochSeconds(r.roundStart),
		RoundDuration: r.RoundDuration,
	})
	r.Mu.Unlock()
	return nil
}

// Chat broadcasts a chat line to the whole room.
func (r *Room) Chat(player, text string) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.broadcastLocked(wire.EvtChatMessage, wire.ChatEvent{
		Sender:    player,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	})
}

// Leaderboard returns the standings sorted by score, ties kept in
// join order.
func (r *Room) Leaderboard() []wire.LeaderboardEntry {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.leaderboardLocked()
}

// CurrentRound reports the 0-based open round index, -1 before start.
func (r *Room) CurrentRound() int {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.currentRound
}

// Finished reports whether the room has played all its rounds.
func (r *Room) Finished() bool {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.finished
}

// openRoundLocked resets per-round state and arms the authoritative
// round timer.
func (r *Room) openRoundLocked(index int) {
	r.currentRound = index
	r.closed = false
	r.submitted = make(map[string]bool)
	r.roundStart = time.Now()
	r.LastSeen = r.roundStart

	r.stopTimerLocked()
	r.timerGn++
	gn := r.timerGn
	r.timer = time.AfterFunc(time.Duration(r.RoundDuration)*time.Second, func() {
		r.timeUp(gn)
	})
}

// closeRoundLocked ends guessing for the current round and announces
// why (all submitted, or time up).
func (r *Room) closeRoundLocked(event string) {
	r.closed = true
	r.stopTimerLocked()
	r.broadcastLocked(event, wire.LeaderboardEvent{Entries: r.leaderboardLocked()})
}

func (r *Room) timeUp(gn int) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if gn != r.timerGn || r.finished || r.closed {
		return
	}
	r.closeRoundLocked(wire.EvtTimeUp)
}

func (r *Room) stopTimerLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Room) allSubmittedLocked() bool {
	for _, p := range r.players {
		if !r.submitted[p] {
			return false
		}
	}
	return len(r.players) > 0
}

func (r *Room) leaderboardLocked() []wire.LeaderboardEntry {
	entries := make([]wire.LeaderboardEntry, 0, len(r.players))
	for _, p := range r.players {
		entries = append(entries, wire.LeaderboardEntry{PlayerName: p, Score: r.scores[p]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}

// broadcastLocked sends an event frame to every watcher. Slow readers
// drop frames rather than stall the room.
func (r *Room) broadcastLocked(event string, payload any) {
	data, _ := json.Marshal(wire.NewEnvelope(event, payload))
	for _, ch := range r.watchers {
		select {
		case ch <- data:
		default:
		}
	}
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000
}

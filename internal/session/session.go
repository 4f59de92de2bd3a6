// Package session sequences guessing rounds: the state machine, round
// bookkeeping, and the orchestration of replay, scoring, and the round
// clock against the remote collaborators.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"chessguessr/internal/logging"
	"chessguessr/internal/pgn"
	"chessguessr/internal/replay"
	"chessguessr/internal/roundclock"
	"chessguessr/internal/scoring"
	"chessguessr/internal/wire"
)

const (
	defaultSearchDepth = 20
	autoPlayInterval   = 500 * time.Millisecond
)

var (
	// ErrInvalidGuess rejects an empty or non-numeric submission
	// before anything leaves the process.
	ErrInvalidGuess = errors.New("guess is empty or not numeric")

	errBadTransition = errors.New("action not available in this state")
)

// Controller owns the whole session: state, round records, the live
// replay engine, the round clock, and the realtime channel. All
// resources have an explicit lifecycle ending in Teardown; nothing is
// process-global.
type Controller struct {
	cfg Config

	mu    sync.Mutex
	state State
	phase Phase
	mode  Mode

	totalRounds  int
	currentRound int // 1-based, 0 before the first round
	records      []RoundRecord
	current      wire.Round
	hasCurrent   bool
	hasSubmitted bool

	rep         *replay.Engine
	autoPlaying bool

	channel     Channel
	roomCode    string
	playerName  string
	isHost      bool
	players     []string
	leaderboard []wire.LeaderboardEntry
	preloaded   []wire.Round
	chat        []wire.ChatEvent
	roundDur    int

	clock *roundclock.Clock

	eval        *Evaluation
	evalPending bool
}

// New creates a Controller in the title state.
func New(cfg Config) *Controller {
	if cfg.SearchDepth <= 0 {
		cfg.SearchDepth = defaultSearchDepth
	}
	if cfg.Notify == nil {
		cfg.Notify = func(msg string) { log.Printf("notice: %s", msg) }
	}
	c := &Controller{cfg: cfg, state: StateTitle, mode: ModeSingle}
	c.clock = roundclock.New(nil, c.onClockExpired)
	return c
}

// Start applies the entry context. A non-empty room identifier (a
// shared link) routes straight into the multiplayer lobby.
func (c *Controller) Start(roomFromLink string) {
	if roomFromLink == "" {
		return
	}
	c.mu.Lock()
	c.roomCode = strings.ToUpper(strings.TrimSpace(roomFromLink))
	c.mu.Unlock()
	_ = c.SelectMode(ModeMultiplayer)
}

// SelectMode leaves the title screen. Multiplayer dials the realtime
// channel; a dial failure is reported and the session stays on title.
func (c *Controller) SelectMode(mode Mode) error {
	c.mu.Lock()
	if c.state != StateTitle {
		c.mu.Unlock()
		return errBadTransition
	}
	c.mode = mode
	if mode == ModeSingle {
		c.state = StateOptionsSelect
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if c.cfg.NewChannel == nil {
		c.cfg.Notify("multiplayer is not available")
		return errors.New("no channel factory configured")
	}
	ch, err := c.cfg.NewChannel(c)
	if err != nil {
		c.cfg.Notify("Error connecting to server: " + err.Error())
		c.mu.Lock()
		c.mode = ModeSingle
		c.mu.Unlock()
		return err
	}
	c.mu.Lock()
	c.channel = ch
	c.state = StateLobby
	c.mu.Unlock()
	return nil
}

// CreateRoom records the host's name and moves on to round options;
// the room itself is provisioned by StartMultiplayerHost.
func (c *Controller) CreateRoom(playerName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateLobby {
		return errBadTransition
	}
	c.playerName = playerName
	c.isHost = true
	c.state = StateOptionsSelect
	return nil
}

// StartSinglePlayer fetches the first round and enters play. A fetch
// failure is reported and leaves the state unchanged.
func (c *Controller) StartSinglePlayer(ctx context.Context, rounds int) error {
	c.mu.Lock()
	if c.state != StateOptionsSelect || c.mode != ModeSingle {
		c.mu.Unlock()
		return errBadTransition
	}
	c.mu.Unlock()

	round, err := c.fetchRound(ctx)
	if err != nil {
		c.cfg.Notify("Error loading game: " + err.Error())
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRounds = rounds
	c.currentRound = 1
	c.records = nil
	c.loadRoundLocked(round)
	c.state = StatePlaying
	return nil
}

// StartMultiplayerHost provisions a room at the data service and joins
// its realtime channel.
func (c *Controller) StartMultiplayerHost(ctx context.Context, rounds, roundDurationSec int) error {
	c.mu.Lock()
	if c.state != StateOptionsSelect || c.mode != ModeMultiplayer || !c.isHost {
		c.mu.Unlock()
		return errBadTransition
	}
	name := c.playerName
	c.mu.Unlock()

	resp, err := c.cfg.Data.CreateRoom(ctx, c.cfg.Kind, wire.CreateRoomRequest{
		PlayerName:    name,
		NumRounds:     rounds,
		RoundDuration: roundDurationSec,
	})
	if err != nil {
		c.cfg.Notify("Error creating room: " + err.Error())
		return err
	}

	c.mu.Lock()
	c.roomCode = resp.RoomCode
	c.preloaded = resp.Rounds
	c.totalRounds = rounds
	c.roundDur = resp.RoundDuration
	c.players = resp.Players
	c.records = nil
	ch := c.channel
	c.state = StateRoomSetup
	c.mu.Unlock()

	if ch != nil {
		if err := ch.JoinRoom(resp.RoomCode, name); err != nil {
			c.cfg.Notify("Error joining room: " + err.Error())
		}
	}
	return nil
}

// JoinRoom joins an existing room as a guest.
func (c *Controller) JoinRoom(ctx context.Context, code, playerName string) error {
	c.mu.Lock()
	if c.state != StateLobby {
		c.mu.Unlock()
		return errBadTransition
	}
	c.mu.Unlock()

	code = strings.ToUpper(strings.TrimSpace(code))
	resp, err := c.cfg.Data.JoinRoom(ctx, code, playerName)
	if err != nil {
		c.cfg.Notify("Error joining room: " + err.Error())
		return err
	}

	c.mu.Lock()
	c.roomCode = code
	c.playerName = playerName
	c.preloaded = resp.Rounds
	c.totalRounds = resp.NumRounds
	c.roundDur = resp.RoundDuration
	c.players = resp.Players
	c.records = nil
	ch := c.channel
	c.state = StateRoomSetup
	c.mu.Unlock()

	if ch != nil {
		if err := ch.JoinRoom(code, playerName); err != nil {
			c.cfg.Notify("Error joining room: " + err.Error())
		}
	}
	return nil
}

// StartGame asks the authority to start the rounds. Only the host's
// request is honored; the rejection for anyone else arrives as a
// channel error event and is suppressed there.
func (c *Controller) StartGame() error {
	c.mu.Lock()
	ch, code, name := c.channel, c.roomCode, c.playerName
	c.mu.Unlock()
	if ch == nil {
		return errBadTransition
	}
	return ch.StartGame(code, name)
}

// SubmitGuess scores the player's guess. The raw input is validated
// locally first; one submission is permitted per round and any further
// call is a no-op.
func (c *Controller) SubmitGuess(ctx context.Context, raw string) error {
	c.mu.Lock()
	if c.state != StatePlaying || c.phase != PhaseGuessing {
		c.mu.Unlock()
		return errBadTransition
	}
	if c.hasSubmitted {
		c.mu.Unlock()
		return nil
	}
	guess, err := parseGuess(raw, c.cfg.Kind)
	if err != nil {
		c.mu.Unlock()
		c.cfg.Notify(invalidGuessMessage(c.cfg.Kind))
		return err
	}
	mode := c.mode
	round := c.currentRound
	actual := c.current.Actual
	c.mu.Unlock()

	if mode == ModeSingle {
		score, diff, err := c.cfg.Data.CalculateScore(ctx, c.cfg.Kind, actual, guess)
		if err != nil {
			c.cfg.Notify("Error calculating score: " + err.Error())
			return err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.state != StatePlaying || c.currentRound != round || c.hasSubmitted {
			return nil
		}
		c.hasSubmitted = true
		c.appendRecordLocked(score, diff, actual, &guess)
		c.revealLocked()
		return nil
	}

	c.mu.Lock()
	ch, code, name := c.channel, c.roomCode, c.playerName
	c.mu.Unlock()
	if ch == nil {
		return errBadTransition
	}
	if err := ch.SubmitGuess(code, name, round-1, guess); err != nil {
		c.cfg.Notify("Error submitting guess: " + err.Error())
		return err
	}

	// Score locally too, for immediate feedback; the authority runs
	// the identical formula for the leaderboard.
	score, diff := localScore(c.cfg.Kind, actual, guess)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePlaying || c.currentRound != round || c.hasSubmitted {
		return nil
	}
	c.hasSubmitted = true
	c.appendRecordLocked(score, diff, actual, &guess)
	return nil
}

// NextRound advances past a revealed round: the next fetch in
// single-player, a command to the authority in multiplayer, or the
// final screen after the last round.
func (c *Controller) NextRound(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StatePlaying || c.phase != PhaseRevealed {
		c.mu.Unlock()
		return errBadTransition
	}
	mode := c.mode
	finished := c.currentRound >= c.totalRounds
	if finished && mode == ModeSingle {
		c.stopAutoPlayLocked()
		c.state = StateFinal
		c.mu.Unlock()
		c.clock.Stop()
		return nil
	}
	c.mu.Unlock()

	if mode == ModeSingle {
		round, err := c.fetchRound(ctx)
		if err != nil {
			c.cfg.Notify("Error loading game: " + err.Error())
			return err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.state != StatePlaying {
			return nil
		}
		c.currentRound++
		c.loadRoundLocked(round)
		return nil
	}

	// Multiplayer always defers to the authority, final round included:
	// it answers with the next round or with game over, and
	// HandleGameOver drives the Final transition for every player.
	c.mu.Lock()
	ch, code := c.channel, c.roomCode
	c.mu.Unlock()
	if ch == nil {
		return errBadTransition
	}
	return ch.NextRound(code)
}

// SendChat relays a chat line to the room.
func (c *Controller) SendChat(text string) error {
	c.mu.Lock()
	ch, code, name := c.channel, c.roomCode, c.playerName
	c.mu.Unlock()
	if ch == nil {
		return errBadTransition
	}
	return ch.SendChat(code, name, text)
}

// Restart discards the whole session and returns to title. In
// multiplayer a best-effort leave notice is sent before the channel
// closes.
func (c *Controller) Restart() {
	c.Teardown()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateTitle
	c.phase = PhaseGuessing
	c.mode = ModeSingle
	c.totalRounds = 0
	c.currentRound = 0
	c.records = nil
	c.current = wire.Round{}
	c.hasCurrent = false
	c.hasSubmitted = false
	c.rep = nil
	c.roomCode = ""
	c.playerName = ""
	c.isHost = false
	c.players = nil
	c.leaderboard = nil
	c.preloaded = nil
	c.chat = nil
	c.eval = nil
	c.evalPending = false
}

// Teardown releases every owned resource: the clock tick, the
// auto-play tick, and the realtime channel. Safe on any exit path.
func (c *Controller) Teardown() {
	c.mu.Lock()
	c.stopAutoPlayLocked()
	ch, code, name := c.channel, c.roomCode, c.playerName
	c.channel = nil
	c.mu.Unlock()

	c.clock.Stop()
	if ch != nil {
		if err := ch.LeaveRoom(code, name); err != nil {
			logging.Debugf("leave room: %v", err)
		}
		_ = ch.Close()
	}
}

// Replay navigation. Manual navigation always stops auto-play first;
// out-of-phase calls are no-ops rather than caller errors.

func (c *Controller) StepForward() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopAutoPlayLocked()
	if c.state != StatePlaying || c.rep == nil {
		return
	}
	if _, halted := c.rep.StepForward(); halted {
		log.Printf("replay halted: unplayable move at index %d", c.rep.Cursor())
	}
}

func (c *Controller) StepBackward() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopAutoPlayLocked()
	if c.state != StatePlaying || c.rep == nil {
		return
	}
	c.rep.StepBackward()
}

func (c *Controller) JumpToStart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopAutoPlayLocked()
	if c.state != StatePlaying || c.rep == nil {
		return
	}
	c.rep.JumpTo(0)
}

func (c *Controller) JumpToEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopAutoPlayLocked()
	if c.state != StatePlaying || c.rep == nil {
		return
	}
	c.rep.JumpTo(c.rep.Len())
}

// ToggleAutoPlay starts or stops the fixed-cadence forward stepper.
// The stepper clears itself at the end of the move list or when replay
// halts on malformed data.
func (c *Controller) ToggleAutoPlay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePlaying || c.rep == nil {
		return
	}
	if c.autoPlaying {
		c.stopAutoPlayLocked()
		return
	}
	c.autoPlaying = true
	rep := c.rep
	go c.autoPlayLoop(rep)
}

func (c *Controller) autoPlayLoop(rep *replay.Engine) {
	ticker := time.NewTicker(autoPlayInterval)
	defer ticker.Stop()
	for range ticker.C {
		c.mu.Lock()
		if !c.autoPlaying || c.rep != rep {
			c.mu.Unlock()
			return
		}
		advanced, halted := rep.StepForward()
		if !advanced {
			c.autoPlaying = false
			if halted {
				log.Printf("replay halted: unplayable move at index %d", rep.Cursor())
			}
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
	}
}

func (c *Controller) stopAutoPlayLocked() {
	c.autoPlaying = false
}

// internal helpers

func (c *Controller) fetchRound(ctx context.Context) (wire.Round, error) {
	if c.cfg.Kind == GuessEvaluation {
		return c.cfg.Data.RandomPosition(ctx)
	}
	return c.cfg.Data.RandomGame(ctx)
}

// loadRoundLocked installs a round: fresh replay engine, guessing
// phase, cleared submission and analysis state.
func (c *Controller) loadRoundLocked(r wire.Round) {
	c.stopAutoPlayLocked()
	c.current = r
	c.hasCurrent = true
	c.hasSubmitted = false
	c.phase = PhaseGuessing
	c.eval = nil
	c.evalPending = false
	if r.Moves != "" {
		c.rep = replay.New(pgn.Parse(r.Moves))
	} else {
		c.rep = nil
	}
	if r.Moves == "" && r.FEN == "" {
		log.Printf("round %d has no moves and no position", c.currentRound)
	}
}

// appendRecordLocked appends the outcome for the current round.
// Records stay in strictly increasing round order; a duplicate is
// dropped rather than appended out of order.
func (c *Controller) appendRecordLocked(score int, diff, actual float64, guess *float64) {
	if n := len(c.records); n > 0 && c.records[n-1].Round >= c.currentRound {
		return
	}
	c.records = append(c.records, RoundRecord{
		Round:      c.currentRound,
		Score:      score,
		Difference: diff,
		Actual:     actual,
		Guess:      guess,
		White:      c.current.White,
		Black:      c.current.Black,
		WhiteElo:   c.current.WhiteElo,
		BlackElo:   c.current.BlackElo,
		FEN:        c.current.FEN,
	})
}

// revealLocked transitions guessing -> revealed. Idempotent: the clock
// expiry, the authority's all-submitted, and its time-up notification
// all funnel here and whichever arrives first wins. A round with no
// submission gets its zero-score record here.
func (c *Controller) revealLocked() {
	if c.state != StatePlaying || c.phase == PhaseRevealed {
		return
	}
	c.phase = PhaseRevealed
	if n := len(c.records); n == 0 || c.records[n-1].Round < c.currentRound {
		c.appendRecordLocked(0, 0, c.current.Actual, nil)
	}
	c.startAnalysisLocked()
}

// startAnalysisLocked kicks off the engine evaluation of the revealed
// position. Failures leave the panel pending forever; that is the
// intended degradation.
func (c *Controller) startAnalysisLocked() {
	if c.cfg.Kind != GuessEvaluation || c.cfg.Evaluator == nil || c.evalPending {
		return
	}
	fen := c.current.FEN
	if fen == "" {
		return
	}
	c.evalPending = true
	round := c.currentRound
	go func() {
		ch, err := c.cfg.Evaluator.Analyze(context.Background(), fen, c.cfg.SearchDepth)
		if err != nil {
			logging.Debugf("engine analysis: %v", err)
			return
		}
		res, ok := <-ch
		if !ok {
			return
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.currentRound != round || !c.evalPending {
			return
		}
		c.eval = &res
	}()
}

func (c *Controller) onClockExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revealLocked()
}

func parseGuess(raw string, kind Kind) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrInvalidGuess
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGuess, raw)
	}
	if kind == GuessRating {
		v = float64(int(v))
	}
	return v, nil
}

func invalidGuessMessage(kind Kind) string {
	if kind == GuessEvaluation {
		return "Please enter a valid evaluation (e.g., +1.5, -2.3)"
	}
	return "Please enter a valid Elo rating"
}

// localScore runs the shared scoring formula, the same one the room
// authority applies for its leaderboard.
func localScore(kind Kind, actual, guess float64) (int, float64) {
	if kind == GuessEvaluation {
		return scoring.Evaluation(actual, guess)
	}
	return scoring.Rating(int(actual), int(guess))
}

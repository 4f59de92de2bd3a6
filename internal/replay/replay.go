// Package replay drives a single chess position back and forth over an
// immutable SAN token sequence.
package replay

import (
	"github.com/corentings/chess/v2"
)

// Engine owns one live position and a cursor counting how many tokens
// of the sequence have been applied to it. The rendered position is
// always re-derived from the cursor; the two cannot drift apart.
//
// The underlying move engine only applies moves forward, so backward
// stepping and jumps rebuild the position from the start. Move lists
// are small enough (tens to low hundreds) that the O(cursor) rebuild
// is not worth an undo stack.
type Engine struct {
	game   *chess.Game
	moves  []string
	cursor int
}

// New creates an engine over the given token sequence, positioned at
// the standard starting arrangement.
func New(moves []string) *Engine {
	return &Engine{
		game:  chess.NewGame(),
		moves: moves,
	}
}

// Reset returns the live position to the starting arrangement.
func (e *Engine) Reset() {
	e.game = chess.NewGame()
	e.cursor = 0
}

// StepForward applies the next token. It reports advanced=false at the
// end of the sequence, and halted=true when the token is not a legal
// move in the current position; in both cases the cursor stays put.
func (e *Engine) StepForward() (advanced, halted bool) {
	if e.cursor >= len(e.moves) {
		return false, false
	}
	if err := e.game.PushNotationMove(e.moves[e.cursor], chess.AlgebraicNotation{}, nil); err != nil {
		return false, true
	}
	e.cursor++
	return true, false
}

// StepBackward rewinds one token by replaying from the start. It is a
// no-op at the beginning of the sequence.
func (e *Engine) StepBackward() bool {
	if e.cursor == 0 {
		return false
	}
	e.rebuild(e.cursor - 1)
	return true
}

// JumpTo replays to the given index, clamped into [0, Len].
func (e *Engine) JumpTo(target int) {
	if target < 0 {
		target = 0
	}
	if target > len(e.moves) {
		target = len(e.moves)
	}
	e.rebuild(target)
}

// rebuild resets the position and replays tokens [0, target). A token
// that fails to apply ends the replay early; the cursor then reflects
// the last token that did apply.
func (e *Engine) rebuild(target int) {
	e.game = chess.NewGame()
	e.cursor = 0
	for e.cursor < target {
		if err := e.game.PushNotationMove(e.moves[e.cursor], chess.AlgebraicNotation{}, nil); err != nil {
			return
		}
		e.cursor++
	}
}

// Cursor returns how many tokens are applied to the live position.
func (e *Engine) Cursor() int { return e.cursor }

// Len returns the number of tokens in the sequence.
func (e *Engine) Len() int { return len(e.moves) }

// FEN returns the encoding of the live position.
func (e *Engine) FEN() string { return e.game.FEN() }

// Turn returns the side to move in the live position.
func (e *Engine) Turn() chess.Color { return e.game.Position().Turn() }

package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var italian = []string{"e4", "e5", "Nf3", "Nc6", "Bc4", "Bc5"}

func TestStepForwardToEnd(t *testing.T) {
	e := New(italian)
	for i := range italian {
		advanced, halted := e.StepForward()
		require.True(t, advanced, "move %d", i)
		require.False(t, halted)
	}
	assert.Equal(t, len(italian), e.Cursor())

	// At the end a further step is a silent no-op.
	advanced, halted := e.StepForward()
	assert.False(t, advanced)
	assert.False(t, halted)
	assert.Equal(t, len(italian), e.Cursor())
}

func TestStepBackwardRewindsToStart(t *testing.T) {
	for n := 0; n <= len(italian); n++ {
		e := New(italian[:n])
		e.JumpTo(n)
		require.Equal(t, n, e.Cursor())

		for i := 0; i < n; i++ {
			require.True(t, e.StepBackward())
		}
		assert.Equal(t, 0, e.Cursor())
		assert.Equal(t, startFEN, e.FEN())

		// One more is a silent no-op.
		assert.False(t, e.StepBackward())
	}
}

func TestJumpToIdempotent(t *testing.T) {
	e := New(italian)
	e.JumpTo(4)
	once := e.FEN()
	e.JumpTo(4)
	assert.Equal(t, once, e.FEN())
	assert.Equal(t, 4, e.Cursor())
}

func TestJumpToClamps(t *testing.T) {
	e := New(italian)
	e.JumpTo(100)
	assert.Equal(t, len(italian), e.Cursor())
	e.JumpTo(-5)
	assert.Equal(t, 0, e.Cursor())
	assert.Equal(t, startFEN, e.FEN())
}

func TestIllegalTokenHaltsWithoutAdvancing(t *testing.T) {
	e := New([]string{"e4", "Qh5", "Nc6"}) // Qh5 is not legal for Black
	advanced, halted := e.StepForward()
	require.True(t, advanced)
	require.False(t, halted)
	fen := e.FEN()

	advanced, halted = e.StepForward()
	assert.False(t, advanced)
	assert.True(t, halted)
	assert.Equal(t, 1, e.Cursor())
	assert.Equal(t, fen, e.FEN(), "halted step must not touch the position")
}

func TestReset(t *testing.T) {
	e := New(italian)
	e.JumpTo(3)
	e.Reset()
	assert.Equal(t, 0, e.Cursor())
	assert.Equal(t, startFEN, e.FEN())
}

func TestForwardBackwardAgree(t *testing.T) {
	e := New(italian)
	fens := []string{e.FEN()}
	for {
		advanced, _ := e.StepForward()
		if !advanced {
			break
		}
		fens = append(fens, e.FEN())
	}
	require.Len(t, fens, len(italian)+1)

	for i := len(italian) - 1; i >= 0; i-- {
		require.True(t, e.StepBackward())
		assert.Equal(t, fens[i], e.FEN(), "cursor %d", i)
	}
}

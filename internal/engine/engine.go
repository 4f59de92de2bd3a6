// Package engine runs a UCI chess engine as a subprocess and asks it
// for position evaluations. One request runs at a time; the engine
// process stays warm between requests.
package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/corentings/chess/v2"

	"chessguessr/internal/logging"
	"chessguessr/internal/session"
)

const (
	handshakeTimeout = 5 * time.Second

	// analyzeTimeout bounds the silence between engine lines during a
	// search, not the search itself: a thinking engine keeps emitting
	// info lines.
	analyzeTimeout = 30 * time.Second
)

// Engine wraps one UCI subprocess.
type Engine struct {
	path string

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	lines   chan string
	scanErr error
}

// New starts the engine binary and completes the UCI handshake.
func New(path string) (*Engine, error) {
	cmd := exec.Command(path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", path, err)
	}

	e := &Engine{
		path:  path,
		cmd:   cmd,
		stdin: stdin,
		lines: make(chan string, 64),
	}
	// Reading on a separate goroutine lets every consumer put a
	// deadline on the next line, so a mute binary cannot wedge the
	// handshake or a search.
	go func(out io.Reader) {
		sc := bufio.NewScanner(out)
		for sc.Scan() {
			e.lines <- sc.Text()
		}
		e.scanErr = sc.Err()
		close(e.lines)
	}(stdout)
	if err := e.handshake(); err != nil {
		_ = cmd.Process.Kill()
		return nil, err
	}
	return e, nil
}

func (e *Engine) handshake() error {
	if err := e.writeLine("uci"); err != nil {
		return err
	}
	if err := e.expect("uciok", handshakeTimeout); err != nil {
		return fmt.Errorf("uci handshake with %s: %w", e.path, err)
	}
	if err := e.writeLine("isready"); err != nil {
		return err
	}
	return e.expect("readyok", handshakeTimeout)
}

// Analyze evaluates the position to the given depth. The returned
// channel delivers at most one result and closes.
func (e *Engine) Analyze(ctx context.Context, fen string, depth int) (<-chan session.Evaluation, error) {
	if fen == "" {
		return nil, errors.New("empty position")
	}
	out := make(chan session.Evaluation, 1)
	go func() {
		defer close(out)
		ev, err := e.analyze(fen, depth)
		if err != nil {
			logging.Debugf("engine: %v", err)
			return
		}
		select {
		case out <- ev:
		case <-ctx.Done():
		}
	}()
	return out, nil
}

func (e *Engine) analyze(fen string, depth int) (session.Evaluation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var ev session.Evaluation
	if err := e.writeLine("ucinewgame"); err != nil {
		return ev, err
	}
	if err := e.writeLine("position fen " + fen); err != nil {
		return ev, err
	}
	if err := e.writeLine(fmt.Sprintf("go depth %d", depth)); err != nil {
		return ev, err
	}

	for {
		line, err := e.readLine(analyzeTimeout)
		if err != nil {
			return ev, err
		}
		if cp, mate, ok := parseScore(line); ok {
			if mate != nil {
				ev.Mate = *mate
				ev.Pawns = 0
			} else {
				ev.Mate = 0
				ev.Pawns = float64(*cp) / 100
			}
		}
		if best, ok := parseBestMove(line); ok {
			ev.BestMove = sanForUCI(fen, best)
			return ev, nil
		}
	}
}

// Close asks the engine to quit and reaps the process.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_ = e.writeLine("quit")
	_ = e.stdin.Close()
	return e.cmd.Wait()
}

func (e *Engine) writeLine(s string) error {
	_, err := io.WriteString(e.stdin, s+"\n")
	return err
}

// readLine delivers the next engine line or fails once the engine has
// been silent for the whole timeout.
func (e *Engine) readLine(timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case line, ok := <-e.lines:
		if !ok {
			if e.scanErr != nil {
				return "", e.scanErr
			}
			return "", errors.New("engine closed its output")
		}
		return line, nil
	case <-timer.C:
		return "", fmt.Errorf("engine silent for %s", timeout)
	}
}

func (e *Engine) expect(token string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		line, err := e.readLine(time.Until(deadline))
		if err != nil {
			return fmt.Errorf("waiting for %q: %w", token, err)
		}
		if strings.HasPrefix(line, token) {
			return nil
		}
	}
}

// parseScore extracts the score from an info line. Exactly one of cp
// and mate is set. The value is from the side to move's perspective,
// as UCI defines it.
func parseScore(line string) (cp, mate *int, ok bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "info" {
		return nil, nil, false
	}
	for i := 0; i < len(fields)-2; i++ {
		if fields[i] != "score" {
			continue
		}
		v, err := strconv.Atoi(fields[i+2])
		if err != nil {
			return nil, nil, false
		}
		switch fields[i+1] {
		case "cp":
			return &v, nil, true
		case "mate":
			return nil, &v, true
		}
		return nil, nil, false
	}
	return nil, nil, false
}

// parseBestMove extracts the move from a bestmove line.
func parseBestMove(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) >= 2 && fields[0] == "bestmove" {
		return fields[1], true
	}
	return "", false
}

// WhitePerspective converts a side-to-move evaluation to White's
// point of view, flipping the sign when Black is to move.
func WhitePerspective(ev session.Evaluation, fen string) session.Evaluation {
	fields := strings.Fields(fen)
	if len(fields) > 1 && fields[1] == "b" {
		ev.Pawns = -ev.Pawns
		ev.Mate = -ev.Mate
	}
	return ev
}

// sanForUCI renders a UCI move in algebraic notation for the given
// position. The raw UCI string is the fallback when anything about
// the position is off.
func sanForUCI(fen, uci string) string {
	fenOpt, err := chess.FEN(fen)
	if err != nil {
		return uci
	}
	game := chess.NewGame(fenOpt)
	move, err := chess.UCINotation{}.Decode(game.Position(), uci)
	if err != nil {
		return uci
	}
	return chess.AlgebraicNotation{}.Encode(game.Position(), move)
}

package engine

import (
	"errors"
	"strings"
	"testing"
	"time"

	"chessguessr/internal/session"
)

func TestExpectTimesOutOnSilentEngine(t *testing.T) {
	e := &Engine{lines: make(chan string, 1)}
	err := e.expect("uciok", 50*time.Millisecond)
	if err == nil {
		t.Fatal("expect returned for an engine that never spoke")
	}
	if !strings.Contains(err.Error(), "silent") {
		t.Fatalf("err = %v, want a silence timeout", err)
	}
}

func TestExpectSkipsToToken(t *testing.T) {
	e := &Engine{lines: make(chan string, 4)}
	e.lines <- "id name testengine"
	e.lines <- "option name Hash type spin"
	e.lines <- "uciok"
	if err := e.expect("uciok", time.Second); err != nil {
		t.Fatalf("expect: %v", err)
	}
}

func TestReadLineReportsClosedOutput(t *testing.T) {
	e := &Engine{lines: make(chan string)}
	close(e.lines)
	if _, err := e.readLine(time.Second); err == nil {
		t.Fatal("no error after output closed")
	}

	e = &Engine{lines: make(chan string)}
	e.scanErr = errors.New("broken pipe")
	close(e.lines)
	if _, err := e.readLine(time.Second); !errors.Is(err, e.scanErr) {
		t.Fatalf("err = %v, want the scanner error", err)
	}
}

func TestParseScoreCP(t *testing.T) {
	line := "info depth 20 seldepth 28 multipv 1 score cp 35 nodes 2187452 pv e2e4 e7e5"
	cp, mate, ok := parseScore(line)
	if !ok || cp == nil || mate != nil {
		t.Fatalf("parse failed: cp=%v mate=%v ok=%v", cp, mate, ok)
	}
	if *cp != 35 {
		t.Fatalf("cp = %d, want 35", *cp)
	}
}

func TestParseScoreNegativeCP(t *testing.T) {
	cp, _, ok := parseScore("info depth 12 score cp -240 nodes 99")
	if !ok || cp == nil || *cp != -240 {
		t.Fatalf("cp = %v ok = %v, want -240", cp, ok)
	}
}

func TestParseScoreMate(t *testing.T) {
	cp, mate, ok := parseScore("info depth 20 score mate -3 nodes 1234 pv h5f7")
	if !ok || mate == nil || cp != nil {
		t.Fatalf("parse failed: cp=%v mate=%v ok=%v", cp, mate, ok)
	}
	if *mate != -3 {
		t.Fatalf("mate = %d, want -3", *mate)
	}
}

func TestParseScoreIgnoresOtherLines(t *testing.T) {
	for _, line := range []string{
		"bestmove e2e4 ponder e7e5",
		"readyok",
		"info string NNUE evaluation using nn-ad9b42354671.nnue",
		"",
	} {
		if _, _, ok := parseScore(line); ok {
			t.Fatalf("parseScore accepted %q", line)
		}
	}
}

func TestParseBestMove(t *testing.T) {
	best, ok := parseBestMove("bestmove g1f3 ponder d7d5")
	if !ok || best != "g1f3" {
		t.Fatalf("best = %q ok = %v", best, ok)
	}
	if _, ok := parseBestMove("info depth 5 score cp 10"); ok {
		t.Fatal("info line accepted as bestmove")
	}
}

func TestWhitePerspective(t *testing.T) {
	whiteFEN := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	blackFEN := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"

	ev := session.Evaluation{Pawns: 0.35, Mate: 0}
	if got := WhitePerspective(ev, whiteFEN); got.Pawns != 0.35 {
		t.Fatalf("white to move flipped: %v", got.Pawns)
	}
	if got := WhitePerspective(ev, blackFEN); got.Pawns != -0.35 {
		t.Fatalf("black to move not flipped: %v", got.Pawns)
	}
	mate := session.Evaluation{Mate: 3}
	if got := WhitePerspective(mate, blackFEN); got.Mate != -3 {
		t.Fatalf("mate sign not flipped: %d", got.Mate)
	}
}

func TestSanForUCI(t *testing.T) {
	start := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	if got := sanForUCI(start, "g1f3"); got != "Nf3" {
		t.Fatalf("san = %q, want Nf3", got)
	}
	if got := sanForUCI(start, "e2e4"); got != "e4" {
		t.Fatalf("san = %q, want e4", got)
	}
	// Unplayable input falls back to the raw UCI string.
	if got := sanForUCI(start, "e2e5"); got != "e2e5" {
		t.Fatalf("fallback = %q, want raw uci", got)
	}
	if got := sanForUCI("not a fen", "e2e4"); got != "e2e4" {
		t.Fatalf("bad fen fallback = %q", got)
	}
}

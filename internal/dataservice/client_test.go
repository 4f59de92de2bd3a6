package dataservice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"chessguessr/internal/session"
	"chessguessr/internal/wire"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/random-game", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(wire.RoundResponse{
			Round: wire.Round{Moves: "1. e4 e5", WhiteElo: 2000, BlackElo: 2100, Actual: 2050},
		})
	})
	mux.HandleFunc("/api/random-eval", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(wire.RoundResponse{Error: "no rounds available"})
	})
	mux.HandleFunc("/api/calculate-score", func(w http.ResponseWriter, r *http.Request) {
		var req wire.ScoreRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(wire.ScoreResponse{Score: 800, Difference: req.Actual - req.Guess})
	})
	mux.HandleFunc("/api/create-room", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(wire.RoomResponse{RoomCode: "AB12", NumRounds: 3, Players: []string{"alice"}})
	})
	mux.HandleFunc("/api/join-room/AB12", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(wire.RoomResponse{RoomCode: "AB12", NumRounds: 3, Players: []string{"alice"}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRandomGame(t *testing.T) {
	c := New(testServer(t).URL)
	round, err := c.RandomGame(context.Background())
	if err != nil {
		t.Fatalf("RandomGame: %v", err)
	}
	if round.Actual != 2050 || round.Moves == "" {
		t.Fatalf("round = %+v", round)
	}
}

func TestErrorFieldBecomesError(t *testing.T) {
	c := New(testServer(t).URL)
	_, err := c.RandomPosition(context.Background())
	if err == nil || err.Error() != "no rounds available" {
		t.Fatalf("err = %v, want the payload's error field", err)
	}
}

func TestCalculateScore(t *testing.T) {
	c := New(testServer(t).URL)
	score, diff, err := c.CalculateScore(context.Background(), session.GuessRating, 2050, 1900)
	if err != nil {
		t.Fatal(err)
	}
	if score != 800 || diff != 150 {
		t.Fatalf("score/diff = %d/%v", score, diff)
	}
}

func TestCreateAndJoinRoom(t *testing.T) {
	c := New(testServer(t).URL)
	made, err := c.CreateRoom(context.Background(), session.GuessRating, wire.CreateRoomRequest{PlayerName: "alice", NumRounds: 3})
	if err != nil {
		t.Fatal(err)
	}
	if made.RoomCode != "AB12" {
		t.Fatalf("room = %+v", made)
	}
	joined, err := c.JoinRoom(context.Background(), "AB12", "bob")
	if err != nil {
		t.Fatal(err)
	}
	if joined.NumRounds != 3 {
		t.Fatalf("snapshot = %+v", joined)
	}
}

func TestServerUnreachable(t *testing.T) {
	c := New("http://127.0.0.1:1")
	if _, err := c.RandomGame(context.Background()); err == nil {
		t.Fatal("expected a transport error")
	}
}

package wsclient

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chessguessr/internal/handlers"
	"chessguessr/internal/room"
	"chessguessr/internal/wire"
)

// recorder funnels every handled event into one channel so tests can
// assert on ordering with a timeout.
type recorder struct {
	events chan string
	errs   chan string
}

func newRecorder() *recorder {
	return &recorder{
		events: make(chan string, 64),
		errs:   make(chan string, 64),
	}
}

func (r *recorder) HandleConnected()              { r.events <- wire.EvtConnected }
func (r *recorder) HandleChannelError(msg string) { r.errs <- msg }
func (r *recorder) HandleRosterChanged([]string)  { r.events <- wire.EvtPlayerJoined }

func (r *recorder) HandleGameStarted(float64, int) { r.events <- wire.EvtGameStarted }

func (r *recorder) HandleRoundStarted(int, float64, int) { r.events <- wire.EvtRoundStarted }

func (r *recorder) HandleLeaderboard([]wire.LeaderboardEntry) { r.events <- wire.EvtLeaderboard }

func (r *recorder) HandleAllSubmitted() { r.events <- wire.EvtAllSubmitted }

func (r *recorder) HandleTimeUp([]wire.LeaderboardEntry) { r.events <- wire.EvtTimeUp }

func (r *recorder) HandleGameOver([]wire.LeaderboardEntry) { r.events <- wire.EvtGameOver }

func (r *recorder) HandleChat(wire.ChatEvent) { r.events <- wire.EvtChatMessage }

func (r *recorder) await(t *testing.T, want string) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case got := <-r.events:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

func (r *recorder) awaitError(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-r.errs:
		if got != want {
			t.Fatalf("error = %q, want %q", got, want)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for error %q", want)
	}
}

func testRoomServer(t *testing.T) (*room.Hub, string, string) {
	t.Helper()
	hub := room.NewHub()
	rm := hub.Create(room.KindRating, "alice", []wire.Round{
		{Moves: "1. e4 e5", Actual: 2050},
	}, 60)

	h := handlers.NewHandler(hub, nil)
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http"), rm.Code
}

func TestFullRoomFlow(t *testing.T) {
	_, url, code := testRoomServer(t)

	host := newRecorder()
	alice, err := Dial(url, host)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer alice.Close()
	host.await(t, wire.EvtConnected)

	if err := alice.JoinRoom(code, "alice"); err != nil {
		t.Fatal(err)
	}
	host.await(t, wire.EvtPlayerJoined)

	guest := newRecorder()
	bob, err := Dial(url, guest)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer bob.Close()
	guest.await(t, wire.EvtConnected)
	if err := bob.JoinRoom(code, "bob"); err != nil {
		t.Fatal(err)
	}
	guest.await(t, wire.EvtPlayerJoined)
	host.await(t, wire.EvtPlayerJoined)

	// Only the host may start.
	if err := bob.StartGame(code, "bob"); err != nil {
		t.Fatal(err)
	}
	guest.awaitError(t, wire.ErrOnlyHostCanStart)

	if err := alice.StartGame(code, "alice"); err != nil {
		t.Fatal(err)
	}
	host.await(t, wire.EvtGameStarted)
	guest.await(t, wire.EvtGameStarted)

	if err := alice.SubmitGuess(code, "alice", 0, 2000); err != nil {
		t.Fatal(err)
	}
	host.await(t, wire.EvtLeaderboard)
	if err := bob.SubmitGuess(code, "bob", 0, 1800); err != nil {
		t.Fatal(err)
	}
	host.await(t, wire.EvtAllSubmitted)
	guest.await(t, wire.EvtAllSubmitted)

	if err := alice.SendChat(code, "alice", "close one"); err != nil {
		t.Fatal(err)
	}
	guest.await(t, wire.EvtChatMessage)

	// Single-round room: advancing finishes the game.
	if err := alice.NextRound(code); err != nil {
		t.Fatal(err)
	}
	host.await(t, wire.EvtGameOver)
	guest.await(t, wire.EvtGameOver)
}

func TestUnknownRoomRejected(t *testing.T) {
	_, url, _ := testRoomServer(t)

	rec := newRecorder()
	c, err := Dial(url, rec)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.JoinRoom("ZZZZ", "ghost"); err != nil {
		t.Fatal(err)
	}
	rec.awaitError(t, "Room not found")
}

func TestDeliberateCloseIsQuiet(t *testing.T) {
	_, url, _ := testRoomServer(t)

	rec := newRecorder()
	c, err := Dial(url, rec)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	select {
	case msg := <-rec.errs:
		t.Fatalf("deliberate close surfaced %q", msg)
	case <-time.After(200 * time.Millisecond):
	}
}

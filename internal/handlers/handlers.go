package handlers

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"chessguessr/internal/room"
	"chessguessr/internal/scoring"
	"chessguessr/internal/storage"
	"chessguessr/internal/wire"
)

const (
	defaultRounds   = 5
	maxRounds       = 20
	defaultDuration = 60
	maxDuration     = 600
)

// Bank is the slice of the store the handlers draw rounds from.
// *storage.Store satisfies it.
type Bank interface {
	RandomGame(ctx context.Context) (storage.Game, error)
	RandomGames(ctx context.Context, n int) ([]storage.Game, error)
	RandomPosition(ctx context.Context) (storage.Position, error)
	RandomPositions(ctx context.Context, n int) ([]storage.Position, error)
	FetchStats(ctx context.Context) (storage.Stats, error)
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	Hub   *room.Hub
	Store Bank
}

// NewHandler creates a new handler instance
func NewHandler(hub *room.Hub, store Bank) *Handler {
	return &Handler{Hub: hub, Store: store}
}

// HandleRandomGame serves one game drawn from the bank, rating hidden
// in the actual field for the client to score against.
func (h *Handler) HandleRandomGame(w http.ResponseWriter, r *http.Request) {
	game, err := h.Store.RandomGame(r.Context())
	if err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, wire.RoundResponse{Error: err.Error()})
		return
	}
	WriteJSON(w, http.StatusOK, wire.RoundResponse{Round: gameRound(game)})
}

// HandleRandomEval serves one position with its stored evaluation.
func (h *Handler) HandleRandomEval(w http.ResponseWriter, r *http.Request) {
	pos, err := h.Store.RandomPosition(r.Context())
	if err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, wire.RoundResponse{Error: err.Error()})
		return
	}
	WriteJSON(w, http.StatusOK, wire.RoundResponse{Round: positionRound(pos)})
}

// HandleCalculateScore scores a rating guess.
func (h *Handler) HandleCalculateScore(w http.ResponseWriter, r *http.Request) {
	var req wire.ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSON(w, http.StatusBadRequest, wire.ScoreResponse{Error: "bad json"})
		return
	}
	score, diff := scoring.Rating(int(req.Actual), int(req.Guess))
	WriteJSON(w, http.StatusOK, wire.ScoreResponse{Score: score, Difference: diff})
}

// HandleCalculateEvalScore scores an evaluation guess.
func (h *Handler) HandleCalculateEvalScore(w http.ResponseWriter, r *http.Request) {
	var req wire.ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSON(w, http.StatusBadRequest, wire.ScoreResponse{Error: "bad json"})
		return
	}
	score, diff := scoring.Evaluation(req.Actual, req.Guess)
	WriteJSON(w, http.StatusOK, wire.ScoreResponse{Score: score, Difference: diff})
}

// HandleCreateRoom provisions a rating room with its rounds drawn up
// front, so every player guesses on identical games.
func (h *Handler) HandleCreateRoom(w http.ResponseWriter, r *http.Request) {
	h.createRoom(w, r, room.KindRating)
}

// HandleCreateEvalRoom provisions an evaluation room.
func (h *Handler) HandleCreateEvalRoom(w http.ResponseWriter, r *http.Request) {
	h.createRoom(w, r, room.KindEvaluation)
}

func (h *Handler) createRoom(w http.ResponseWriter, r *http.Request, kind room.Kind) {
	var req wire.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSON(w, http.StatusBadRequest, wire.RoomResponse{Error: "bad json"})
		return
	}
	name := strings.TrimSpace(req.PlayerName)
	if name == "" {
		WriteJSON(w, http.StatusBadRequest, wire.RoomResponse{Error: "player name required"})
		return
	}
	rounds := clamp(req.NumRounds, 1, maxRounds, defaultRounds)
	duration := clamp(req.RoundDuration, 10, maxDuration, defaultDuration)

	var (
		drawn []wire.Round
		err   error
	)
	if kind == room.KindEvaluation {
		var positions []storage.Position
		positions, err = h.Store.RandomPositions(r.Context(), rounds)
		for _, p := range positions {
			drawn = append(drawn, positionRound(p))
		}
	} else {
		var games []storage.Game
		games, err = h.Store.RandomGames(r.Context(), rounds)
		for _, g := range games {
			drawn = append(drawn, gameRound(g))
		}
	}
	if err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, wire.RoomResponse{Error: err.Error()})
		return
	}

	rm := h.Hub.Create(kind, name, drawn, duration)
	WriteJSON(w, http.StatusOK, wire.RoomResponse{
		RoomCode:      rm.Code,
		Rounds:        drawn,
		NumRounds:     rounds,
		RoundDuration: duration,
		Players:       rm.Players(),
	})
}

// HandleJoinRoom returns a snapshot of an existing room. Membership
// itself is established over the realtime channel.
func (h *Handler) HandleJoinRoom(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimPrefix(r.URL.Path, "/api/join-room/")
	rm, ok := h.Hub.Get(code)
	if !ok {
		WriteJSON(w, http.StatusNotFound, wire.RoomResponse{Error: room.ErrRoomNotFound.Error()})
		return
	}
	var req wire.JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSON(w, http.StatusBadRequest, wire.RoomResponse{Error: "bad json"})
		return
	}
	if strings.TrimSpace(req.PlayerName) == "" {
		WriteJSON(w, http.StatusBadRequest, wire.RoomResponse{Error: "player name required"})
		return
	}
	rm.Touch()
	rm.Mu.Lock()
	resp := wire.RoomResponse{
		RoomCode:      rm.Code,
		Rounds:        rm.Rounds,
		NumRounds:     len(rm.Rounds),
		RoundDuration: rm.RoundDuration,
	}
	rm.Mu.Unlock()
	resp.Players = rm.Players()
	WriteJSON(w, http.StatusOK, resp)
}

// HandleStats reports bank sizes and rooms played.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.FetchStats(r.Context())
	if err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"error": err.Error()})
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

func gameRound(g storage.Game) wire.Round {
	actual := g.AverageElo
	if actual == 0 {
		actual = (g.WhiteElo + g.BlackElo) / 2
	}
	return wire.Round{
		Moves:       g.Moves,
		White:       g.White,
		Black:       g.Black,
		WhiteElo:    g.WhiteElo,
		BlackElo:    g.BlackElo,
		Result:      g.Result,
		Opening:     g.Opening,
		TimeControl: g.TimeControl,
		Actual:      float64(actual),
	}
}

func positionRound(p storage.Position) wire.Round {
	return wire.Round{
		FEN:      p.FEN,
		White:    p.White,
		Black:    p.Black,
		WhiteElo: p.WhiteElo,
		BlackElo: p.BlackElo,
		Opening:  p.Opening,
		Actual:   p.Evaluation,
	}
}

func clamp(v, min, max, fallback int) int {
	if v == 0 {
		return fallback
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// ClientIP extracts the client IP from the request
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

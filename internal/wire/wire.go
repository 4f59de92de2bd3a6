// Package wire holds the request/response and realtime payload shapes
// shared by the room authority and its clients.
package wire

import "encoding/json"

// Round is one unit of "watch and guess": a full game for rating
// rounds, a static position for evaluation rounds. Actual is the
// hidden quantity the players guess (average rating, or evaluation in
// pawns).
type Round struct {
	Moves       string  `json:"moves,omitempty"`
	FEN         string  `json:"fen,omitempty"`
	White       string  `json:"white,omitempty"`
	Black       string  `json:"black,omitempty"`
	WhiteElo    int     `json:"whiteElo,omitempty"`
	BlackElo    int     `json:"blackElo,omitempty"`
	Result      string  `json:"result,omitempty"`
	Opening     string  `json:"opening,omitempty"`
	TimeControl string  `json:"timeControl,omitempty"`
	Actual      float64 `json:"actual"`
}

// LeaderboardEntry is one player's accumulated score.
type LeaderboardEntry struct {
	PlayerName string `json:"playerName"`
	Score      int    `json:"score"`
}

// Envelope frames every realtime message, commands and events alike.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals the payload into an envelope. Marshalling a
// plain struct cannot fail here, so the error is dropped.
func NewEnvelope(event string, payload any) Envelope {
	data, _ := json.Marshal(payload)
	return Envelope{Event: event, Data: data}
}

// ErrOnlyHostCanStart is the authority's rejection of a start-game
// command from a non-host. Clients suppress it for non-hosts.
const ErrOnlyHostCanStart = "Only host can start the game"

// Commands (client to authority).
const (
	CmdJoinRoom    = "join_room"
	CmdStartGame   = "start_game"
	CmdSubmitGuess = "submit_guess"
	CmdNextRound   = "next_round"
	CmdLeaveRoom   = "leave_room"
	CmdChatMessage = "chat_message"
)

// Events (authority to clients).
const (
	EvtConnected    = "connected"
	EvtError        = "error"
	EvtPlayerJoined = "player_joined"
	EvtJoinedRoom   = "joined_room"
	EvtGameStarted  = "game_started"
	EvtRoundStarted = "round_started"
	EvtLeaderboard  = "leaderboard_update"
	EvtAllSubmitted = "all_submitted"
	EvtTimeUp       = "time_up"
	EvtGameOver     = "game_over"
	EvtChatMessage  = "chat_message"
)

type JoinRoomCmd struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type StartGameCmd struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type SubmitGuessCmd struct {
	RoomCode   string  `json:"roomCode"`
	PlayerName string  `json:"playerName"`
	RoundIndex int     `json:"roundIndex"`
	Guess      float64 `json:"guess"`
}

type NextRoundCmd struct {
	RoomCode string `json:"roomCode"`
}

type LeaveRoomCmd struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type ChatCmd struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
	Text       string `json:"text"`
}

type ErrorEvent struct {
	Message string `json:"message"`
}

// RosterEvent carries the full roster; membership is always replaced
// wholesale, never merged.
type RosterEvent struct {
	Players []string `json:"players"`
}

type GameStartedEvent struct {
	RoundStart    float64 `json:"roundStart"`
	RoundDuration int     `json:"roundDuration"`
}

type RoundStartedEvent struct {
	RoundIndex    int     `json:"roundIndex"`
	RoundStart    float64 `json:"roundStart"`
	RoundDuration int     `json:"roundDuration"`
}

type LeaderboardEvent struct {
	Entries         []LeaderboardEntry `json:"entries"`
	PlayerSubmitted string             `json:"playerSubmitted,omitempty"`
}

type ChatEvent struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// HTTP shapes for the data service.

type RoundResponse struct {
	Round Round  `json:"round"`
	Error string `json:"error,omitempty"`
}

type ScoreRequest struct {
	Actual float64 `json:"actual"`
	Guess  float64 `json:"guess"`
}

type ScoreResponse struct {
	Score      int     `json:"score"`
	Difference float64 `json:"difference"`
	Error      string  `json:"error,omitempty"`
}

type CreateRoomRequest struct {
	PlayerName    string `json:"playerName"`
	NumRounds     int    `json:"numRounds"`
	RoundDuration int    `json:"roundDuration"`
}

type JoinRoomRequest struct {
	PlayerName string `json:"playerName"`
}

type RoomResponse struct {
	RoomCode      string   `json:"roomCode"`
	Rounds        []Round  `json:"rounds"`
	NumRounds     int      `json:"numRounds"`
	RoundDuration int      `json:"roundDuration"`
	Players       []string `json:"players"`
	Error         string   `json:"error,omitempty"`
}

// Package wsclient is the player's side of the realtime channel. It
// dials the server's /ws endpoint, turns inbound frames into
// session.EventHandler calls, and implements session.Channel for the
// outbound commands.
package wsclient

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chessguessr/internal/logging"
	"chessguessr/internal/session"
	"chessguessr/internal/wire"
)

const (
	dialTimeout = 10 * time.Second
	writeWait   = 10 * time.Second
)

// Client wraps one websocket connection to the room authority.
type Client struct {
	conn    *websocket.Conn
	handler session.EventHandler

	writeMu sync.Mutex
	once    sync.Once
	done    chan struct{}
}

// Dial connects to the server's websocket endpoint, e.g.
// "ws://localhost:8080/ws", and starts dispatching events.
func Dial(url string, handler session.EventHandler) (*Client, error) {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		conn:    conn,
		handler: handler,
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	defer c.conn.Close()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.handler.HandleChannelError("Connection to server lost")
			}
			return
		}
		var env wire.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			logging.Debugf("ws client: bad frame: %v", err)
			continue
		}
		c.dispatch(env)
	}
}

func (c *Client) dispatch(env wire.Envelope) {
	switch env.Event {
	case wire.EvtConnected:
		c.handler.HandleConnected()

	case wire.EvtError:
		var ev wire.ErrorEvent
		if err := json.Unmarshal(env.Data, &ev); err == nil {
			c.handler.HandleChannelError(ev.Message)
		}

	case wire.EvtPlayerJoined, wire.EvtJoinedRoom:
		var ev wire.RosterEvent
		if err := json.Unmarshal(env.Data, &ev); err == nil {
			c.handler.HandleRosterChanged(ev.Players)
		}

	case wire.EvtGameStarted:
		var ev wire.GameStartedEvent
		if err := json.Unmarshal(env.Data, &ev); err == nil {
			c.handler.HandleGameStarted(ev.RoundStart, ev.RoundDuration)
		}

	case wire.EvtRoundStarted:
		var ev wire.RoundStartedEvent
		if err := json.Unmarshal(env.Data, &ev); err == nil {
			c.handler.HandleRoundStarted(ev.RoundIndex, ev.RoundStart, ev.RoundDuration)
		}

	case wire.EvtLeaderboard:
		var ev wire.LeaderboardEvent
		if err := json.Unmarshal(env.Data, &ev); err == nil {
			c.handler.HandleLeaderboard(ev.Entries)
		}

	case wire.EvtAllSubmitted:
		c.handler.HandleAllSubmitted()

	case wire.EvtTimeUp:
		var ev wire.LeaderboardEvent
		if err := json.Unmarshal(env.Data, &ev); err == nil {
			c.handler.HandleTimeUp(ev.Entries)
		} else {
			c.handler.HandleTimeUp(nil)
		}

	case wire.EvtGameOver:
		var ev wire.LeaderboardEvent
		if err := json.Unmarshal(env.Data, &ev); err == nil {
			c.handler.HandleGameOver(ev.Entries)
		}

	case wire.EvtChatMessage:
		var ev wire.ChatEvent
		if err := json.Unmarshal(env.Data, &ev); err == nil {
			c.handler.HandleChat(ev)
		}

	default:
		logging.Debugf("ws client: unknown event %q", env.Event)
	}
}

// JoinRoom announces this player to the room.
func (c *Client) JoinRoom(code, player string) error {
	return c.send(wire.CmdJoinRoom, wire.JoinRoomCmd{RoomCode: code, PlayerName: player})
}

// StartGame asks the authority to begin round one.
func (c *Client) StartGame(code, player string) error {
	return c.send(wire.CmdStartGame, wire.StartGameCmd{RoomCode: code, PlayerName: player})
}

// SubmitGuess sends this player's guess for the given round index.
func (c *Client) SubmitGuess(code, player string, roundIndex int, guess float64) error {
	return c.send(wire.CmdSubmitGuess, wire.SubmitGuessCmd{
		RoomCode:   code,
		PlayerName: player,
		RoundIndex: roundIndex,
		Guess:      guess,
	})
}

// NextRound asks the authority to open the next round.
func (c *Client) NextRound(code string) error {
	return c.send(wire.CmdNextRound, wire.NextRoundCmd{RoomCode: code})
}

// LeaveRoom announces departure.
func (c *Client) LeaveRoom(code, player string) error {
	return c.send(wire.CmdLeaveRoom, wire.LeaveRoomCmd{RoomCode: code, PlayerName: player})
}

// SendChat relays a chat line.
func (c *Client) SendChat(code, player, text string) error {
	return c.send(wire.CmdChatMessage, wire.ChatCmd{RoomCode: code, PlayerName: player, Text: text})
}

// Close shuts the connection down; the read loop stops reporting
// errors once closing is deliberate.
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

func (c *Client) send(event string, payload any) error {
	data, err := json.Marshal(wire.NewEnvelope(event, payload))
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

var _ session.Channel = (*Client)(nil)

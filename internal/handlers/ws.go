package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"chessguessr/internal/logging"
	"chessguessr/internal/room"
	"chessguessr/internal/wire"
	"chessguessr/pkg/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	frameLimit = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Rooms are joined by shareable links from anywhere.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn is one player's realtime connection. The read loop dispatches
// commands to the room; the write pump drains the room's broadcast
// channel plus this connection's own error frames.
type wsConn struct {
	id   string
	conn *websocket.Conn

	out  chan []byte // room broadcasts and direct frames
	done chan struct{}

	current *room.Room
	player  string
}

// HandleWS upgrades the connection and runs the command loop until
// the client goes away.
func (h *Handler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Debugf("ws upgrade from %s: %v", ClientIP(r), err)
		return
	}

	c := &wsConn{
		id:   utils.RandomHex(8),
		conn: conn,
		out:  make(chan []byte, 32),
		done: make(chan struct{}),
	}
	logging.Debugf("ws %s connected from %s", c.id, ClientIP(r))

	go c.writePump()
	c.send(wire.EvtConnected, nil)
	c.readLoop(h.Hub)
}

func (c *wsConn) readLoop(hub *room.Hub) {
	defer func() {
		c.detach()
		close(c.done)
		_ = c.conn.Close()
		logging.Debugf("ws %s disconnected", c.id)
	}()

	c.conn.SetReadLimit(frameLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var env wire.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.sendError("bad frame")
			continue
		}
		c.dispatch(hub, env)
	}
}

func (c *wsConn) dispatch(hub *room.Hub, env wire.Envelope) {
	switch env.Event {
	case wire.CmdJoinRoom:
		var cmd wire.JoinRoomCmd
		if err := json.Unmarshal(env.Data, &cmd); err != nil {
			c.sendError("bad frame")
			return
		}
		rm, ok := hub.Get(cmd.RoomCode)
		if !ok {
			c.sendError(room.ErrRoomNotFound.Error())
			return
		}
		if err := rm.Join(cmd.PlayerName); err != nil {
			c.sendError(err.Error())
			return
		}
		c.detach()
		c.current, c.player = rm, cmd.PlayerName
		rm.AddWatcher(cmd.PlayerName, c.out)
		c.send(wire.EvtJoinedRoom, wire.RosterEvent{Players: rm.Players()})

	case wire.CmdStartGame:
		var cmd wire.StartGameCmd
		if err := json.Unmarshal(env.Data, &cmd); err != nil {
			c.sendError("bad frame")
			return
		}
		rm, ok := hub.Get(cmd.RoomCode)
		if !ok {
			c.sendError(room.ErrRoomNotFound.Error())
			return
		}
		if err := rm.Start(cmd.PlayerName); err != nil {
			c.sendError(err.Error())
		}

	case wire.CmdSubmitGuess:
		var cmd wire.SubmitGuessCmd
		if err := json.Unmarshal(env.Data, &cmd); err != nil {
			c.sendError("bad frame")
			return
		}
		rm, ok := hub.Get(cmd.RoomCode)
		if !ok {
			c.sendError(room.ErrRoomNotFound.Error())
			return
		}
		if err := rm.SubmitGuess(cmd.PlayerName, cmd.RoundIndex, cmd.Guess); err != nil {
			c.sendError(err.Error())
		}

	case wire.CmdNextRound:
		var cmd wire.NextRoundCmd
		if err := json.Unmarshal(env.Data, &cmd); err != nil {
			c.sendError("bad frame")
			return
		}
		rm, ok := hub.Get(cmd.RoomCode)
		if !ok {
			c.sendError(room.ErrRoomNotFound.Error())
			return
		}
		if err := rm.NextRound(); err != nil {
			c.sendError(err.Error())
		}

	case wire.CmdLeaveRoom:
		var cmd wire.LeaveRoomCmd
		if err := json.Unmarshal(env.Data, &cmd); err != nil {
			c.sendError("bad frame")
			return
		}
		if rm, ok := hub.Get(cmd.RoomCode); ok {
			rm.RemoveWatcher(cmd.PlayerName)
			rm.Leave(cmd.PlayerName)
		}
		c.current, c.player = nil, ""

	case wire.CmdChatMessage:
		var cmd wire.ChatCmd
		if err := json.Unmarshal(env.Data, &cmd); err != nil {
			c.sendError("bad frame")
			return
		}
		if rm, ok := hub.Get(cmd.RoomCode); ok {
			rm.Chat(cmd.PlayerName, cmd.Text)
		}

	default:
		c.sendError("unknown command")
	}
}

// detach removes this connection from its room, treating a dropped
// connection as a leave.
func (c *wsConn) detach() {
	if c.current == nil {
		return
	}
	c.current.RemoveWatcher(c.player)
	c.current.Leave(c.player)
	c.current, c.player = nil, ""
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsConn) send(event string, payload any) {
	data, _ := json.Marshal(wire.NewEnvelope(event, payload))
	select {
	case c.out <- data:
	default:
	}
}

func (c *wsConn) sendError(message string) {
	c.send(wire.EvtError, wire.ErrorEvent{Message: message})
}

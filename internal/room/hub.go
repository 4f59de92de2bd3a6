package room

import (
	"errors"
	"strings"
	"time"

	"chessguessr/internal/wire"
	"chessguessr/pkg/utils"
)

const (
	codeLength   = 4
	idleLifetime = 2 * time.Hour
)

// ErrRoomNotFound is the reply for unknown or expired room codes. The
// capitalized message is what clients display verbatim.
var ErrRoomNotFound = errors.New("Room not found")

// NewHub creates a new room hub with cleanup goroutine
func NewHub() *Hub {
	h := &Hub{Rooms: make(map[string]*Room)}
	// cleanup goroutine
	go func() {
		for {
			time.Sleep(5 * time.Minute)
			h.Mu.Lock()
			for code, r := range h.Rooms {
				r.Mu.Lock()
				idle := time.Since(r.LastSeen) > idleLifetime || r.finished
				r.Mu.Unlock()
				if idle {
					delete(h.Rooms, code)
				}
			}
			h.Mu.Unlock()
		}
	}()
	return h
}

// Create provisions a room with its rounds fixed up front and the
// host as the first roster entry.
func (h *Hub) Create(kind Kind, host string, rounds []wire.Round, roundDurationSec int) *Room {
	h.Mu.Lock()
	defer h.Mu.Unlock()

	code := utils.RoomCode(codeLength)
	for _, taken := h.Rooms[code]; taken; _, taken = h.Rooms[code] {
		code = utils.RoomCode(codeLength)
	}

	r := &Room{
		Code:          code,
		Kind:          kind,
		Rounds:        rounds,
		RoundDuration: roundDurationSec,
		CreatedAt:     time.Now(),
		LastSeen:      time.Now(),
		players:       []string{host},
		scores:        map[string]int{host: 0},
		submitted:     make(map[string]bool),
		watchers:      make(map[string]chan []byte),
		currentRound:  -1,
		onFinish:      h.OnFinish,
	}
	h.Rooms[code] = r
	return r
}

// Get retrieves an existing room by code.
func (h *Hub) Get(code string) (*Room, bool) {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	r, ok := h.Rooms[strings.ToUpper(strings.TrimSpace(code))]
	return r, ok
}

// Remove drops a room from the hub.
func (h *Hub) Remove(code string) {
	h.Mu.Lock()
	delete(h.Rooms, code)
	h.Mu.Unlock()
}

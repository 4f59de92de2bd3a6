package session

import (
	"log"

	"chessguessr/internal/logging"
	"chessguessr/internal/wire"
)

// Inbound events from the round authority. They may arrive at any time
// while in RoomSetup or Playing and are applied as soon as received.

func (c *Controller) HandleConnected() {
	logging.Debugf("realtime channel connected")
}

// HandleChannelError surfaces authority errors, except the expected
// start rejection sent to non-hosts, which would only cause spurious
// alarms.
func (c *Controller) HandleChannelError(message string) {
	c.mu.Lock()
	host := c.isHost
	c.mu.Unlock()
	if message == wire.ErrOnlyHostCanStart && !host {
		logging.Debugf("suppressed channel error: %s", message)
		return
	}
	c.cfg.Notify("Error: " + message)
}

func (c *Controller) HandleRosterChanged(players []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.players = players
}

func (c *Controller) HandleGameStarted(roundStart float64, durationSec int) {
	c.mu.Lock()
	if c.state != StateRoomSetup && c.state != StatePlaying {
		c.mu.Unlock()
		return
	}
	c.roundDur = durationSec
	c.currentRound = 1
	if len(c.preloaded) > 0 {
		c.loadRoundLocked(c.preloaded[0])
	} else {
		log.Printf("game started with no preloaded rounds")
	}
	c.state = StatePlaying
	c.mu.Unlock()

	// Outside the lock: an already-elapsed start time expires the
	// clock synchronously.
	c.clock.Start(roundStart, durationSec)
}

func (c *Controller) HandleRoundStarted(roundIndex int, roundStart float64, durationSec int) {
	c.mu.Lock()
	if c.state != StatePlaying {
		c.mu.Unlock()
		return
	}
	c.currentRound = roundIndex + 1
	if roundIndex >= 0 && roundIndex < len(c.preloaded) {
		c.loadRoundLocked(c.preloaded[roundIndex])
	} else {
		log.Printf("round %d has no preloaded data", roundIndex+1)
	}
	c.mu.Unlock()

	c.clock.Start(roundStart, durationSec)
}

func (c *Controller) HandleLeaderboard(entries []wire.LeaderboardEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaderboard = entries
}

func (c *Controller) HandleAllSubmitted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revealLocked()
}

func (c *Controller) HandleTimeUp(entries []wire.LeaderboardEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entries != nil {
		c.leaderboard = entries
	}
	c.revealLocked()
}

func (c *Controller) HandleGameOver(entries []wire.LeaderboardEntry) {
	c.mu.Lock()
	if entries != nil {
		c.leaderboard = entries
	}
	c.stopAutoPlayLocked()
	c.state = StateFinal
	c.mu.Unlock()

	c.clock.Stop()
}

func (c *Controller) HandleChat(msg wire.ChatEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chat = append(c.chat, msg)
}

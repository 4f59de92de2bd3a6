// Package roundclock keeps a local countdown consistent with a round
// start time supplied by a remote authority.
//
// The remaining time is always re-derived from the authoritative start
// epoch, so message delivery delay only affects when the countdown
// becomes visible, never what it shows.
package roundclock

import (
	"sync"
	"time"
)

// tickInterval is short enough for a smooth countdown display.
const tickInterval = 100 * time.Millisecond

// Clock derives the remaining round time on a fixed cadence and fires a
// one-shot expiry signal when it reaches zero. Callbacks run on the
// clock's own goroutine.
type Clock struct {
	onTick   func(remaining float64)
	onExpire func()

	// now is swappable for tests.
	now func() float64

	mu      sync.Mutex
	cancel  chan struct{}
	gn      uint64
	expired bool
	last    float64
}

// New creates a stopped clock. Either callback may be nil.
func New(onTick func(remaining float64), onExpire func()) *Clock {
	return &Clock{
		onTick:   onTick,
		onExpire: onExpire,
		now:      func() float64 { return float64(time.Now().UnixMilli()) / 1000 },
	}
}

// Start begins ticking against the given start epoch (seconds) and
// duration (seconds). Any previous run is cancelled first, so
// round-to-round resyncs never leave two tickers behind.
func (c *Clock) Start(startEpoch float64, durationSec int) {
	c.mu.Lock()
	c.stopLocked()
	c.gn++
	gn := c.gn
	c.expired = false
	cancel := make(chan struct{})
	c.cancel = cancel
	c.mu.Unlock()

	// Report immediately, then on cadence.
	c.update(gn, startEpoch, float64(durationSec))

	go func() {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-cancel:
				return
			case <-ticker.C:
				if c.update(gn, startEpoch, float64(durationSec)) {
					return
				}
			}
		}
	}()
}

// update recomputes the remaining time and reports whether the clock
// has expired. A ticker goroutine may have a tick in flight when Start
// re-arms the clock; the generation check drops it so a previous
// round's parameters can never expire the new one.
func (c *Clock) update(gn uint64, start, duration float64) bool {
	remaining := duration - (c.now() - start)
	if remaining < 0 {
		remaining = 0
	}
	if remaining > duration {
		remaining = duration
	}

	c.mu.Lock()
	if gn != c.gn {
		c.mu.Unlock()
		return true
	}
	c.last = remaining
	fireExpire := remaining <= 0 && !c.expired
	if fireExpire {
		c.expired = true
		c.stopLocked()
	}
	c.mu.Unlock()

	if c.onTick != nil {
		c.onTick(remaining)
	}
	if fireExpire && c.onExpire != nil {
		c.onExpire()
	}
	return remaining <= 0
}

// Remaining returns the last derived value, for display.
func (c *Clock) Remaining() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Stop cancels the tick unconditionally. Safe to call repeatedly and
// on a clock that never started.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Clock) stopLocked() {
	if c.cancel != nil {
		close(c.cancel)
		c.cancel = nil
	}
}

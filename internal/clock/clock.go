// Package clock owns the per-auction deadline timers.
package clock

import (
	"sync"
	"time"
)

// Clock keeps at most one pending wake-up per auction. Scheduling again replaces
// the previous wake-up, and a replaced or cancelled wake-up never calls fire.
type Clock struct {
	src  Source
	fire func(auctionID string)

	mu      sync.Mutex
	seq     uint64
	pending map[string]*wakeup
}

type wakeup struct {
	seq      uint64
	deadline time.Time
	timer    Timer
}

// New creates a Clock that calls fire when an auction's deadline is reached
func New(src Source, fire func(auctionID string)) *Clock {
	return &Clock{
		src:     src,
		fire:    fire,
		pending: make(map[string]*wakeup),
	}
}

// Now returns the current time of the underlying source
func (c *Clock) Now() time.Time {
	return c.src.Now()
}

// Schedule arms the wake-up for auctionID at deadline, replacing any earlier one
func (c *Clock) Schedule(auctionID string, deadline time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.pending[auctionID]; ok {
		prev.timer.Stop()
	}

	c.seq++
	seq := c.seq
	d := deadline.Sub(c.src.Now())
	if d < 0 {
		d = 0
	}
	w := &wakeup{seq: seq, deadline: deadline}
	c.pending[auctionID] = w
	w.timer = c.src.AfterFunc(d, func() { c.expire(auctionID, seq) })
}

// Cancel drops the pending wake-up for auctionID, reporting whether one existed
func (c *Clock) Cancel(auctionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	w, ok := c.pending[auctionID]
	if !ok {
		return false
	}
	w.timer.Stop()
	delete(c.pending, auctionID)
	return true
}

// Deadline returns the armed deadline for auctionID
func (c *Clock) Deadline(auctionID string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.pending[auctionID]
	if !ok {
		return time.Time{}, false
	}
	return w.deadline, true
}

// Len returns the number of armed wake-ups
func (c *Clock) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Stop cancels every pending wake-up
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, w := range c.pending {
		w.timer.Stop()
		delete(c.pending, id)
	}
}

func (c *Clock) expire(auctionID string, seq uint64) {
	c.mu.Lock()
	w, ok := c.pending[auctionID]
	if !ok || w.seq != seq {
		// replaced or cancelled after the timer was already running
		c.mu.Unlock()
		return
	}
	delete(c.pending, auctionID)
	c.mu.Unlock()

	c.fire(auctionID)
}

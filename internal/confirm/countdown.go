// Package confirm implements the waiting period that guards destructive actions.
package confirm

import (
	"context"
	"time"
)

const (
	// DefaultSeconds is the countdown length before a delete may be confirmed.
	DefaultSeconds = 10

	// MinSeconds is the shortest countdown; it cannot be switched off.
	MinSeconds = 1
)

// Countdown counts down whole seconds from its start value. The guarded action
// may only run once it reaches zero.
type Countdown struct {
	start     int
	remaining int
	open      bool
}

// NewCountdown returns a closed countdown of the given length in seconds,
// raised to MinSeconds when shorter.
func NewCountdown(seconds int) *Countdown {
	if seconds < MinSeconds {
		seconds = MinSeconds
	}
	return &Countdown{start: seconds}
}

// Open resets the countdown to its full length.
func (c *Countdown) Open() {
	c.open = true
	c.remaining = c.start
}

// Close stops the countdown; the action is no longer allowed.
func (c *Countdown) Close() {
	c.open = false
	c.remaining = c.start
}

// Tick decrements the remaining seconds, never below zero.
func (c *Countdown) Tick() {
	if c.open && c.remaining > 0 {
		c.remaining--
	}
}

// Remaining is the number of seconds left.
func (c *Countdown) Remaining() int { return c.remaining }

// Ready reports whether the guarded action may run.
func (c *Countdown) Ready() bool { return c.open && c.remaining == 0 }

// Run opens the countdown and ticks it once per interval until it is ready,
// calling onTick with the remaining seconds before each wait. It returns early
// with ctx's error, leaving the countdown closed.
func (c *Countdown) Run(ctx context.Context, interval time.Duration, onTick func(remaining int)) error {
	c.Open()
	if c.Ready() {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for !c.Ready() {
		if onTick != nil {
			onTick(c.remaining)
		}
		select {
		case <-ctx.Done():
			c.Close()
			return ctx.Err()
		case <-ticker.C:
			c.Tick()
		}
	}
	return nil
}

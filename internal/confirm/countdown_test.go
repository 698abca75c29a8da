package confirm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCountdownTicks(t *testing.T) {
	c := NewCountdown(DefaultSeconds)
	if c.Ready() {
		t.Fatal("closed countdown is ready")
	}
	c.Open()
	for i := 0; i < DefaultSeconds-1; i++ {
		c.Tick()
		if c.Ready() {
			t.Fatalf("ready after %d ticks", i+1)
		}
	}
	c.Tick()
	if !c.Ready() {
		t.Fatal("not ready after full countdown")
	}
	c.Tick()
	if c.Remaining() != 0 {
		t.Fatalf("remaining = %d, want 0", c.Remaining())
	}

	c.Close()
	if c.Ready() || c.Remaining() != DefaultSeconds {
		t.Fatalf("close did not reset: ready=%v remaining=%d", c.Ready(), c.Remaining())
	}
	c.Open()
	if c.Remaining() != DefaultSeconds {
		t.Fatalf("reopen remaining = %d", c.Remaining())
	}
}

func TestRun(t *testing.T) {
	c := NewCountdown(3)
	var seen []int
	if err := c.Run(context.Background(), time.Millisecond, func(r int) { seen = append(seen, r) }); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !c.Ready() {
		t.Fatal("not ready after Run")
	}
	if len(seen) != 3 || seen[0] != 3 || seen[2] != 1 {
		t.Fatalf("ticks = %v", seen)
	}
}

func TestRunCanceled(t *testing.T) {
	c := NewCountdown(5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Run(ctx, time.Hour, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if c.Ready() {
		t.Fatal("canceled countdown is ready")
	}
}

func TestZeroLengthStillWaits(t *testing.T) {
	for _, seconds := range []int{0, -3} {
		c := NewCountdown(seconds)
		c.Open()
		if c.Ready() {
			t.Fatalf("NewCountdown(%d) ready without waiting", seconds)
		}

		var ticks []int
		if err := c.Run(context.Background(), time.Millisecond, func(r int) { ticks = append(ticks, r) }); err != nil {
			t.Fatalf("Run: %v", err)
		}
		if len(ticks) != MinSeconds || !c.Ready() {
			t.Errorf("NewCountdown(%d): ticks %v, ready %v", seconds, ticks, c.Ready())
		}
	}
}

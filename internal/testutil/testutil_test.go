package testutil

import (
	"math"
	"testing"
	"time"
)

func TestInterleavedSine(t *testing.T) {
	s := InterleavedSine(1000, 48000, 0.5, 48, 2)
	if len(s) != 96 {
		t.Fatalf("len = %d, want 96", len(s))
	}
	for i := 0; i < len(s); i += 2 {
		if s[i] != s[i+1] {
			t.Fatalf("frame %d: channels differ", i/2)
		}
	}
	if p := Peak(s); math.Abs(float64(p)-0.5) > 1e-6 {
		t.Fatalf("peak = %v, want 0.5", p)
	}
}

func TestManualClock(t *testing.T) {
	c := NewManualClock()
	start := c.Now()
	c.Advance(1500 * time.Millisecond)
	if got := c.Now().Sub(start); got != 1500*time.Millisecond {
		t.Fatalf("elapsed = %v", got)
	}
}

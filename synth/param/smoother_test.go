package param

import (
	"math"
	"testing"
)

func TestCoefficient(t *testing.T) {
	tests := []struct {
		name       string
		timeMs     float64
		sampleRate float64
		want       float64
	}{
		{name: "20ms at 48k", timeMs: 20, sampleRate: 48000, want: 1 - math.Exp(-1/(0.02*48000))},
		{name: "below 1ms is instant", timeMs: 0.5, sampleRate: 48000, want: 1},
		{name: "zero time", timeMs: 0, sampleRate: 48000, want: 1},
		{name: "invalid rate", timeMs: 20, sampleRate: 0, want: 1},
		{name: "NaN time", timeMs: math.NaN(), sampleRate: 48000, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Coefficient(tt.timeMs, tt.sampleRate)
			if math.Abs(got-tt.want) > 1e-15 {
				t.Fatalf("Coefficient(%v, %v) = %v, want %v", tt.timeMs, tt.sampleRate, got, tt.want)
			}

			if got < 0 || got > 1 {
				t.Fatalf("coefficient out of range: %v", got)
			}
		})
	}
}

func TestSmootherConvergesMonotonically(t *testing.T) {
	for _, target := range []float64{1, -1, 0.25, 1000} {
		s := NewSmoother(0, 20, 48000)
		s.SetTarget(target)

		prevDist := math.Abs(target - s.Current())
		for i := 0; i < 48000; i++ {
			v := s.Next()

			dist := math.Abs(target - v)
			if dist > prevDist {
				t.Fatalf("target %v: distance grew at sample %d: %v > %v", target, i, dist, prevDist)
			}

			if (target > 0 && v > target) || (target < 0 && v < target) {
				t.Fatalf("target %v: overshoot at sample %d: %v", target, i, v)
			}

			prevDist = dist
		}

		if !s.Settled() {
			t.Fatalf("target %v: not settled after one second, current=%v", target, s.Current())
		}
	}
}

func TestSmootherSnapsWithinThreshold(t *testing.T) {
	s := NewSmoother(0.5, 20, 48000)
	s.SetTarget(0.5 + 5e-6)

	if got := s.Next(); got != s.Target() {
		t.Fatalf("Next() = %v, want snap to %v", got, s.Target())
	}
}

func TestSmootherInstant(t *testing.T) {
	s := NewSmoother(0, 0, 48000)
	s.SetTarget(0.8)

	if got := s.Next(); got != 0.8 {
		t.Fatalf("instant smoother Next() = %v, want 0.8", got)
	}
}

func TestSmootherReset(t *testing.T) {
	s := NewSmoother(0, 20, 48000)
	s.SetTarget(1)
	s.Next()
	s.Reset(0.3)

	if s.Current() != 0.3 || s.Target() != 0.3 {
		t.Fatalf("Reset: current=%v target=%v, want 0.3/0.3", s.Current(), s.Target())
	}
}

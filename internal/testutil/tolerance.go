package testutil

import (
	"math"
	"testing"
)

// RequireNearlyEqual fails t if got and want differ by more than eps.
func RequireNearlyEqual(t *testing.T, got, want, eps float64) {
	t.Helper()
	if diff := math.Abs(got - want); diff > eps || math.IsNaN(got) {
		t.Fatalf("got %v, want %v (diff %v > eps %v)", got, want, diff, eps)
	}
}

// RequireBounded fails t if any sample is non-finite or outside [-limit, limit].
func RequireBounded(t *testing.T, data []float32, limit float32) {
	t.Helper()
	for i, v := range data {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
		if v < -limit || v > limit {
			t.Fatalf("index %d: %v outside [-%v, %v]", i, v, limit, limit)
		}
	}
}

// Peak returns the largest absolute sample.
func Peak(data []float32) float32 {
	var peak float32
	for _, v := range data {
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}

// IsSilent reports whether every sample is exactly zero.
func IsSilent(data []float32) bool {
	for _, v := range data {
		if v != 0 {
			return false
		}
	}
	return true
}

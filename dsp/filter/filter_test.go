package filter

import (
	"math"
	"testing"
)

const sampleRate = 48000.0

func newFilter(t *testing.T) *Filter {
	t.Helper()

	f, err := New(sampleRate)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return f
}

func TestResponses(t *testing.T) {
	tests := []struct {
		typ         Type
		passFreq    float64
		reject      float64
		rejectBelow float64
	}{
		{TypeLowpass, 50, 16000, 0.05},
		{TypeHighpass, 16000, 50, 0.05},
		{TypeBandpass, 1000, 20, 0.1},
		{TypeNotch, 50, 1000, 0.05},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			f := newFilter(t)
			if err := f.SetType(tt.typ); err != nil {
				t.Fatalf("SetType: %v", err)
			}
			if err := f.SetResonance(0.1); err != nil {
				t.Fatalf("SetResonance: %v", err)
			}

			c := f.Coefficients()
			if pass := c.MagnitudeAt(tt.passFreq, sampleRate); math.Abs(pass-1) > 0.1 {
				t.Errorf("passband |H(%v)| = %v, want ~1", tt.passFreq, pass)
			}
			if rej := c.MagnitudeAt(tt.reject, sampleRate); rej > tt.rejectBelow {
				t.Errorf("stopband |H(%v)| = %v, want < %v", tt.reject, rej, tt.rejectBelow)
			}
		})
	}
}

func TestResonanceRaisesPeak(t *testing.T) {
	f := newFilter(t)

	_ = f.SetResonance(0)
	low := f.Coefficients().MagnitudeAt(1000, sampleRate)

	_ = f.SetResonance(1)
	high := f.Coefficients().MagnitudeAt(1000, sampleRate)

	if high <= low || high < 5 {
		t.Fatalf("peak at cutoff: r=0 %v, r=1 %v", low, high)
	}
}

func TestSetCutoffLimits(t *testing.T) {
	f := newFilter(t)

	if err := f.SetCutoff(5); err == nil {
		t.Fatal("expected error below 20 Hz")
	}

	if err := f.SetCutoff(40000); err != nil {
		t.Fatalf("SetCutoff: %v", err)
	}

	if f.Cutoff() != 0.45*sampleRate {
		t.Fatalf("cutoff = %v, want limit %v", f.Cutoff(), 0.45*sampleRate)
	}

	if err := f.SetType(Type(9)); err == nil {
		t.Fatal("expected error for unknown type")
	}

	if err := f.SetResonance(1.5); err == nil {
		t.Fatal("expected error for resonance > 1")
	}
}

func TestStereoStateIndependent(t *testing.T) {
	f := newFilter(t)

	var l, r float64
	for i := 0; i < 4800; i++ {
		l, r = f.ProcessStereo(1, 0)
	}

	if math.Abs(l-1) > 1e-3 {
		t.Fatalf("left DC after settling = %v, want 1", l)
	}

	if r != 0 {
		t.Fatalf("right channel picked up left input: %v", r)
	}

	f.Reset()

	if y := f.ProcessSample(0); y != 0 {
		t.Fatalf("output after Reset = %v", y)
	}
}

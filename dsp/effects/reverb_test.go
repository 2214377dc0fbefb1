package effects

import (
	"math"
	"testing"
)

func newTestReverb(t *testing.T) *Reverb {
	t.Helper()

	r, err := NewReverb(44100)
	if err != nil {
		t.Fatalf("NewReverb: %v", err)
	}

	return r
}

func TestReverbMixZeroIsDry(t *testing.T) {
	r := newTestReverb(t)
	if err := r.SetMix(0); err != nil {
		t.Fatalf("SetMix: %v", err)
	}

	for i := range 4096 {
		inL := math.Sin(float64(i) * 0.01)
		inR := math.Cos(float64(i) * 0.02)

		l, rr := r.ProcessStereo(inL, inR)
		if l != inL || rr != inR {
			t.Fatalf("frame %d: got=(%g,%g) want=(%g,%g)", i, l, rr, inL, inR)
		}
	}
}

func TestReverbImpulseProducesDecorrelatedTail(t *testing.T) {
	r := newTestReverb(t)
	if err := r.SetMix(1); err != nil {
		t.Fatalf("SetMix: %v", err)
	}

	var energyL, energyR, diff float64

	for i := range 8000 {
		in := 0.0
		if i == 0 {
			in = 1
		}

		l, rr := r.ProcessStereo(in, in)
		if math.IsNaN(l) || math.IsNaN(rr) || math.Abs(l) > 1 || math.Abs(rr) > 1 {
			t.Fatalf("frame %d out of range: (%g,%g)", i, l, rr)
		}

		energyL += l * l
		energyR += rr * rr
		diff += math.Abs(l - rr)
	}

	if energyL == 0 || energyR == 0 {
		t.Fatalf("expected reverb tail, energy L=%g R=%g", energyL, energyR)
	}

	if diff == 0 {
		t.Fatal("left and right tails are identical")
	}
}

func TestReverbResetRestoresState(t *testing.T) {
	r := newTestReverb(t)

	run := func() []float64 {
		out := make([]float64, 0, 512)
		for i := range 256 {
			in := 0.0
			if i == 0 {
				in = 1
			}

			l, rr := r.ProcessStereo(in, -in)
			out = append(out, l, rr)
		}

		return out
	}

	first := run()
	r.Reset()
	second := run()

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("sample %d differs after reset: %g vs %g", i, first[i], second[i])
		}
	}
}

func TestReverbScalesTuningWithSampleRate(t *testing.T) {
	r, err := NewReverb(88200)
	if err != nil {
		t.Fatalf("NewReverb: %v", err)
	}

	if got, want := len(r.left.combs[0].buffer), 2*reverbCombTuning[0]; got != want {
		t.Fatalf("left comb length: got=%d want=%d", got, want)
	}

	if got, want := len(r.right.combs[0].buffer), 2*(reverbCombTuning[0]+reverbStereoSpread); got != want {
		t.Fatalf("right comb length: got=%d want=%d", got, want)
	}
}

func TestReverbRejectsInvalidSettings(t *testing.T) {
	if _, err := NewReverb(-1); err == nil {
		t.Fatal("expected error for negative sample rate")
	}

	r := newTestReverb(t)

	if err := r.SetMix(1.5); err == nil {
		t.Error("SetMix(1.5): expected error")
	}

	if err := r.SetRoomSize(-0.1); err == nil {
		t.Error("SetRoomSize(-0.1): expected error")
	}

	if err := r.SetDamp(math.NaN()); err == nil {
		t.Error("SetDamp(NaN): expected error")
	}

	if r.Mix() != defaultReverbMix || r.RoomSize() != defaultReverbRoomSize || r.Damp() != defaultReverbDamp {
		t.Fatalf("rejected settings changed state")
	}
}

package spectral

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-synth/internal/testutil"
)

const sampleRate = 48000.0

func newAnalyzer(t *testing.T, opts ...Option) *Analyzer {
	t.Helper()

	a, err := New(sampleRate, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return a
}

func TestNewValidatesSize(t *testing.T) {
	for _, n := range []int{0, 1000, 3, maxSize * 2} {
		if _, err := New(sampleRate, WithSize(n)); err == nil {
			t.Errorf("size %d: expected error", n)
		}
	}

	if _, err := New(0); err == nil {
		t.Error("sample rate 0: expected error")
	}
}

func TestDominantFrequency(t *testing.T) {
	a := newAnalyzer(t)

	freq := a.BinFrequency(43)
	block := testutil.InterleavedSine(freq, sampleRate, 0.5, a.Size(), 2)

	a.Process(block, a.Size(), 2)

	if got := a.DominantFrequency(); got != freq {
		t.Fatalf("DominantFrequency = %v, want %v", got, freq)
	}

	testutil.RequireNearlyEqual(t, a.Amplitude(), 0.5, 5e-3)

	f := a.Frame()
	if f.Mid <= f.Bass || f.Mid <= f.High {
		t.Fatalf("1 kHz tone should dominate the mid band: %+v", f)
	}
}

func TestSilence(t *testing.T) {
	a := newAnalyzer(t, WithSize(256))
	a.Process(make([]float32, 512), 256, 2)

	if f := a.Frame(); f != (Frame{}) {
		t.Fatalf("silent frame = %+v", f)
	}
}

func TestDCMagnitude(t *testing.T) {
	a := newAnalyzer(t, WithSize(256))
	a.Process(testutil.InterleavedDC(1, 256, 1), 256, 1)

	mags := make([]float64, a.Bins())
	if _, err := a.MagnitudesInto(mags); err != nil {
		t.Fatalf("MagnitudesInto: %v", err)
	}

	// The DC bin is the window sum over N.
	sum := 0.0
	for i := 0; i < 256; i++ {
		sum += 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/255))
	}

	testutil.RequireNearlyEqual(t, mags[0], sum/256, 1e-9)

	// The Hann main lobe spreads DC into bin 1, which the one-sided scaling
	// doubles, so the peak may land on either of the first two bins.
	if f := a.DominantFrequency(); f > a.BinFrequency(1) {
		t.Fatalf("DominantFrequency = %v, want <= %v", f, a.BinFrequency(1))
	}
}

func TestAmplitudeCoversWholeBlock(t *testing.T) {
	a := newAnalyzer(t, WithSize(256))

	block := make([]float32, 1024)
	block[10] = 0.9 // outside the last 256 frames

	a.Process(block, 1024, 1)

	testutil.RequireNearlyEqual(t, a.Amplitude(), 0.9, 1e-6)

	if a.DominantFrequency() != 0 || a.BassLevel() != 0 {
		t.Fatalf("spike outside the FFT frame leaked into the spectrum: %+v", a.Frame())
	}
}

func TestShortBlockZeroPadded(t *testing.T) {
	a := newAnalyzer(t, WithSize(1024))

	freq := a.BinFrequency(100)
	a.Process(testutil.InterleavedSine(freq, sampleRate, 0.8, 1024, 2), 1024, 2)
	a.Process(testutil.InterleavedSine(freq, sampleRate, 0.8, 64, 2), 64, 2)

	testutil.RequireNearlyEqual(t, a.Amplitude(), 0.8, 1e-2)

	mags := make([]float64, a.Bins())
	a.MagnitudesInto(mags)

	for i, m := range mags {
		if math.IsNaN(m) || m < 0 {
			t.Fatalf("bin %d = %v", i, m)
		}
	}
}

func TestMagnitudesIntoShortBuffer(t *testing.T) {
	a := newAnalyzer(t, WithSize(64))

	if _, err := a.MagnitudesInto(make([]float64, 8)); err == nil {
		t.Fatal("expected error for short buffer")
	}
}

func TestReset(t *testing.T) {
	a := newAnalyzer(t, WithSize(256))
	a.Process(testutil.InterleavedSine(1000, sampleRate, 0.5, 256, 1), 256, 1)
	a.Reset()

	if f := a.Frame(); f != (Frame{}) {
		t.Fatalf("frame after Reset = %+v", f)
	}
}

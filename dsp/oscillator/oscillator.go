// Package oscillator provides the synthesizer's tone generators: a basic
// band-limited oscillator and a wavetable oscillator built on it.
package oscillator

import (
	"fmt"
	"math"
)

// Waveform selects the oscillator shape.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveTriangle
	WaveSaw
	WaveSquare
	WaveTable
)

func (w Waveform) String() string {
	switch w {
	case WaveSine:
		return "sine"
	case WaveTriangle:
		return "triangle"
	case WaveSaw:
		return "saw"
	case WaveSquare:
		return "square"
	case WaveTable:
		return "wavetable"
	default:
		return fmt.Sprintf("Waveform(%d)", int(w))
	}
}

const (
	defaultFrequency = 440.0
	defaultVolume    = 0.5
	maxDetuneCents   = 1200.0
)

// Oscillator is a phase-accumulating oscillator. Saw and square use
// PolyBLEP correction; the triangle's corners are left uncorrected.
//
// Oscillator is not safe for concurrent use.
type Oscillator struct {
	sampleRate float64
	waveform   Waveform
	frequency  float64
	detune     float64
	volume     float64
	pan        float64

	phase float64
	step  float64
}

// New returns a sine oscillator at 440 Hz and half volume.
func New(sampleRate float64) (*Oscillator, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("oscillator sample rate must be > 0: %f", sampleRate)
	}

	o := &Oscillator{
		sampleRate: sampleRate,
		frequency:  defaultFrequency,
		volume:     defaultVolume,
	}
	o.updateStep()

	return o, nil
}

// SetFrequency sets the base frequency in Hz, below Nyquist.
func (o *Oscillator) SetFrequency(hz float64) error {
	if hz < 0 || hz >= o.sampleRate/2 || math.IsNaN(hz) {
		return fmt.Errorf("oscillator frequency must be in [0, %f): %f", o.sampleRate/2, hz)
	}

	o.frequency = hz
	o.updateStep()

	return nil
}

// SetType selects the waveform. The basic oscillator has no table and
// rejects WaveTable.
func (o *Oscillator) SetType(w Waveform) error {
	if w < WaveSine || w > WaveSquare {
		return fmt.Errorf("oscillator waveform not supported: %v", w)
	}

	o.waveform = w

	return nil
}

// SetDetune sets the detune in cents.
func (o *Oscillator) SetDetune(cents float64) error {
	if math.Abs(cents) > maxDetuneCents || math.IsNaN(cents) {
		return fmt.Errorf("oscillator detune must be in [-%f, %f] cents: %f",
			maxDetuneCents, maxDetuneCents, cents)
	}

	o.detune = cents
	o.updateStep()

	return nil
}

// SetVolume sets the output gain in [0, 1].
func (o *Oscillator) SetVolume(v float64) error {
	if v < 0 || v > 1 || math.IsNaN(v) {
		return fmt.Errorf("oscillator volume must be in [0, 1]: %f", v)
	}

	o.volume = v

	return nil
}

// SetPan sets the stereo position in [-1, 1].
func (o *Oscillator) SetPan(p float64) error {
	if p < -1 || p > 1 || math.IsNaN(p) {
		return fmt.Errorf("oscillator pan must be in [-1, 1]: %f", p)
	}

	o.pan = p

	return nil
}

// Frequency returns the base frequency in Hz.
func (o *Oscillator) Frequency() float64 { return o.frequency }

// Waveform returns the selected waveform.
func (o *Oscillator) Waveform() Waveform { return o.waveform }

// Detune returns the detune in cents.
func (o *Oscillator) Detune() float64 { return o.detune }

// Volume returns the output gain.
func (o *Oscillator) Volume() float64 { return o.volume }

// Pan returns the stereo position.
func (o *Oscillator) Pan() float64 { return o.pan }

// Reset rewinds the phase.
func (o *Oscillator) Reset() {
	o.phase = 0
}

// Process returns the next sample, scaled by the volume.
func (o *Oscillator) Process() float64 {
	return o.volume * o.shape(o.advance())
}

// advance returns the current phase in [0, 1) and moves to the next one.
func (o *Oscillator) advance() float64 {
	p := o.phase

	o.phase += o.step
	if o.phase >= 1 {
		o.phase -= math.Floor(o.phase)
	}

	return p
}

func (o *Oscillator) shape(p float64) float64 {
	dt := o.step

	switch o.waveform {
	case WaveTriangle:
		return 1 - 4*math.Abs(p-0.5)
	case WaveSaw:
		return 2*p - 1 - polyBLEP(p, dt)
	case WaveSquare:
		return squareBLEP(p, dt)
	default:
		return math.Sin(2 * math.Pi * p)
	}
}

func (o *Oscillator) updateStep() {
	hz := o.frequency * math.Pow(2, o.detune/1200)
	o.step = math.Min(hz/o.sampleRate, 0.5)
}

func squareBLEP(p, dt float64) float64 {
	v := -1.0
	if p < 0.5 {
		v = 1
	}

	v += polyBLEP(p, dt)
	v -= polyBLEP(math.Mod(p+0.5, 1), dt)

	return v
}

// polyBLEP is the two-sample polynomial band-limited step residual.
func polyBLEP(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}

	switch {
	case t < dt:
		t /= dt
		return t + t - t*t - 1
	case t > 1-dt:
		t = (t - 1) / dt
		return t*t + t + t + 1
	default:
		return 0
	}
}

// Package filter provides the synthesizer's stereo resonant filter, built
// from Direct Form II Transposed biquad sections designed with the RBJ
// cookbook formulas.
package filter

import (
	"fmt"
	"math"
)

// Type selects the filter response.
type Type int

const (
	TypeLowpass Type = iota
	TypeHighpass
	TypeBandpass
	TypeNotch
)

func (t Type) String() string {
	switch t {
	case TypeLowpass:
		return "lowpass"
	case TypeHighpass:
		return "highpass"
	case TypeBandpass:
		return "bandpass"
	case TypeNotch:
		return "notch"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

const (
	defaultCutoff    = 1000.0
	defaultResonance = 0.5
	minCutoff        = 20.0
	maxQ             = 10.0
)

type section struct {
	d0, d1 float64
}

func (s *section) process(c *Coefficients, x float64) float64 {
	y := c.B0*x + s.d0
	s.d0 = c.B1*x - c.A1*y + s.d1
	s.d1 = c.B2*x - c.A2*y

	return y
}

// Filter is a stereo biquad filter with cutoff, resonance and type
// controls. Both channels share coefficients and keep separate state.
//
// Setters recompute coefficients immediately and do not allocate. Filter is
// not safe for concurrent use.
type Filter struct {
	sampleRate float64
	typ        Type
	cutoff     float64
	resonance  float64

	coeffs Coefficients
	left   section
	right  section
}

// New returns a lowpass filter at 1 kHz.
func New(sampleRate float64) (*Filter, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("filter sample rate must be > 0: %f", sampleRate)
	}

	f := &Filter{
		sampleRate: sampleRate,
		typ:        TypeLowpass,
		cutoff:     defaultCutoff,
		resonance:  defaultResonance,
	}
	f.redesign()

	return f, nil
}

// SetCutoff sets the cutoff in Hz. Values above 45% of the sample rate are
// limited there.
func (f *Filter) SetCutoff(hz float64) error {
	if hz < minCutoff || math.IsNaN(hz) || math.IsInf(hz, 0) {
		return fmt.Errorf("filter cutoff must be >= %f: %f", minCutoff, hz)
	}

	f.cutoff = math.Min(hz, 0.45*f.sampleRate)
	f.redesign()

	return nil
}

// SetResonance sets resonance in [0, 1], mapped onto Q from 0.5 to 10.
func (f *Filter) SetResonance(r float64) error {
	if r < 0 || r > 1 || math.IsNaN(r) {
		return fmt.Errorf("filter resonance must be in [0, 1]: %f", r)
	}

	f.resonance = r
	f.redesign()

	return nil
}

// SetType selects the response.
func (f *Filter) SetType(t Type) error {
	if t < TypeLowpass || t > TypeNotch {
		return fmt.Errorf("filter type out of range: %d", t)
	}

	f.typ = t
	f.redesign()

	return nil
}

// Cutoff returns the effective cutoff in Hz.
func (f *Filter) Cutoff() float64 { return f.cutoff }

// Resonance returns the resonance in [0, 1].
func (f *Filter) Resonance() float64 { return f.resonance }

// Type returns the response type.
func (f *Filter) Type() Type { return f.typ }

// Q returns the quality factor derived from the resonance.
func (f *Filter) Q() float64 {
	return 0.5 * math.Pow(2*maxQ, f.resonance)
}

// Coefficients returns the current section coefficients.
func (f *Filter) Coefficients() Coefficients { return f.coeffs }

// ProcessSample filters one mono sample through the left channel state.
func (f *Filter) ProcessSample(x float64) float64 {
	return f.left.process(&f.coeffs, x)
}

// ProcessStereo filters one stereo frame.
func (f *Filter) ProcessStereo(l, r float64) (float64, float64) {
	return f.left.process(&f.coeffs, l), f.right.process(&f.coeffs, r)
}

// Reset clears both channels' state.
func (f *Filter) Reset() {
	f.left = section{}
	f.right = section{}
}

func (f *Filter) redesign() {
	q := f.Q()

	switch f.typ {
	case TypeHighpass:
		f.coeffs = Highpass(f.cutoff, q, f.sampleRate)
	case TypeBandpass:
		f.coeffs = Bandpass(f.cutoff, q, f.sampleRate)
	case TypeNotch:
		f.coeffs = Notch(f.cutoff, q, f.sampleRate)
	default:
		f.coeffs = Lowpass(f.cutoff, q, f.sampleRate)
	}
}

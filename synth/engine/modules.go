package engine

import (
	"fmt"

	"github.com/cwbudde/algo-synth/dsp/effects"
	"github.com/cwbudde/algo-synth/dsp/envelope"
	"github.com/cwbudde/algo-synth/dsp/filter"
	"github.com/cwbudde/algo-synth/dsp/granular"
	"github.com/cwbudde/algo-synth/dsp/oscillator"
	"github.com/cwbudde/algo-synth/dsp/wavetable"
	"github.com/cwbudde/algo-synth/dsp/window"
	"github.com/cwbudde/algo-synth/synth/param"
)

// Oscillator is a tone generator.
type Oscillator interface {
	SetFrequency(hz float64) error
	SetType(w oscillator.Waveform) error
	SetDetune(cents float64) error
	SetVolume(v float64) error
	SetPan(p float64) error
	Pan() float64
	Process() float64
}

// WavetableSelector is implemented by oscillators that can play tables.
type WavetableSelector interface {
	SelectWavetable(name string) bool
	SetWavetablePosition(pos float64) error
}

// Envelope is the amplitude envelope shared by all oscillators.
type Envelope interface {
	SetAttack(seconds float64) error
	SetDecay(seconds float64) error
	SetSustain(level float64) error
	SetRelease(seconds float64) error
	NoteOn(velocity float64)
	NoteOff()
	Process() float64
}

// Filter is the stereo filter after the oscillator mix.
type Filter interface {
	SetCutoff(hz float64) error
	SetResonance(r float64) error
	SetType(t filter.Type) error
	ProcessStereo(l, r float64) (float64, float64)
}

// Delay is a mono delay line; the engine runs one per channel.
type Delay interface {
	SetTime(seconds float64) error
	SetFeedback(feedback float64) error
	ProcessSample(x float64) float64
}

// Reverb is the stereo reverb at the end of the chain.
type Reverb interface {
	SetMix(mix float64) error
	ProcessStereo(l, r float64) (float64, float64)
}

// Granular is the buffer granular synthesizer.
type Granular interface {
	SetBuffer(buf []float32)
	SetActive(active bool)
	SetGrainRate(hz float64) error
	SetGrainDuration(seconds float64) error
	SetPosition(pos float64) error
	SetPitch(ratio float64) error
	SetAmplitude(amp float64) error
	SetPositionVariation(v float64) error
	SetPitchVariation(v float64) error
	SetDurationVariation(v float64) error
	SetPan(pan float64) error
	SetPanVariation(v float64) error
	SetWindowType(t window.Type) error
	Process() (float64, float64)
}

// Modules is the set of DSP modules one engine instance owns. Once handed to
// the engine they are used only from the audio goroutine.
type Modules struct {
	Oscillators []Oscillator
	Envelope    Envelope
	Filter      Filter
	DelayL      Delay
	DelayR      Delay
	Reverb      Reverb
	Granular    Granular

	// Wavetables lists the table names wavetableIndex parameters select from.
	Wavetables []string

	// Settings holds the parameter values the factory configured the modules
	// with where they differ from the parameter table defaults. The engine
	// caches them at Initialize so Parameter reports what is playing.
	Settings map[param.ID]float64
}

func (m *Modules) validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil modules", ErrInitialization)
	}

	if m.Envelope == nil || m.Filter == nil || m.DelayL == nil || m.DelayR == nil ||
		m.Reverb == nil || m.Granular == nil {
		return fmt.Errorf("%w: incomplete module set", ErrInitialization)
	}

	for i, osc := range m.Oscillators {
		if osc == nil {
			return fmt.Errorf("%w: oscillator %d is nil", ErrInitialization, i)
		}
	}

	return nil
}

// ModuleFactory builds the modules for a sample rate.
type ModuleFactory func(sampleRate float64) (*Modules, error)

const (
	defaultTableSize = 2048

	osc2Volume = 0.3
	osc2Detune = 5
)

// DefaultModules builds the stock voice: a wavetable-capable sine
// oscillator and a slightly detuned square, a lowpass filter, an ADSR, a
// stereo delay, a reverb and an inactive granular layer.
func DefaultModules(sampleRate float64) (*Modules, error) {
	bank, err := wavetable.DefaultBank(defaultTableSize)
	if err != nil {
		return nil, err
	}

	osc1, err := oscillator.NewWavetable(sampleRate, bank)
	if err != nil {
		return nil, err
	}

	osc2, err := oscillator.New(sampleRate)
	if err != nil {
		return nil, err
	}

	if err := osc2.SetType(oscillator.WaveSquare); err != nil {
		return nil, err
	}

	if err := osc2.SetVolume(osc2Volume); err != nil {
		return nil, err
	}

	if err := osc2.SetDetune(osc2Detune); err != nil {
		return nil, err
	}

	flt, err := filter.New(sampleRate)
	if err != nil {
		return nil, err
	}

	env, err := envelope.New(sampleRate)
	if err != nil {
		return nil, err
	}

	delayL, err := effects.NewDelay(sampleRate)
	if err != nil {
		return nil, err
	}

	delayR, err := effects.NewDelay(sampleRate)
	if err != nil {
		return nil, err
	}

	rev, err := effects.NewReverb(sampleRate)
	if err != nil {
		return nil, err
	}

	gran, err := granular.New(sampleRate)
	if err != nil {
		return nil, err
	}

	return &Modules{
		Oscillators: []Oscillator{osc1, osc2},
		Envelope:    env,
		Filter:      flt,
		DelayL:      delayL,
		DelayR:      delayR,
		Reverb:      rev,
		Granular:    gran,
		Wavetables:  bank.Names(),
		Settings: map[param.ID]float64{
			param.Oscillator(1, param.OscType):   float64(oscillator.WaveSquare),
			param.Oscillator(1, param.OscVolume): osc2Volume,
			param.Oscillator(1, param.OscDetune): osc2Detune,
		},
	}, nil
}

package engine

import (
	"math"

	"github.com/cwbudde/algo-synth/dsp/filter"
	"github.com/cwbudde/algo-synth/dsp/oscillator"
	"github.com/cwbudde/algo-synth/dsp/window"
	"github.com/cwbudde/algo-synth/synth/automation"
	"github.com/cwbudde/algo-synth/synth/param"
	"github.com/cwbudde/algo-synth/synth/spectral"
)

type commandKind uint8

const (
	cmdParam commandKind = iota
	cmdNoteOn
	cmdRelease
	cmdGranularBuffer
)

// command is a control-context request executed on the audio goroutine.
type command struct {
	kind     commandKind
	id       param.ID
	value    float64
	velocity float64
	buffer   []float32
}

// pitchBendRange is the bend depth in semitones at full deflection.
const pitchBendRange = 2.0

// voice is the audio-goroutine state: the modules and everything derived
// from them. Nothing outside the audio goroutine touches it while the
// stream runs, except the analyzer's read-side getters.
type voice struct {
	sampleRate float64
	modules    *Modules
	analyzer   *spectral.Analyzer

	base  []float64
	gainL []float64
	gainR []float64
	bend  float64

	onEvent func(automation.Event)
}

func newVoice(sampleRate float64, m *Modules, a *spectral.Analyzer) *voice {
	n := len(m.Oscillators)

	v := &voice{
		sampleRate: sampleRate,
		modules:    m,
		analyzer:   a,
		base:       make([]float64, n),
		gainL:      make([]float64, n),
		gainR:      make([]float64, n),
		bend:       1,
	}

	for i, osc := range m.Oscillators {
		v.base[i] = 440
		v.updatePan(i, osc.Pan())
	}

	return v
}

func (v *voice) apply(c command) {
	m := v.modules

	switch c.kind {
	case cmdNoteOn:
		for i := range v.base {
			v.base[i] = c.value
			v.retune(i)
		}
		m.Envelope.NoteOn(c.velocity)
	case cmdRelease:
		m.Envelope.NoteOff()
	case cmdGranularBuffer:
		m.Granular.SetBuffer(c.buffer)
	case cmdParam:
		v.dispatch(c.id, c.value)
	}
}

// dispatch forwards a value to the module that owns id. Values arrive
// clamped to the parameter's range; module errors for values the module
// still refuses are dropped.
func (v *voice) dispatch(id param.ID, value float64) {
	m := v.modules

	switch id {
	case param.PitchBend:
		v.bend = math.Exp2(value * pitchBendRange / 12)
		for i := range v.base {
			v.retune(i)
		}
	case param.FilterCutoff:
		_ = m.Filter.SetCutoff(param.CutoffHz(value))
	case param.FilterResonance:
		_ = m.Filter.SetResonance(value)
	case param.FilterType:
		_ = m.Filter.SetType(filter.Type(int(value)))
	case param.AttackTime:
		_ = m.Envelope.SetAttack(value)
	case param.DecayTime:
		_ = m.Envelope.SetDecay(value)
	case param.SustainLevel:
		_ = m.Envelope.SetSustain(value)
	case param.ReleaseTime:
		_ = m.Envelope.SetRelease(value)
	case param.ReverbMix:
		_ = m.Reverb.SetMix(value)
	case param.DelayTime:
		_ = m.DelayL.SetTime(value)
		_ = m.DelayR.SetTime(value)
	case param.DelayFeedback:
		_ = m.DelayL.SetFeedback(value)
		_ = m.DelayR.SetFeedback(value)
	case param.GranularActive:
		m.Granular.SetActive(value >= 0.5)
	case param.GrainRate:
		_ = m.Granular.SetGrainRate(value)
	case param.GrainDuration:
		_ = m.Granular.SetGrainDuration(value)
	case param.GrainPosition:
		_ = m.Granular.SetPosition(value)
	case param.GrainPitch:
		_ = m.Granular.SetPitch(value)
	case param.GrainAmplitude:
		_ = m.Granular.SetAmplitude(value)
	case param.GrainPositionVar:
		_ = m.Granular.SetPositionVariation(value)
	case param.GrainPitchVar:
		_ = m.Granular.SetPitchVariation(value)
	case param.GrainDurationVar:
		_ = m.Granular.SetDurationVariation(value)
	case param.GrainPan:
		_ = m.Granular.SetPan(value)
	case param.GrainPanVar:
		_ = m.Granular.SetPanVariation(value)
	case param.GranularWindowType:
		_ = m.Granular.SetWindowType(window.Type(int(value)))
	default:
		if index, field, ok := id.Oscillator(); ok && index < len(m.Oscillators) {
			v.dispatchOscillator(index, field, value)
		}
	}
}

func (v *voice) dispatchOscillator(index int, field param.OscField, value float64) {
	osc := v.modules.Oscillators[index]

	switch field {
	case param.OscType:
		_ = osc.SetType(oscillator.Waveform(int(value)))
	case param.OscFrequency:
		v.base[index] = value
		v.retune(index)
	case param.OscDetune:
		_ = osc.SetDetune(value)
	case param.OscVolume:
		_ = osc.SetVolume(value)
	case param.OscPan:
		if osc.SetPan(value) == nil {
			v.updatePan(index, value)
		}
	case param.OscWavetableIndex:
		sel, ok := osc.(WavetableSelector)
		if i := int(value); ok && i < len(v.modules.Wavetables) {
			sel.SelectWavetable(v.modules.Wavetables[i])
		}
	case param.OscWavetablePosition:
		if sel, ok := osc.(WavetableSelector); ok {
			_ = sel.SetWavetablePosition(value)
		}
	}
}

func (v *voice) retune(i int) {
	hz := math.Min(v.base[i]*v.bend, 0.49*v.sampleRate)
	_ = v.modules.Oscillators[i].SetFrequency(hz)
}

// updatePan stores equal-power gains for pan in [-1, 1].
func (v *voice) updatePan(i int, pan float64) {
	angle := (pan + 1) * math.Pi / 4
	v.gainL[i] = math.Cos(angle)
	v.gainR[i] = math.Sin(angle)
}

// render fills frames frames of out, advancing master once per frame.
func (v *voice) render(out []float32, frames, channels int, master *param.Smoother) {
	m := v.modules

	for f := 0; f < frames; f++ {
		gain := master.Next()
		env := m.Envelope.Process()

		var l, r float64
		for i, osc := range m.Oscillators {
			s := osc.Process() * env
			l += s * v.gainL[i]
			r += s * v.gainR[i]
		}

		l, r = m.Filter.ProcessStereo(l, r)

		gl, gr := m.Granular.Process()
		l += gl
		r += gr

		l = m.DelayL.ProcessSample(l)
		r = m.DelayR.ProcessSample(r)

		l, r = m.Reverb.ProcessStereo(l, r)

		l = clamp(l*gain, -1, 1)
		r = clamp(r*gain, -1, 1)

		frame := out[f*channels : (f+1)*channels]
		switch channels {
		case 1:
			frame[0] = float32((l + r) / 2)
		default:
			frame[0] = float32(l)
			frame[1] = float32(r)
			clear(frame[2:])
		}
	}
}

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return 0
	}

	return math.Max(lo, math.Min(hi, x))
}

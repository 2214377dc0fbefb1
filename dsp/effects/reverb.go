package effects

import (
	"fmt"
	"math"
)

const (
	reverbNumCombs     = 8
	reverbNumAllpasses = 4

	reverbFixedGain    = 0.015
	reverbStereoSpread = 23
	reverbTuningRate   = 44100.0

	reverbRoomScale  = 0.28
	reverbRoomOffset = 0.7
	reverbDampScale  = 0.4

	defaultReverbMix      = 0.2
	defaultReverbRoomSize = 0.5
	defaultReverbDamp     = 0.5
)

// Comb and allpass lengths in samples at 44.1 kHz, rescaled to the running
// sample rate.
var (
	reverbCombTuning    = [reverbNumCombs]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
	reverbAllpassTuning = [reverbNumAllpasses]int{556, 441, 341, 225}
)

// Reverb is a stereo Schroeder/Freeverb-style reverb. The right channel uses
// slightly longer delay lines than the left for decorrelation.
type Reverb struct {
	sampleRate float64
	mix        float64
	roomSize   float64
	damp       float64

	left  reverbChannel
	right reverbChannel
}

type reverbChannel struct {
	combs   [reverbNumCombs]reverbComb
	allpass [reverbNumAllpasses]reverbAllpass
}

func newReverbChannel(sampleRate float64, spread int) reverbChannel {
	var ch reverbChannel

	scale := sampleRate / reverbTuningRate
	for i, n := range reverbCombTuning {
		ch.combs[i] = newReverbComb(scaledLength(n+spread, scale))
	}

	for i, n := range reverbAllpassTuning {
		ch.allpass[i] = newReverbAllpass(scaledLength(n+spread, scale))
	}

	return ch
}

func scaledLength(n int, scale float64) int {
	return max(1, int(math.Round(float64(n)*scale)))
}

func (ch *reverbChannel) process(input float64) float64 {
	out := 0.0
	for i := range ch.combs {
		out += ch.combs[i].process(input)
	}

	for i := range ch.allpass {
		out = ch.allpass[i].process(out)
	}

	return out
}

func (ch *reverbChannel) setFeedback(feedback float64) {
	for i := range ch.combs {
		ch.combs[i].feedback = feedback
	}
}

func (ch *reverbChannel) setDamp(damp float64) {
	for i := range ch.combs {
		ch.combs[i].setDamp(damp)
	}
}

func (ch *reverbChannel) reset() {
	for i := range ch.combs {
		ch.combs[i].reset()
	}

	for i := range ch.allpass {
		ch.allpass[i].reset()
	}
}

type reverbAllpass struct {
	feedback float64
	buffer   []float64
	index    int
}

func newReverbAllpass(size int) reverbAllpass {
	return reverbAllpass{
		feedback: 0.5,
		buffer:   make([]float64, size),
	}
}

func (a *reverbAllpass) process(input float64) float64 {
	bufOut := a.buffer[a.index]
	output := bufOut - input
	a.buffer[a.index] = input + bufOut*a.feedback

	a.index++
	if a.index >= len(a.buffer) {
		a.index = 0
	}

	return output
}

func (a *reverbAllpass) reset() {
	clear(a.buffer)
	a.index = 0
}

type reverbComb struct {
	feedback    float64
	filterStore float64
	dampA       float64
	dampB       float64
	buffer      []float64
	index       int
}

func newReverbComb(size int) reverbComb {
	return reverbComb{buffer: make([]float64, size)}
}

func (c *reverbComb) setDamp(v float64) {
	c.dampA = v
	c.dampB = 1 - v
}

func (c *reverbComb) process(input float64) float64 {
	output := c.buffer[c.index]

	c.filterStore = output*c.dampB + c.filterStore*c.dampA
	if math.Abs(c.filterStore) < 1e-23 {
		c.filterStore = 0
	}

	c.buffer[c.index] = input + c.filterStore*c.feedback

	c.index++
	if c.index >= len(c.buffer) {
		c.index = 0
	}

	return output
}

func (c *reverbComb) reset() {
	clear(c.buffer)
	c.index = 0
	c.filterStore = 0
}

// NewReverb constructs a stereo reverb for sampleRate.
func NewReverb(sampleRate float64) (*Reverb, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("reverb sample rate must be > 0: %f", sampleRate)
	}

	r := &Reverb{
		sampleRate: sampleRate,
		mix:        defaultReverbMix,
		left:       newReverbChannel(sampleRate, 0),
		right:      newReverbChannel(sampleRate, reverbStereoSpread),
	}

	_ = r.SetRoomSize(defaultReverbRoomSize)
	_ = r.SetDamp(defaultReverbDamp)

	return r, nil
}

// Reset clears all delay and filter state.
func (r *Reverb) Reset() {
	r.left.reset()
	r.right.reset()
}

// SetMix sets the wet amount in [0, 1]. The dry signal is scaled by 1-mix.
func (r *Reverb) SetMix(mix float64) error {
	if mix < 0 || mix > 1 || math.IsNaN(mix) || math.IsInf(mix, 0) {
		return fmt.Errorf("reverb mix must be in [0, 1]: %f", mix)
	}

	r.mix = mix

	return nil
}

// SetRoomSize sets the normalized room size in [0, 1].
func (r *Reverb) SetRoomSize(size float64) error {
	if size < 0 || size > 1 || math.IsNaN(size) || math.IsInf(size, 0) {
		return fmt.Errorf("reverb room size must be in [0, 1]: %f", size)
	}

	r.roomSize = size
	feedback := size*reverbRoomScale + reverbRoomOffset
	r.left.setFeedback(feedback)
	r.right.setFeedback(feedback)

	return nil
}

// SetDamp sets high-frequency damping in [0, 1].
func (r *Reverb) SetDamp(damp float64) error {
	if damp < 0 || damp > 1 || math.IsNaN(damp) || math.IsInf(damp, 0) {
		return fmt.Errorf("reverb damp must be in [0, 1]: %f", damp)
	}

	r.damp = damp
	r.left.setDamp(damp * reverbDampScale)
	r.right.setDamp(damp * reverbDampScale)

	return nil
}

// ProcessStereo processes one stereo frame. Both channels feed a shared mono
// input into the two tanks.
func (r *Reverb) ProcessStereo(inL, inR float64) (float64, float64) {
	input := (inL + inR) * reverbFixedGain

	wetL := r.left.process(input)
	wetR := r.right.process(input)
	dry := 1 - r.mix

	return inL*dry + wetL*r.mix, inR*dry + wetR*r.mix
}

// SampleRate returns sample rate in Hz.
func (r *Reverb) SampleRate() float64 { return r.sampleRate }

// Mix returns the wet amount.
func (r *Reverb) Mix() float64 { return r.mix }

// RoomSize returns room size.
func (r *Reverb) RoomSize() float64 { return r.roomSize }

// Damp returns damping.
func (r *Reverb) Damp() float64 { return r.damp }

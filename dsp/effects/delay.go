package effects

import (
	"fmt"
	"math"
)

const (
	defaultDelayTimeSeconds = 0.5
	defaultDelayFeedback    = 0.3
	defaultDelayMix         = 0.2
	maxDelayTimeSeconds     = 2.0
	minDelayTimeSeconds     = 0.001

	// delayGlideSeconds is the time constant of delay-time changes.
	delayGlideSeconds = 0.05
)

// Delay is a feedback delay with dry/wet mix. Changing the delay time
// glides the read position instead of jumping, which avoids clicks.
type Delay struct {
	sampleRate   float64
	delaySeconds float64
	feedback     float64
	mix          float64

	target  float64
	current float64
	glide   float64

	buffer []float64
	write  int
}

// NewDelay creates a delay with practical defaults. The buffer is sized for
// the longest supported delay, so SetTime never allocates.
func NewDelay(sampleRate float64) (*Delay, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("delay sample rate must be > 0: %f", sampleRate)
	}

	d := &Delay{
		sampleRate:   sampleRate,
		delaySeconds: defaultDelayTimeSeconds,
		feedback:     defaultDelayFeedback,
		mix:          defaultDelayMix,
		glide:        1 - math.Exp(-1/(delayGlideSeconds*sampleRate)),
		buffer:       make([]float64, int(math.Ceil(maxDelayTimeSeconds*sampleRate))+2),
	}
	d.target = d.delaySeconds * sampleRate
	d.current = d.target

	return d, nil
}

// SetTime sets the delay time in seconds. The effective delay glides to the
// new value.
func (d *Delay) SetTime(seconds float64) error {
	if seconds < minDelayTimeSeconds || seconds > maxDelayTimeSeconds ||
		math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return fmt.Errorf("delay time must be in [%f, %f]: %f",
			minDelayTimeSeconds, maxDelayTimeSeconds, seconds)
	}

	d.delaySeconds = seconds
	d.target = seconds * d.sampleRate

	return nil
}

// SetFeedback sets feedback amount in [0, 0.99].
func (d *Delay) SetFeedback(feedback float64) error {
	if feedback < 0 || feedback > 0.99 || math.IsNaN(feedback) || math.IsInf(feedback, 0) {
		return fmt.Errorf("delay feedback must be in [0, 0.99]: %f", feedback)
	}

	d.feedback = feedback

	return nil
}

// SetMix sets wet amount in [0, 1].
func (d *Delay) SetMix(mix float64) error {
	if mix < 0 || mix > 1 || math.IsNaN(mix) || math.IsInf(mix, 0) {
		return fmt.Errorf("delay mix must be in [0, 1]: %f", mix)
	}

	d.mix = mix

	return nil
}

// Reset clears delay state and snaps the delay time to its target.
func (d *Delay) Reset() {
	clear(d.buffer)
	d.write = 0
	d.current = d.target
}

// ProcessSample processes one sample.
func (d *Delay) ProcessSample(input float64) float64 {
	d.current += (d.target - d.current) * d.glide

	delayed := d.read(d.current)

	d.buffer[d.write] = input + delayed*d.feedback
	d.write++
	if d.write >= len(d.buffer) {
		d.write = 0
	}

	return input*(1-d.mix) + delayed*d.mix
}

// ProcessInPlace applies delay to buf in place.
func (d *Delay) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = d.ProcessSample(buf[i])
	}
}

// read returns the sample delaySamples behind the write head, linearly
// interpolated.
func (d *Delay) read(delaySamples float64) float64 {
	delaySamples = math.Max(1, delaySamples)

	pos := float64(d.write) - delaySamples
	for pos < 0 {
		pos += float64(len(d.buffer))
	}

	i0 := int(pos)
	frac := pos - float64(i0)

	i1 := i0 + 1
	if i1 >= len(d.buffer) {
		i1 = 0
	}

	return d.buffer[i0] + (d.buffer[i1]-d.buffer[i0])*frac
}

// SampleRate returns sample rate in Hz.
func (d *Delay) SampleRate() float64 { return d.sampleRate }

// Time returns the requested delay time in seconds.
func (d *Delay) Time() float64 { return d.delaySeconds }

// CurrentDelaySamples returns the effective, possibly gliding, delay.
func (d *Delay) CurrentDelaySamples() float64 { return d.current }

// Feedback returns feedback amount in [0, 0.99].
func (d *Delay) Feedback() float64 { return d.feedback }

// Mix returns wet amount in [0, 1].
func (d *Delay) Mix() float64 { return d.mix }

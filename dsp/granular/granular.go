// Package granular implements a buffer-based granular synthesizer. Grains
// are scheduled at a fixed rate, read from a loaded sample buffer with
// linear interpolation, shaped by a selectable window and panned in stereo.
package granular

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/cwbudde/algo-synth/dsp/window"
)

const (
	defaultGrainRate     = 20.0
	defaultGrainDuration = 0.1
	defaultPosition      = 0.5
	defaultPitch         = 1.0
	defaultAmplitude     = 0.7
	defaultPositionVar   = 0.1
	defaultDurationVar   = 0.1
	defaultPanVar        = 0.2
	defaultSeed          = 1

	minGrainRate     = 0.1
	maxGrainRate     = 200.0
	minGrainDuration = 0.005
	maxGrainDuration = 0.5
	minPitch         = 0.25
	maxPitch         = 4.0
	maxVoices        = 64

	// maxPitchVarOctaves is the pitch spread at a pitch variation of 1.
	maxPitchVarOctaves = 1.0
)

type grain struct {
	active bool
	pos    float64
	step   float64
	age    int
	dur    int
	gainL  float64
	gainR  float64
}

// Granular generates a stereo grain cloud from a sample buffer. It is
// real-time safe (no per-sample allocations) and not thread-safe.
type Granular struct {
	sampleRate float64
	active     bool

	rate          float64
	duration      float64
	position      float64
	pitch         float64
	amplitude     float64
	positionVar   float64
	pitchVar      float64
	durationVar   float64
	pan           float64
	panVar        float64
	windowType    window.Type
	seed          uint64
	spawnInterval int
	nextSpawn     int

	buffer []float32
	grains [maxVoices]grain
	rng    *rand.Rand
}

// New returns an inactive granular synthesizer with an empty buffer.
func New(sampleRate float64) (*Granular, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("granular sample rate must be > 0: %f", sampleRate)
	}

	g := &Granular{
		sampleRate:  sampleRate,
		rate:        defaultGrainRate,
		duration:    defaultGrainDuration,
		position:    defaultPosition,
		pitch:       defaultPitch,
		amplitude:   defaultAmplitude,
		positionVar: defaultPositionVar,
		durationVar: defaultDurationVar,
		panVar:      defaultPanVar,
		windowType:  window.TypeHann,
		seed:        defaultSeed,
		rng:         rand.New(rand.NewPCG(defaultSeed, defaultSeed)),
	}
	g.updateInterval()

	return g, nil
}

// SetBuffer replaces the source buffer. The slice is retained, not copied,
// and must not be modified afterwards. Running grains are dropped.
func (g *Granular) SetBuffer(buf []float32) {
	g.buffer = buf
	g.grains = [maxVoices]grain{}
	g.nextSpawn = 0
}

// BufferLen returns the number of samples in the source buffer.
func (g *Granular) BufferLen() int { return len(g.buffer) }

// SetActive turns grain generation on or off. Switching off stops spawning;
// grains already sounding finish their envelope.
func (g *Granular) SetActive(active bool) { g.active = active }

// Active reports whether new grains are spawned.
func (g *Granular) Active() bool { return g.active }

// SetGrainRate sets the number of grains started per second.
func (g *Granular) SetGrainRate(hz float64) error {
	if err := checkRange("grain rate", hz, minGrainRate, maxGrainRate); err != nil {
		return err
	}

	g.rate = hz
	g.updateInterval()

	return nil
}

// SetGrainDuration sets the nominal grain length in seconds.
func (g *Granular) SetGrainDuration(seconds float64) error {
	if err := checkRange("grain duration", seconds, minGrainDuration, maxGrainDuration); err != nil {
		return err
	}

	g.duration = seconds

	return nil
}

// SetPosition sets the normalized read position in the buffer.
func (g *Granular) SetPosition(pos float64) error {
	if err := checkRange("position", pos, 0, 1); err != nil {
		return err
	}

	g.position = pos

	return nil
}

// SetPitch sets the playback ratio of new grains.
func (g *Granular) SetPitch(ratio float64) error {
	if err := checkRange("pitch", ratio, minPitch, maxPitch); err != nil {
		return err
	}

	g.pitch = ratio

	return nil
}

// SetAmplitude sets the output gain.
func (g *Granular) SetAmplitude(amp float64) error {
	if err := checkRange("amplitude", amp, 0, 1); err != nil {
		return err
	}

	g.amplitude = amp

	return nil
}

// SetPositionVariation sets the random spread of the start position as a
// fraction of the buffer.
func (g *Granular) SetPositionVariation(v float64) error {
	if err := checkRange("position variation", v, 0, 1); err != nil {
		return err
	}

	g.positionVar = v

	return nil
}

// SetPitchVariation sets the random pitch spread; 1 means one octave either
// way.
func (g *Granular) SetPitchVariation(v float64) error {
	if err := checkRange("pitch variation", v, 0, 1); err != nil {
		return err
	}

	g.pitchVar = v

	return nil
}

// SetDurationVariation sets the random spread of grain length, relative to
// the nominal duration.
func (g *Granular) SetDurationVariation(v float64) error {
	if err := checkRange("duration variation", v, 0, 1); err != nil {
		return err
	}

	g.durationVar = v

	return nil
}

// SetPan sets the centre pan position in [-1, 1].
func (g *Granular) SetPan(pan float64) error {
	if err := checkRange("pan", pan, -1, 1); err != nil {
		return err
	}

	g.pan = pan

	return nil
}

// SetPanVariation sets the random pan spread.
func (g *Granular) SetPanVariation(v float64) error {
	if err := checkRange("pan variation", v, 0, 1); err != nil {
		return err
	}

	g.panVar = v

	return nil
}

// SetWindowType selects the grain envelope.
func (g *Granular) SetWindowType(t window.Type) error {
	switch t {
	case window.TypeHann, window.TypeTriangle, window.TypeRectangular, window.TypeGauss:
	default:
		return fmt.Errorf("granular window type not supported: %s", t)
	}

	g.windowType = t

	return nil
}

// SetRandomSeed sets the RNG seed for deterministic grain variation.
func (g *Granular) SetRandomSeed(seed uint64) {
	g.seed = seed
	g.Reset()
}

// Reset drops all grains and rewinds the random state.
func (g *Granular) Reset() {
	g.grains = [maxVoices]grain{}
	g.nextSpawn = 0
	g.rng = rand.New(rand.NewPCG(g.seed, g.seed))
}

// ActiveGrains returns the number of sounding grains.
func (g *Granular) ActiveGrains() int {
	n := 0
	for i := range g.grains {
		if g.grains[i].active {
			n++
		}
	}

	return n
}

// Process renders one stereo frame. It returns silence when no buffer is
// loaded.
func (g *Granular) Process() (float64, float64) {
	if len(g.buffer) < 2 {
		return 0, 0
	}

	if g.active {
		if g.nextSpawn <= 0 {
			g.spawn()
			g.nextSpawn = g.spawnInterval
		}
		g.nextSpawn--
	}

	var left, right float64

	n := float64(len(g.buffer))

	for i := range g.grains {
		gr := &g.grains[i]
		if !gr.active {
			continue
		}

		env := window.At(g.windowType, float64(gr.age)/float64(gr.dur-1))
		s := g.readLinear(gr.pos) * env
		left += s * gr.gainL
		right += s * gr.gainR

		gr.pos += gr.step
		for gr.pos >= n {
			gr.pos -= n
		}

		gr.age++
		if gr.age >= gr.dur {
			gr.active = false
		}
	}

	return left * g.amplitude, right * g.amplitude
}

func (g *Granular) spawn() {
	slot := -1

	for i := range g.grains {
		if !g.grains[i].active {
			slot = i
			break
		}
	}

	if slot < 0 {
		return
	}

	n := float64(len(g.buffer))

	pos := (g.position + g.positionVar*g.bipolar()) * n
	pos = math.Mod(pos, n)
	if pos < 0 {
		pos += n
	}

	seconds := g.duration * (1 + g.durationVar*g.bipolar())
	dur := max(2, int(math.Round(seconds*g.sampleRate)))

	step := g.pitch * math.Exp2(g.pitchVar*maxPitchVarOctaves*g.bipolar())

	pan := math.Max(-1, math.Min(1, g.pan+g.panVar*g.bipolar()))
	angle := (pan + 1) * math.Pi / 4

	g.grains[slot] = grain{
		active: true,
		pos:    pos,
		step:   step,
		dur:    dur,
		gainL:  math.Cos(angle),
		gainR:  math.Sin(angle),
	}
}

// bipolar returns a uniform random value in [-1, 1).
func (g *Granular) bipolar() float64 {
	return g.rng.Float64()*2 - 1
}

func (g *Granular) readLinear(pos float64) float64 {
	i0 := int(pos)
	frac := pos - float64(i0)

	i1 := i0 + 1
	if i1 >= len(g.buffer) {
		i1 = 0
	}

	v0 := float64(g.buffer[i0])
	v1 := float64(g.buffer[i1])

	return v0 + (v1-v0)*frac
}

func (g *Granular) updateInterval() {
	g.spawnInterval = max(1, int(math.Round(g.sampleRate/g.rate)))
}

func checkRange(name string, v, lo, hi float64) error {
	if v < lo || v > hi || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("granular %s must be in [%g, %g]: %g", name, lo, hi, v)
	}

	return nil
}

// SampleRate returns sample rate in Hz.
func (g *Granular) SampleRate() float64 { return g.sampleRate }

// GrainRate returns grains per second.
func (g *Granular) GrainRate() float64 { return g.rate }

// GrainDuration returns nominal grain length in seconds.
func (g *Granular) GrainDuration() float64 { return g.duration }

// Position returns the normalized read position.
func (g *Granular) Position() float64 { return g.position }

// Pitch returns the playback ratio.
func (g *Granular) Pitch() float64 { return g.pitch }

// Amplitude returns the output gain.
func (g *Granular) Amplitude() float64 { return g.amplitude }

// WindowType returns the grain envelope.
func (g *Granular) WindowType() window.Type { return g.windowType }

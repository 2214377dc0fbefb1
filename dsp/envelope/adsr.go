// Package envelope implements the linear ADSR amplitude envelope shared by
// all oscillators.
package envelope

import (
	"fmt"
	"math"
)

// Stage is the current envelope segment.
type Stage int

const (
	StageIdle Stage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

func (s Stage) String() string {
	switch s {
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	default:
		return "idle"
	}
}

const (
	defaultAttack  = 0.01
	defaultDecay   = 0.1
	defaultSustain = 0.7
	defaultRelease = 0.5

	minTimeSeconds = 0.001
	maxTimeSeconds = 10.0
)

// ADSR is a linear attack/decay/sustain/release envelope. Retriggering
// starts the attack from the current level, so there is no jump.
//
// ADSR is not safe for concurrent use.
type ADSR struct {
	sampleRate float64
	attack     float64
	decay      float64
	sustain    float64
	release    float64

	stage       Stage
	level       float64
	velocity    float64
	releaseStep float64
}

// New returns an idle envelope with practical defaults.
func New(sampleRate float64) (*ADSR, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("envelope sample rate must be > 0: %f", sampleRate)
	}

	return &ADSR{
		sampleRate: sampleRate,
		attack:     defaultAttack,
		decay:      defaultDecay,
		sustain:    defaultSustain,
		release:    defaultRelease,
	}, nil
}

func validateTime(name string, seconds float64) error {
	if seconds < minTimeSeconds || seconds > maxTimeSeconds || math.IsNaN(seconds) {
		return fmt.Errorf("envelope %s must be in [%f, %f]: %f",
			name, minTimeSeconds, maxTimeSeconds, seconds)
	}
	return nil
}

// SetAttack sets the attack time in seconds.
func (e *ADSR) SetAttack(seconds float64) error {
	if err := validateTime("attack", seconds); err != nil {
		return err
	}
	e.attack = seconds
	return nil
}

// SetDecay sets the decay time in seconds.
func (e *ADSR) SetDecay(seconds float64) error {
	if err := validateTime("decay", seconds); err != nil {
		return err
	}
	e.decay = seconds
	return nil
}

// SetSustain sets the sustain level in [0, 1].
func (e *ADSR) SetSustain(level float64) error {
	if level < 0 || level > 1 || math.IsNaN(level) {
		return fmt.Errorf("envelope sustain must be in [0, 1]: %f", level)
	}
	e.sustain = level
	return nil
}

// SetRelease sets the release time in seconds.
func (e *ADSR) SetRelease(seconds float64) error {
	if err := validateTime("release", seconds); err != nil {
		return err
	}
	e.release = seconds
	return nil
}

// Attack returns the attack time in seconds.
func (e *ADSR) Attack() float64 { return e.attack }

// Decay returns the decay time in seconds.
func (e *ADSR) Decay() float64 { return e.decay }

// Sustain returns the sustain level.
func (e *ADSR) Sustain() float64 { return e.sustain }

// Release returns the release time in seconds.
func (e *ADSR) Release() float64 { return e.release }

// Stage returns the current segment.
func (e *ADSR) Stage() Stage { return e.stage }

// IsActive reports whether the envelope produces non-zero output.
func (e *ADSR) IsActive() bool { return e.stage != StageIdle }

// NoteOn starts the attack with velocity in [0, 1] scaling the output.
func (e *ADSR) NoteOn(velocity float64) {
	e.velocity = math.Max(0, math.Min(1, velocity))
	e.stage = StageAttack
}

// NoteOff starts the release from the current level.
func (e *ADSR) NoteOff() {
	if e.stage == StageIdle {
		return
	}

	e.stage = StageRelease
	e.releaseStep = e.level / (e.release * e.sampleRate)
}

// Reset returns to idle at zero level.
func (e *ADSR) Reset() {
	e.stage = StageIdle
	e.level = 0
}

// Process advances the envelope by one sample and returns its output.
func (e *ADSR) Process() float64 {
	switch e.stage {
	case StageAttack:
		e.level += 1 / (e.attack * e.sampleRate)
		if e.level >= 1 {
			e.level = 1
			e.stage = StageDecay
		}
	case StageDecay:
		e.level -= (1 - e.sustain) / (e.decay * e.sampleRate)
		if e.level <= e.sustain {
			e.level = e.sustain
			e.stage = StageSustain
		}
	case StageSustain:
		e.level = e.sustain
	case StageRelease:
		e.level -= e.releaseStep
		if e.level <= 0 || e.releaseStep <= 0 {
			e.level = 0
			e.stage = StageIdle
		}
	default:
		return 0
	}

	return e.level * e.velocity
}

// Package wavetable holds named single-cycle wavetables. A table is a
// sequence of frames; the playback position morphs linearly between
// neighbouring frames.
package wavetable

import (
	"errors"
	"fmt"
	"math"
)

// DefaultFrameSize is the sample count of each frame in the built-in tables.
const DefaultFrameSize = 2048

var (
	errNoFrames       = errors.New("wavetable: table needs at least one frame")
	errFrameTooShort  = errors.New("wavetable: frames need at least 2 samples")
	errFrameMismatch  = errors.New("wavetable: all frames must have the same length")
	errDuplicateTable = errors.New("wavetable: duplicate table name")
)

// Table is an immutable morphing wavetable.
type Table struct {
	name   string
	frames [][]float64
}

// NewTable copies frames into a table named name.
func NewTable(name string, frames [][]float64) (*Table, error) {
	if len(frames) == 0 {
		return nil, errNoFrames
	}

	size := len(frames[0])
	if size < 2 {
		return nil, errFrameTooShort
	}

	t := &Table{name: name, frames: make([][]float64, len(frames))}
	for i, f := range frames {
		if len(f) != size {
			return nil, fmt.Errorf("%w: frame %d has %d samples, want %d", errFrameMismatch, i, len(f), size)
		}
		t.frames[i] = append([]float64(nil), f...)
	}

	return t, nil
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Frames returns the number of frames.
func (t *Table) Frames() int { return len(t.frames) }

// FrameSize returns the samples per frame.
func (t *Table) FrameSize() int { return len(t.frames[0]) }

// Sample reads the table at phase in [0, 1) and morph position in [0, 1].
func (t *Table) Sample(phase, position float64) float64 {
	position = math.Max(0, math.Min(1, position))

	fpos := position * float64(len(t.frames)-1)
	f0 := int(fpos)
	f1 := min(f0+1, len(t.frames)-1)
	morph := fpos - float64(f0)

	a := readLinear(t.frames[f0], phase)
	if morph == 0 || f0 == f1 {
		return a
	}

	b := readLinear(t.frames[f1], phase)

	return a + (b-a)*morph
}

func readLinear(frame []float64, phase float64) float64 {
	phase -= math.Floor(phase)

	pos := phase * float64(len(frame))
	i0 := int(pos)
	if i0 >= len(frame) {
		i0 = 0
	}

	i1 := i0 + 1
	if i1 >= len(frame) {
		i1 = 0
	}

	frac := pos - float64(int(pos))

	return frame[i0] + (frame[i1]-frame[i0])*frac
}

// Additive builds a frame of size samples from harmonic amplitudes, where
// harmonics[k] is the amplitude of partial k+1. The frame is normalized to
// a peak of 1.
func Additive(size int, harmonics []float64) []float64 {
	frame := make([]float64, size)

	for k, amp := range harmonics {
		if amp == 0 {
			continue
		}

		step := 2 * math.Pi * float64(k+1) / float64(size)
		for i := range frame {
			frame[i] += amp * math.Sin(step*float64(i))
		}
	}

	peak := 0.0
	for _, v := range frame {
		peak = math.Max(peak, math.Abs(v))
	}

	if peak > 0 {
		for i := range frame {
			frame[i] /= peak
		}
	}

	return frame
}

package oscillator

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/dsp/wavetable"
)

// Wavetable is an oscillator that can also play tables from a bank. With
// any waveform other than WaveTable it behaves like the basic oscillator.
type Wavetable struct {
	Oscillator

	bank     *wavetable.Bank
	table    *wavetable.Table
	position float64
}

// NewWavetable returns a wavetable-capable oscillator reading from bank.
// The first table of the bank is selected.
func NewWavetable(sampleRate float64, bank *wavetable.Bank) (*Wavetable, error) {
	base, err := New(sampleRate)
	if err != nil {
		return nil, err
	}

	w := &Wavetable{Oscillator: *base, bank: bank}
	if bank != nil {
		w.table, _ = bank.At(0)
	}

	return w, nil
}

// SetType selects the waveform, including WaveTable.
func (w *Wavetable) SetType(wf Waveform) error {
	if wf == WaveTable {
		if w.table == nil {
			return fmt.Errorf("oscillator has no wavetable selected")
		}
		w.waveform = wf
		return nil
	}

	return w.Oscillator.SetType(wf)
}

// SelectWavetable switches to the table named name and reports whether it
// exists.
func (w *Wavetable) SelectWavetable(name string) bool {
	if w.bank == nil {
		return false
	}

	t, ok := w.bank.Lookup(name)
	if ok {
		w.table = t
	}

	return ok
}

// SetWavetablePosition sets the morph position in [0, 1].
func (w *Wavetable) SetWavetablePosition(pos float64) error {
	if pos < 0 || pos > 1 || math.IsNaN(pos) {
		return fmt.Errorf("wavetable position must be in [0, 1]: %f", pos)
	}

	w.position = pos

	return nil
}

// Wavetable returns the selected table name.
func (w *Wavetable) Wavetable() string {
	if w.table == nil {
		return ""
	}
	return w.table.Name()
}

// WavetablePosition returns the morph position.
func (w *Wavetable) WavetablePosition() float64 { return w.position }

// Process returns the next sample, scaled by the volume.
func (w *Wavetable) Process() float64 {
	if w.waveform != WaveTable || w.table == nil {
		return w.Oscillator.Process()
	}

	return w.volume * w.table.Sample(w.advance(), w.position)
}

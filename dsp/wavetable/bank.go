package wavetable

import (
	"fmt"
	"math"
)

// Bank is an ordered collection of tables addressed by name or index. It
// is populated before playback and read-only afterwards.
type Bank struct {
	tables []*Table
	byName map[string]*Table
}

// NewBank returns an empty bank.
func NewBank() *Bank {
	return &Bank{byName: make(map[string]*Table)}
}

// Add appends t. Names must be unique.
func (b *Bank) Add(t *Table) error {
	if _, ok := b.byName[t.Name()]; ok {
		return fmt.Errorf("%w: %q", errDuplicateTable, t.Name())
	}

	b.tables = append(b.tables, t)
	b.byName[t.Name()] = t

	return nil
}

// Lookup returns the table named name.
func (b *Bank) Lookup(name string) (*Table, bool) {
	t, ok := b.byName[name]
	return t, ok
}

// At returns the table at index i in insertion order.
func (b *Bank) At(i int) (*Table, bool) {
	if i < 0 || i >= len(b.tables) {
		return nil, false
	}
	return b.tables[i], true
}

// Names returns the table names in insertion order.
func (b *Bank) Names() []string {
	names := make([]string, len(b.tables))
	for i, t := range b.tables {
		names[i] = t.Name()
	}
	return names
}

// Len returns the number of tables.
func (b *Bank) Len() int { return len(b.tables) }

// DefaultBank returns the built-in tables:
//
//	basic      sine, triangle, saw, square
//	harmonics  1 to 16 equal-weight partials
//	pulse      pulse widths from 50% down to 5%
func DefaultBank(frameSize int) (*Bank, error) {
	if frameSize < 2 {
		return nil, errFrameTooShort
	}

	b := NewBank()

	builders := []struct {
		name   string
		frames [][]float64
	}{
		{"basic", basicFrames(frameSize)},
		{"harmonics", harmonicFrames(frameSize)},
		{"pulse", pulseFrames(frameSize)},
	}

	for _, bl := range builders {
		t, err := NewTable(bl.name, bl.frames)
		if err != nil {
			return nil, err
		}
		if err := b.Add(t); err != nil {
			return nil, err
		}
	}

	return b, nil
}

func basicFrames(size int) [][]float64 {
	const partials = 32

	sine := Additive(size, []float64{1})

	tri := make([]float64, partials)
	saw := make([]float64, partials)
	square := make([]float64, partials)

	for k := 1; k <= partials; k++ {
		saw[k-1] = 1 / float64(k)
		if k%2 == 1 {
			square[k-1] = 1 / float64(k)
			sign := 1.0
			if (k/2)%2 == 1 {
				sign = -1
			}
			tri[k-1] = sign / float64(k*k)
		}
	}

	return [][]float64{sine, Additive(size, tri), Additive(size, saw), Additive(size, square)}
}

func harmonicFrames(size int) [][]float64 {
	frames := make([][]float64, 0, 16)
	for n := 1; n <= 16; n++ {
		h := make([]float64, n)
		for i := range h {
			h[i] = 1
		}
		frames = append(frames, Additive(size, h))
	}
	return frames
}

func pulseFrames(size int) [][]float64 {
	const partials = 32

	widths := []float64{0.5, 0.35, 0.25, 0.15, 0.05}
	frames := make([][]float64, 0, len(widths))

	for _, w := range widths {
		h := make([]float64, partials)
		for k := 1; k <= partials; k++ {
			h[k-1] = math.Sin(math.Pi*float64(k)*w) / float64(k)
		}
		frames = append(frames, Additive(size, h))
	}

	return frames
}

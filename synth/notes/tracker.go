// Package notes tracks which MIDI notes are currently held.
package notes

import (
	"math"
	"slices"
	"sync"
)

// Frequency returns the equal-temperament frequency of a MIDI note with A4
// (note 69) at 440 Hz.
func Frequency(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}

// Tracker is a set of held notes with their normalized velocities. It is
// safe for concurrent use.
type Tracker struct {
	mu   sync.Mutex
	held map[int]float64
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{held: make(map[int]float64)}
}

// NoteOn marks note as held. Re-pressing a held note updates its velocity.
func (t *Tracker) NoteOn(note int, velocity float64) {
	t.mu.Lock()
	t.held[note] = velocity
	t.mu.Unlock()
}

// NoteOff releases note. released reports whether the note was held; empty
// reports whether no notes remain held afterwards.
func (t *Tracker) NoteOff(note int) (released, empty bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.held[note]; !ok {
		return false, len(t.held) == 0
	}

	delete(t.held, note)

	return true, len(t.held) == 0
}

// Held reports whether note is currently held.
func (t *Tracker) Held(note int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.held[note]

	return ok
}

// Velocity returns the normalized velocity of a held note.
func (t *Tracker) Velocity(note int) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, ok := t.held[note]

	return v, ok
}

// Len returns the number of held notes.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.held)
}

// Notes returns the held notes in ascending order.
func (t *Tracker) Notes() []int {
	t.mu.Lock()
	out := make([]int, 0, len(t.held))
	for n := range t.held {
		out = append(out, n)
	}
	t.mu.Unlock()

	slices.Sort(out)

	return out
}

// Clear releases every note.
func (t *Tracker) Clear() {
	t.mu.Lock()
	clear(t.held)
	t.mu.Unlock()
}

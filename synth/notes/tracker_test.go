package notes

import (
	"math"
	"slices"
	"testing"
)

func TestFrequency(t *testing.T) {
	tests := []struct {
		note int
		want float64
	}{
		{69, 440},
		{81, 880},
		{57, 220},
		{60, 261.6255653005986},
	}

	for _, tt := range tests {
		if got := Frequency(tt.note); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Frequency(%d) = %v, want %v", tt.note, got, tt.want)
		}
	}
}

func TestTrackerLifecycle(t *testing.T) {
	tr := NewTracker()

	tr.NoteOn(60, 1)
	tr.NoteOn(64, 0.5)

	if released, empty := tr.NoteOff(60); !released || empty {
		t.Fatalf("NoteOff(60) = %v, %v; want true, false", released, empty)
	}

	if released, empty := tr.NoteOff(60); released || empty {
		t.Fatalf("second NoteOff(60) = %v, %v; want false, false", released, empty)
	}

	if released, empty := tr.NoteOff(64); !released || !empty {
		t.Fatalf("NoteOff(64) = %v, %v; want true, true", released, empty)
	}
}

func TestTrackerRetrigger(t *testing.T) {
	tr := NewTracker()
	tr.NoteOn(60, 0.2)
	tr.NoteOn(60, 0.9)

	if tr.Len() != 1 {
		t.Fatalf("Len = %d, want 1", tr.Len())
	}

	if v, ok := tr.Velocity(60); !ok || v != 0.9 {
		t.Fatalf("Velocity = %v, %v", v, ok)
	}
}

func TestTrackerNotesSorted(t *testing.T) {
	tr := NewTracker()
	for _, n := range []int{72, 48, 60} {
		tr.NoteOn(n, 1)
	}

	if got := tr.Notes(); !slices.Equal(got, []int{48, 60, 72}) {
		t.Fatalf("Notes = %v", got)
	}

	tr.Clear()

	if tr.Held(60) || tr.Len() != 0 {
		t.Fatal("Clear left notes held")
	}
}

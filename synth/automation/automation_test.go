package automation

import (
	"testing"
	"time"

	"github.com/cwbudde/algo-synth/internal/testutil"
	"github.com/cwbudde/algo-synth/synth/param"
)

func TestRecordOnlyWhileRecording(t *testing.T) {
	a := New(WithClock(testutil.NewManualClock()))

	if a.Record(param.ReverbMix, 0.5) {
		t.Fatal("Record captured while idle")
	}

	a.StartRecording()

	if !a.Record(param.ReverbMix, 0.5) {
		t.Fatal("Record failed while recording")
	}

	a.StopRecording()

	if a.Record(param.ReverbMix, 0.7) {
		t.Fatal("Record captured after StopRecording")
	}

	if got := len(a.Track(param.ReverbMix)); got != 1 {
		t.Fatalf("track length = %d, want 1", got)
	}
}

func TestPlaybackOrder(t *testing.T) {
	clock := testutil.NewManualClock()
	a := New(WithClock(clock))

	a.StartRecording()
	a.Record(param.FilterCutoff, 0.1)
	clock.Advance(100 * time.Millisecond)
	a.Record(param.FilterCutoff, 0.2)
	a.Record(param.ReverbMix, 0.9)
	clock.Advance(200 * time.Millisecond)
	a.Record(param.FilterCutoff, 0.3)
	a.StopRecording()

	if !a.StartPlayback() {
		t.Fatal("StartPlayback returned false with data")
	}

	var applied []Event
	apply := func(ev Event) { applied = append(applied, ev) }

	if n := a.Advance(apply); n != 1 || applied[0].Value != 0.1 {
		t.Fatalf("t=0: applied %v", applied)
	}

	clock.Advance(150 * time.Millisecond)
	a.Advance(apply)

	if len(applied) != 3 {
		t.Fatalf("t=150ms: applied %d events, want 3", len(applied))
	}

	clock.Advance(time.Second)
	a.Advance(apply)

	var cutoff []float64
	for _, ev := range applied {
		if ev.Param == param.FilterCutoff {
			cutoff = append(cutoff, ev.Value)
		}
	}

	if len(cutoff) != 3 || cutoff[0] != 0.1 || cutoff[1] != 0.2 || cutoff[2] != 0.3 {
		t.Fatalf("cutoff replay order = %v", cutoff)
	}

	// Exhausted tracks replay nothing further.
	if n := a.Advance(apply); n != 0 {
		t.Fatalf("exhausted Advance applied %d", n)
	}
}

func TestOffsetsNonDecreasing(t *testing.T) {
	clock := testutil.NewManualClock()
	a := New(WithClock(clock))

	a.StartRecording()
	for i := 0; i < 10; i++ {
		a.Record(param.DelayTime, float64(i))
		clock.Advance(time.Duration(i) * time.Millisecond)
	}

	track := a.Track(param.DelayTime)
	for i := 1; i < len(track); i++ {
		if track[i].Offset < track[i-1].Offset {
			t.Fatalf("offset %d decreased: %v < %v", i, track[i].Offset, track[i-1].Offset)
		}
	}
}

func TestStateTransitions(t *testing.T) {
	a := New(WithClock(testutil.NewManualClock()))

	if a.StartPlayback() {
		t.Fatal("StartPlayback without data must fail")
	}

	if a.State() != StateIdle {
		t.Fatalf("state = %v, want idle", a.State())
	}

	a.StartRecording()
	a.Record(param.MasterVolume, 0.5)

	if !a.StartPlayback() || !a.IsPlaying() || a.IsRecording() {
		t.Fatalf("playback must stop recording, state = %v", a.State())
	}

	a.StartRecording()

	if a.IsPlaying() || a.HasData() {
		t.Fatal("StartRecording must stop playback and clear tracks")
	}

	a.Record(param.MasterVolume, 0.5)
	a.StartPlayback()
	a.ClearAll()

	if a.State() != StateIdle || a.HasData() {
		t.Fatalf("ClearAll left state=%v data=%v", a.State(), a.HasData())
	}
}

func TestAdvanceScratchLimit(t *testing.T) {
	clock := testutil.NewManualClock()
	a := New(WithClock(clock), WithScratchSize(2))

	a.StartRecording()
	for i := 0; i < 5; i++ {
		a.Record(param.ReverbMix, float64(i))
	}
	a.StopRecording()
	a.StartPlayback()

	var values []float64
	apply := func(ev Event) { values = append(values, ev.Value) }

	total := 0
	for i := 0; i < 3; i++ {
		total += a.Advance(apply)
	}

	if total != 5 {
		t.Fatalf("applied %d events, want 5", total)
	}

	for i, v := range values {
		if v != float64(i) {
			t.Fatalf("values = %v", values)
		}
	}
}

func TestAdvanceCallbackMayReenter(t *testing.T) {
	clock := testutil.NewManualClock()
	a := New(WithClock(clock))

	a.StartRecording()
	a.Record(param.ReverbMix, 0.3)
	a.StopRecording()
	a.StartPlayback()

	a.Advance(func(ev Event) {
		// The engine records nothing for automation-driven writes, but it
		// does query state from inside the callback.
		_ = a.IsRecording()
		_ = a.Record(ev.Param, ev.Value)
	})

	if got := len(a.Track(param.ReverbMix)); got != 1 {
		t.Fatalf("track length = %d, want 1", got)
	}
}

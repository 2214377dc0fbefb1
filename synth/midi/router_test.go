package midi

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-synth/synth/param"
)

type paramWrite struct {
	id    param.ID
	value float64
}

type recordingSink struct {
	notesOn  []int
	notesOff []int
	params   []paramWrite
	reject   bool
}

func (s *recordingSink) NoteOn(note, velocity int) bool {
	s.notesOn = append(s.notesOn, note)
	return !s.reject
}

func (s *recordingSink) NoteOff(note int) bool {
	s.notesOff = append(s.notesOff, note)
	return !s.reject
}

func (s *recordingSink) SetParameter(id param.ID, value float64, fromAutomation bool) bool {
	s.params = append(s.params, paramWrite{id, value})
	return !s.reject
}

func (s *recordingSink) last(t *testing.T) paramWrite {
	t.Helper()

	if len(s.params) == 0 {
		t.Fatal("no parameter writes")
	}

	return s.params[len(s.params)-1]
}

func TestRouteNotes(t *testing.T) {
	r := NewRouter()
	sink := &recordingSink{}

	if !r.Handle(sink, 0x90, 60, 100) {
		t.Fatal("note on not handled")
	}

	if !r.Handle(sink, 0x90, 60, 0) {
		t.Fatal("note on with zero velocity not handled")
	}

	if !r.Handle(sink, 0x83, 62, 40) {
		t.Fatal("note off not handled")
	}

	if len(sink.notesOn) != 1 || sink.notesOn[0] != 60 {
		t.Fatalf("notesOn = %v", sink.notesOn)
	}

	if len(sink.notesOff) != 2 || sink.notesOff[0] != 60 || sink.notesOff[1] != 62 {
		t.Fatalf("notesOff = %v", sink.notesOff)
	}
}

func TestRoutePitchBendAndPressure(t *testing.T) {
	r := NewRouter()
	sink := &recordingSink{}

	r.Handle(sink, 0xE0, 0x00, 0x40)
	if got := sink.last(t); got.id != param.PitchBend || got.value != 0 {
		t.Fatalf("centre bend = %+v", got)
	}

	r.Handle(sink, 0xE0, 0x00, 0x00)
	if got := sink.last(t); got.value != -1 {
		t.Fatalf("minimum bend = %v, want -1", got.value)
	}

	r.Handle(sink, 0xD2, 127, 0)
	if got := sink.last(t); got.id != param.ChannelAftertouch || got.value != 1 {
		t.Fatalf("aftertouch = %+v", got)
	}
}

func TestRouteFixedBindings(t *testing.T) {
	r := NewRouter()
	sink := &recordingSink{}

	r.Handle(sink, 0xB0, CCVolume, 127)
	if got := sink.last(t); got.id != param.MasterVolume || got.value != 1 {
		t.Fatalf("CC7 = %+v", got)
	}

	r.Handle(sink, 0xB0, CCModWheel, 0)
	if got := sink.last(t); got.id != param.FilterCutoff || math.Abs(got.value-20) > 1e-9 {
		t.Fatalf("CC1 low = %+v", got)
	}

	r.Handle(sink, 0xB0, CCModWheel, 127)
	if got := sink.last(t); math.Abs(got.value-20000) > 1e-6 {
		t.Fatalf("CC1 high = %+v", got)
	}

	if err := r.Route(sink, 0xB0, 74, 10); !errors.Is(err, ErrUnmapped) {
		t.Fatalf("unmapped CC error = %v", err)
	}
}

func TestRouteUnknownStatus(t *testing.T) {
	r := NewRouter()
	sink := &recordingSink{}

	for _, status := range []byte{0xC0, 0xF8, 0x10} {
		if err := r.Route(sink, status, 1, 2); !errors.Is(err, ErrUnknownMessage) {
			t.Errorf("status 0x%02x: err = %v", status, err)
		}
	}

	if len(sink.params)+len(sink.notesOn)+len(sink.notesOff) != 0 {
		t.Fatal("unknown messages reached the sink")
	}
}

func TestMidiLearn(t *testing.T) {
	r := NewRouter()
	sink := &recordingSink{}

	r.StartLearn(param.FilterCutoff)

	if state, id := r.LearnState(); state != LearnActive || id != param.FilterCutoff {
		t.Fatalf("LearnState = %v, %v", state, id)
	}

	if !r.Handle(sink, 0xB0, 74, 64) {
		t.Fatal("learn CC not consumed")
	}

	if len(sink.params) != 0 {
		t.Fatal("learn CC must not be applied")
	}

	if state, _ := r.LearnState(); state != LearnIdle {
		t.Fatal("learn did not return to idle")
	}

	r.Handle(sink, 0xB0, 74, 127)
	if got := sink.last(t); got.id != param.FilterCutoff || got.value != 1 {
		t.Fatalf("mapped CC = %+v", got)
	}

	// Re-learning the same parameter moves the binding.
	r.StartLearn(param.FilterCutoff)
	r.Handle(sink, 0xB0, 71, 0)

	m := r.Mappings()
	if len(m) != 1 || m[71] != param.FilterCutoff {
		t.Fatalf("mappings after relearn = %v", m)
	}

	if v, ok := r.LastValue(71); !ok || v != 0 {
		t.Fatalf("LastValue(71) = %v, %v", v, ok)
	}
}

func TestLearnIgnoresChannelModeControllers(t *testing.T) {
	r := NewRouter()
	sink := &recordingSink{}

	r.StartLearn(param.ReverbMix)

	if err := r.Route(sink, 0xB0, 123, 0); !errors.Is(err, ErrUnmapped) {
		t.Fatalf("Route(cc 123) = %v, want %v", err, ErrUnmapped)
	}

	if len(r.Mappings()) != 0 {
		t.Fatalf("channel mode controller was learned: %v", r.Mappings())
	}

	if state, id := r.LearnState(); state != LearnActive || id != param.ReverbMix {
		t.Fatalf("LearnState = %v, %v; want still armed", state, id)
	}

	r.Handle(sink, 0xB0, 91, 0)

	if m := r.Mappings(); len(m) != 1 || m[91] != param.ReverbMix {
		t.Fatalf("mappings = %v", m)
	}
}

func TestStopLearn(t *testing.T) {
	r := NewRouter()
	sink := &recordingSink{}

	r.StartLearn(param.ReverbMix)
	r.StopLearn()

	if r.Handle(sink, 0xB0, 20, 5) {
		t.Fatal("CC after StopLearn must stay unmapped")
	}

	if len(r.Mappings()) != 0 {
		t.Fatal("StopLearn created a mapping")
	}
}

func TestUIChannel(t *testing.T) {
	r := NewRouter()
	sink := &recordingSink{}

	type uiEvent struct{ panel, cc, value int }

	var events []uiEvent
	r.SetUIControlFunc(func(panel, cc, value int) {
		events = append(events, uiEvent{panel, cc, value})
	})

	r.Handle(sink, 0xBF, CCPanelSelectMSB, 3)
	r.Handle(sink, 0xBF, CCPanelSelectLSB, 130)

	if r.UIPanel() != 2 {
		t.Fatalf("panel = %d, want 2", r.UIPanel())
	}

	r.Handle(sink, 0xBF, CCPanelCycle, 0)
	if r.UIPanel() != 3 {
		t.Fatalf("panel after cycle = %d, want 3", r.UIPanel())
	}

	for _, cc := range []byte{102, 108, 110} {
		if !r.Handle(sink, 0xBF, cc, 9) {
			t.Fatalf("UI cc %d not consumed", cc)
		}
	}

	if !r.Handle(sink, 0xBF, CCVolume, 100) {
		t.Fatal("other UI channel CCs must report success")
	}

	if len(events) != 3 || events[0] != (uiEvent{3, 102, 9}) {
		t.Fatalf("UI events = %+v", events)
	}

	if len(sink.params) != 0 {
		t.Fatal("UI channel reached the sound sink")
	}
}

func TestPanelCycleWraps(t *testing.T) {
	r := NewRouter()
	sink := &recordingSink{}

	r.Handle(sink, 0xBF, CCPanelSelectLSB, 127)
	r.Handle(sink, 0xBF, CCPanelCycle, 0)

	if r.UIPanel() != 0 {
		t.Fatalf("panel = %d, want 0", r.UIPanel())
	}
}

func TestGenericPassthrough(t *testing.T) {
	r := NewRouter(WithGenericPassthrough())
	sink := &recordingSink{}

	if !r.Handle(sink, 0xB0, 74, 127) {
		t.Fatal("passthrough CC not handled")
	}

	if got := sink.last(t); got.id != 274 || got.value != 1 {
		t.Fatalf("passthrough write = %+v", got)
	}
}

func TestReplaceMappings(t *testing.T) {
	r := NewRouter()
	r.ReplaceMappings(map[int]param.ID{
		74:  param.FilterCutoff,
		20:  param.FilterCutoff,
		71:  param.FilterResonance,
		500: param.ReverbMix,
	})

	m := r.Mappings()
	if len(m) != 2 || m[20] != param.FilterCutoff || m[71] != param.FilterResonance {
		t.Fatalf("mappings = %v", m)
	}
}

func TestRouteRejected(t *testing.T) {
	r := NewRouter()
	sink := &recordingSink{reject: true}

	if err := r.Route(sink, 0x90, 60, 100); !errors.Is(err, ErrRejected) {
		t.Fatalf("err = %v, want ErrRejected", err)
	}
}

func TestPitchBendBytes(t *testing.T) {
	lsb, msb := PitchBendBytes(8192)
	if lsb != 0 || msb != 0x40 {
		t.Fatalf("PitchBendBytes(8192) = %#x, %#x", lsb, msb)
	}

	lsb, msb = PitchBendBytes(99999)
	if lsb != 0x7f || msb != 0x7f {
		t.Fatalf("clamped = %#x, %#x", lsb, msb)
	}
}

// Package automation records timestamped parameter changes and replays them
// against the audio transport.
package automation

import (
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-synth/synth/param"
)

// State is the recorder/player mode. The modes are mutually exclusive.
type State int32

const (
	StateIdle State = iota
	StateRecording
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateRecording:
		return "recording"
	case StatePlaying:
		return "playing"
	default:
		return "idle"
	}
}

// Event is one recorded parameter change. Offset is measured from the start
// of the recording.
type Event struct {
	Param  param.ID
	Value  float64
	Offset time.Duration
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Option configures an Automation.
type Option func(*Automation)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(a *Automation) {
		if c != nil {
			a.clock = c
		}
	}
}

// WithScratchSize sets how many due events a single Advance call can apply.
// Events beyond that are applied on the next call.
func WithScratchSize(n int) Option {
	return func(a *Automation) {
		if n > 0 {
			a.due = make([]Event, 0, n)
		}
	}
}

const defaultScratchSize = 256

// Automation is the recorder and player. All methods are safe for
// concurrent use; Advance is meant for the audio goroutine and holds the
// lock only while collecting due events.
type Automation struct {
	clock Clock
	state atomic.Int32

	mu          sync.Mutex
	tracks      map[param.ID][]Event
	order       []param.ID
	cursors     map[param.ID]int
	recordStart time.Time
	playStart   time.Time
	due         []Event
}

// New returns an idle Automation with no tracks.
func New(opts ...Option) *Automation {
	a := &Automation{
		clock:   systemClock{},
		tracks:  make(map[param.ID][]Event),
		cursors: make(map[param.ID]int),
		due:     make([]Event, 0, defaultScratchSize),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	return a
}

// State returns the current mode.
func (a *Automation) State() State { return State(a.state.Load()) }

// IsRecording reports whether changes are being captured.
func (a *Automation) IsRecording() bool { return a.State() == StateRecording }

// IsPlaying reports whether tracks are being replayed.
func (a *Automation) IsPlaying() bool { return a.State() == StatePlaying }

// StartRecording discards all tracks, stops playback and starts capturing.
func (a *Automation) StartRecording() {
	a.mu.Lock()
	clear(a.tracks)
	clear(a.cursors)
	a.order = a.order[:0]
	a.recordStart = a.clock.Now()
	a.state.Store(int32(StateRecording))
	a.mu.Unlock()
}

// StopRecording ends capture. It is a no-op unless recording.
func (a *Automation) StopRecording() {
	a.state.CompareAndSwap(int32(StateRecording), int32(StateIdle))
}

// Record appends a change to the track of id while recording and reports
// whether it was captured.
func (a *Automation) Record(id param.ID, value float64) bool {
	if !a.IsRecording() {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.State() != StateRecording {
		return false
	}

	track, ok := a.tracks[id]
	if !ok {
		a.order = append(a.order, id)
		slices.Sort(a.order)
	}

	offset := a.clock.Now().Sub(a.recordStart)
	if n := len(track); n > 0 && offset < track[n-1].Offset {
		offset = track[n-1].Offset
	}

	a.tracks[id] = append(track, Event{Param: id, Value: value, Offset: offset})

	return true
}

// StartPlayback rewinds every track and starts replaying. It stops a running
// recording. With no recorded events it does nothing and returns false.
func (a *Automation) StartPlayback() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.tracks) == 0 {
		return false
	}

	for id := range a.tracks {
		a.cursors[id] = 0
	}

	a.playStart = a.clock.Now()
	a.state.Store(int32(StatePlaying))

	return true
}

// StopPlayback ends replay. It is a no-op unless playing.
func (a *Automation) StopPlayback() {
	a.state.CompareAndSwap(int32(StatePlaying), int32(StateIdle))
}

// ClearAll drops every track and returns to idle.
func (a *Automation) ClearAll() {
	a.mu.Lock()
	clear(a.tracks)
	clear(a.cursors)
	a.order = a.order[:0]
	a.state.Store(int32(StateIdle))
	a.mu.Unlock()
}

// HasData reports whether any track holds events.
func (a *Automation) HasData() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.tracks) > 0
}

// Elapsed returns the playback position, or zero when not playing.
func (a *Automation) Elapsed() time.Duration {
	if !a.IsPlaying() {
		return 0
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	return a.clock.Now().Sub(a.playStart)
}

// Advance applies, in order, every event whose offset has been reached since
// playback started. Events are collected under the lock and handed to apply
// after it is released, so apply may call back into the Automation. It
// returns the number of events applied. Advance reuses an internal buffer
// and must only be called from one goroutine.
func (a *Automation) Advance(apply func(Event)) int {
	if !a.IsPlaying() {
		return 0
	}

	a.mu.Lock()
	if a.State() != StatePlaying {
		a.mu.Unlock()
		return 0
	}

	elapsed := a.clock.Now().Sub(a.playStart)
	due := a.due[:0]

collect:
	for _, id := range a.order {
		track := a.tracks[id]
		cur := a.cursors[id]

		for cur < len(track) && track[cur].Offset <= elapsed {
			if len(due) == cap(due) {
				a.cursors[id] = cur
				break collect
			}

			due = append(due, track[cur])
			cur++
		}

		a.cursors[id] = cur
	}

	a.due = due
	a.mu.Unlock()

	for _, ev := range due {
		apply(ev)
	}

	return len(due)
}

// Track returns a copy of the events recorded for id.
func (a *Automation) Track(id param.ID) []Event {
	a.mu.Lock()
	defer a.mu.Unlock()

	return slices.Clone(a.tracks[id])
}

// Tracks returns a copy of every track keyed by parameter.
func (a *Automation) Tracks() map[param.ID][]Event {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := maps.Clone(a.tracks)
	for id, track := range out {
		out[id] = slices.Clone(track)
	}

	return out
}

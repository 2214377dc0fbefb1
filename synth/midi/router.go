package midi

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/cwbudde/algo-synth/synth/param"
)

// UIChannel is the zero-based MIDI channel reserved for UI control.
const UIChannel = 15

// UI control channel controllers.
const (
	CCPanelSelectMSB = 0
	CCPanelSelectLSB = 32
	CCPanelCycle     = 109
	CCUIFirst        = 102
	CCUILast         = 108
	CCUIExtra        = 110
)

// Sound channel controllers with a fixed binding when unmapped.
const (
	CCModWheel = 1
	CCVolume   = 7
)

const maxController = 119

var (
	// ErrUnknownMessage is returned for status bytes the router does not handle.
	ErrUnknownMessage = errors.New("midi: unsupported message")
	// ErrUnmapped is returned for a control change with no mapping or binding.
	ErrUnmapped = errors.New("midi: unmapped controller")
	// ErrRejected is returned when the sink refuses a routed note or parameter.
	ErrRejected = errors.New("midi: sink rejected message")
)

// Sink receives routed note and parameter events.
type Sink interface {
	NoteOn(note, velocity int) bool
	NoteOff(note int) bool
	SetParameter(id param.ID, value float64, fromAutomation bool) bool
}

// UIControlFunc receives UI channel control changes.
type UIControlFunc func(panelID, controller, value int)

// LearnState reports whether the router is waiting for a CC to learn.
type LearnState int

const (
	LearnIdle LearnState = iota
	LearnActive
)

func (s LearnState) String() string {
	if s == LearnActive {
		return "learning"
	}

	return "idle"
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger used for learn and routing diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithGenericPassthrough routes unmapped controllers without a fixed binding
// to the generic CC parameter range instead of dropping them.
func WithGenericPassthrough() Option {
	return func(r *Router) {
		r.passthrough = true
	}
}

// Router maps MIDI messages onto a Sink. It is safe for concurrent use.
type Router struct {
	logger      *slog.Logger
	passthrough bool

	mu        sync.Mutex
	mappings  map[int]param.ID
	lastValue map[int]int
	learning  bool
	learnID   param.ID
	panelID   int
	uiFunc    UIControlFunc
}

// NewRouter returns a router with an empty CC table.
func NewRouter(opts ...Option) *Router {
	r := &Router{
		logger:    slog.Default(),
		mappings:  make(map[int]param.ID),
		lastValue: make(map[int]int),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// Handle routes one message and reports whether it was consumed.
func (r *Router) Handle(sink Sink, status, data1, data2 byte) bool {
	return r.Route(sink, status, data1, data2) == nil
}

// Route routes one message. It returns ErrUnknownMessage for unsupported
// status bytes, ErrUnmapped for control changes nothing is bound to and
// ErrRejected when the sink refuses the event.
func (r *Router) Route(sink Sink, status, data1, data2 byte) error {
	msg := Decode(status, data1, data2)

	if msg.Kind == KindControlChange && msg.Channel == UIChannel {
		r.handleUIControl(int(msg.Data1), int(msg.Data2))
		return nil
	}

	var ok bool

	switch msg.Kind {
	case KindNoteOn:
		ok = sink.NoteOn(int(msg.Data1), int(msg.Data2))
	case KindNoteOff:
		ok = sink.NoteOff(int(msg.Data1))
	case KindPitchBend:
		ok = sink.SetParameter(param.PitchBend, msg.Value, false)
	case KindChannelPressure:
		ok = sink.SetParameter(param.ChannelAftertouch, msg.Value, false)
	case KindControlChange:
		return r.routeControl(sink, int(msg.Data1), int(msg.Data2))
	default:
		return fmt.Errorf("%w: status 0x%02x", ErrUnknownMessage, status)
	}

	if !ok {
		return fmt.Errorf("%w: %s", ErrRejected, msg.Kind)
	}

	return nil
}

func (r *Router) routeControl(sink Sink, cc, value int) error {
	r.mu.Lock()
	r.lastValue[cc] = value

	if r.learning {
		if cc > maxController {
			r.mu.Unlock()
			r.logger.Warn("midi learn ignored controller", "cc", cc, "max", maxController)

			return fmt.Errorf("%w: cc %d is reserved", ErrUnmapped, cc)
		}

		id := r.learnID
		for c, mapped := range r.mappings {
			if mapped == id {
				delete(r.mappings, c)
			}
		}
		r.mappings[cc] = id
		r.learning = false
		r.mu.Unlock()

		r.logger.Info("midi learn mapped controller", "cc", cc, "param", id)

		return nil
	}

	id, mapped := r.mappings[cc]
	r.mu.Unlock()

	normalized := float64(value) / 127

	var ok bool

	switch {
	case mapped:
		ok = sink.SetParameter(id, normalized, false)
	case cc == CCVolume:
		ok = sink.SetParameter(param.MasterVolume, normalized, false)
	case cc == CCModWheel:
		ok = sink.SetParameter(param.FilterCutoff, param.CutoffFromNormalized(normalized), false)
	case r.passthrough:
		generic, valid := param.GenericCC(cc)
		if !valid {
			return fmt.Errorf("%w: cc %d", ErrUnmapped, cc)
		}
		ok = sink.SetParameter(generic, normalized, false)
	default:
		return fmt.Errorf("%w: cc %d", ErrUnmapped, cc)
	}

	if !ok {
		return fmt.Errorf("%w: cc %d", ErrRejected, cc)
	}

	return nil
}

func (r *Router) handleUIControl(cc, value int) {
	r.mu.Lock()

	switch {
	case cc == CCPanelSelectLSB:
		r.panelID = value % 128
	case cc == CCPanelCycle:
		r.panelID = (r.panelID + 1) % 128
	case (cc >= CCUIFirst && cc <= CCUILast) || cc == CCUIExtra:
		fn, panel := r.uiFunc, r.panelID
		r.mu.Unlock()

		if fn != nil {
			fn(panel, cc, value)
		}

		return
	}

	r.mu.Unlock()
}

// StartLearn arms the router: the next control change 0..119 on a sound
// channel is bound to id, replacing any controller previously bound to it.
// Channel mode messages (120..127) leave the router armed.
func (r *Router) StartLearn(id param.ID) {
	r.mu.Lock()
	r.learning = true
	r.learnID = id
	r.mu.Unlock()
}

// StopLearn disarms learning without binding anything.
func (r *Router) StopLearn() {
	r.mu.Lock()
	r.learning = false
	r.mu.Unlock()
}

// LearnState returns the learn state and, while learning, the target ID.
func (r *Router) LearnState() (LearnState, param.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.learning {
		return LearnActive, r.learnID
	}

	return LearnIdle, 0
}

// Mappings returns a copy of the CC table.
func (r *Router) Mappings() map[int]param.ID {
	r.mu.Lock()
	defer r.mu.Unlock()

	return maps.Clone(r.mappings)
}

// ReplaceMappings swaps the whole CC table for m. Controllers outside
// 0..119 are dropped, and when several controllers target the same
// parameter only the lowest-numbered one is kept.
func (r *Router) ReplaceMappings(m map[int]param.ID) {
	next := make(map[int]param.ID, len(m))
	owner := make(map[param.ID]int, len(m))

	for cc, id := range m {
		if cc < 0 || cc > maxController {
			continue
		}

		if prev, ok := owner[id]; ok {
			if prev < cc {
				continue
			}
			delete(next, prev)
		}

		owner[id] = cc
		next[cc] = id
	}

	r.mu.Lock()
	r.mappings = next
	r.mu.Unlock()
}

// SetMapping binds cc to id, dropping other controllers bound to id.
func (r *Router) SetMapping(cc int, id param.ID) error {
	if cc < 0 || cc > maxController {
		return fmt.Errorf("midi: controller out of range: %d", cc)
	}

	r.mu.Lock()
	for c, mapped := range r.mappings {
		if mapped == id {
			delete(r.mappings, c)
		}
	}
	r.mappings[cc] = id
	r.mu.Unlock()

	return nil
}

// RemoveMapping unbinds cc.
func (r *Router) RemoveMapping(cc int) {
	r.mu.Lock()
	delete(r.mappings, cc)
	r.mu.Unlock()
}

// LastValue returns the most recent value seen on a sound channel for cc.
func (r *Router) LastValue(cc int) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.lastValue[cc]

	return v, ok
}

// UIPanel returns the UI panel currently targeted by channel 16 controls.
func (r *Router) UIPanel() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.panelID
}

// SetUIControlFunc registers fn for UI channel controls. A nil fn removes it.
func (r *Router) SetUIControlFunc(fn UIControlFunc) {
	r.mu.Lock()
	r.uiFunc = fn
	r.mu.Unlock()
}

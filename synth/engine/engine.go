// Package engine ties the synthesizer together: it owns the DSP modules,
// renders audio blocks for the host platform and exposes the thread-safe
// control surface used by MIDI, automation, presets and the UI.
package engine

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-synth/host"
	"github.com/cwbudde/algo-synth/synth/automation"
	"github.com/cwbudde/algo-synth/synth/midi"
	"github.com/cwbudde/algo-synth/synth/notes"
	"github.com/cwbudde/algo-synth/synth/param"
	"github.com/cwbudde/algo-synth/synth/preset"
	"github.com/cwbudde/algo-synth/synth/spectral"
)

// ChangeFunc is notified of parameter changes applied by automation
// playback. It runs on the audio goroutine and must not block.
type ChangeFunc func(id param.ID, value float64)

// Engine is one synthesizer instance.
//
// Control methods may be called from any goroutine. They never touch the
// DSP modules directly: module changes are queued and applied by the audio
// goroutine at the start of the next block.
type Engine struct {
	cfg      config
	logger   *slog.Logger
	platform host.Platform

	mu          sync.Mutex
	initialized atomic.Bool
	sampleRate  atomic.Int64
	blockSize   atomic.Int64

	store  *param.Store
	master *param.Smoother
	muted  atomic.Bool
	padX   atomic.Int64
	padY   atomic.Int64

	tracker    *notes.Tracker
	router     *midi.Router
	automation *automation.Automation
	codec      *preset.Codec

	commands chan command
	voice    atomic.Pointer[voice]
	onChange atomic.Pointer[ChangeFunc]

	faults  atomic.Uint64
	dropped atomic.Uint64
}

// New returns an uninitialized engine.
func New(opts ...Option) *Engine {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	platform := cfg.platform
	if platform == nil {
		platform = host.NewOto()
	}

	routerOpts := []midi.Option{midi.WithLogger(logger.With("component", "midi"))}
	if cfg.passthrough {
		routerOpts = append(routerOpts, midi.WithGenericPassthrough())
	}

	var autoOpts []automation.Option
	if cfg.clock != nil {
		autoOpts = append(autoOpts, automation.WithClock(cfg.clock))
	}

	volume, _ := param.Lookup(param.MasterVolume)

	e := &Engine{
		cfg:        cfg,
		logger:     logger.With("component", "engine"),
		platform:   platform,
		store:      param.NewStore(),
		master:     param.NewSmoother(volume.Default, cfg.smoothingMs, 44100),
		tracker:    notes.NewTracker(),
		router:     midi.NewRouter(routerOpts...),
		automation: automation.New(autoOpts...),
		codec:      preset.NewCodec(logger.With("component", "preset")),
		commands:   make(chan command, cfg.queueSize),
	}

	e.store.Register(param.MasterVolume, e.master)
	e.padX.Store(int64(param.FilterCutoff))
	e.padY.Store(int64(param.FilterResonance))

	return e
}

// Initialize builds the modules for sampleRate, starts the host stream and
// reports success. It returns once the stream has started or failed. Calling
// it on a running engine is a no-op returning true; after a failure the
// engine stays uninitialized and the call may be retried.
func (e *Engine) Initialize(sampleRate, blockSize int, initialVolume float64) (ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.guard("initialize", &ok)

	if e.initialized.Load() {
		return true
	}

	if err := e.initialize(sampleRate, blockSize, initialVolume); err != nil {
		e.logger.Error("initialization failed", "sampleRate", sampleRate, "blockSize", blockSize, "err", err)
		return false
	}

	e.logger.Info("engine initialized",
		"sampleRate", sampleRate, "blockSize", blockSize, "channels", e.cfg.channels)

	return true
}

func (e *Engine) initialize(sampleRate, blockSize int, initialVolume float64) error {
	if sampleRate <= 0 || blockSize <= 0 {
		return fmt.Errorf("%w: invalid stream config: rate=%d block=%d",
			ErrInitialization, sampleRate, blockSize)
	}

	sr := float64(sampleRate)

	modules, err := e.cfg.modules(sr)
	if err != nil {
		return fmt.Errorf("%w: modules: %w", ErrInitialization, err)
	}

	if err := modules.validate(); err != nil {
		return err
	}

	analyzer, err := spectral.New(sr, spectral.WithSize(e.cfg.analyzerSize))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	volume, _ := param.Lookup(param.MasterVolume)
	initialVolume = volume.Clamp(initialVolume)

	e.master.SetSmoothingTime(e.cfg.smoothingMs, sr)
	e.master.Reset(initialVolume)
	e.store.Set(param.MasterVolume, initialVolume)

	for id, value := range modules.Settings {
		if info, ok := param.Lookup(id); ok {
			e.store.Set(id, info.Clamp(value))
		}
	}

	v := newVoice(sr, modules, analyzer)
	v.onEvent = func(ev automation.Event) { e.applyAutomated(v, ev) }

	e.drainStale()
	e.voice.Store(v)

	if err := e.platform.Initialize(sampleRate, blockSize, e.cfg.channels, e.ProcessAudioBlock); err != nil {
		e.voice.Store(nil)
		return fmt.Errorf("%w: platform: %w", ErrInitialization, err)
	}

	e.sampleRate.Store(int64(sampleRate))
	e.blockSize.Store(int64(blockSize))
	e.initialized.Store(true)

	if err := e.platform.Start(); err != nil {
		e.initialized.Store(false)
		e.voice.Store(nil)
		_ = e.platform.Stop()

		return fmt.Errorf("%w: start: %w", ErrInitialization, err)
	}

	return nil
}

// Shutdown stops the stream, releases the modules and clears held notes and
// the parameter cache. It is a no-op on an uninitialized engine.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized.Swap(false) {
		return
	}

	if err := e.platform.Stop(); err != nil {
		e.logger.Warn("platform stop failed", "err", err)
	}

	e.voice.Store(nil)
	e.drainStale()
	e.automation.StopPlayback()
	e.automation.StopRecording()
	e.tracker.Clear()
	e.store.Clear()

	e.logger.Info("engine shut down")
}

func (e *Engine) drainStale() {
	for len(e.commands) > 0 {
		<-e.commands
	}
}

// ProcessAudioBlock renders frames interleaved frames into out. It is the
// host callback and runs on the audio goroutine. An uninitialized or muted
// engine writes silence; a panic inside a module silences the block and is
// counted in Faults.
func (e *Engine) ProcessAudioBlock(out []float32, frames, channels int) {
	defer func() {
		if r := recover(); r != nil {
			clear(out)
			e.faults.Add(1)
		}
	}()

	v := e.voice.Load()
	if v == nil || channels <= 0 {
		clear(out)
		return
	}

	frames = max(0, min(frames, len(out)/channels))

	for n := len(e.commands); n > 0; n-- {
		select {
		case c := <-e.commands:
			v.apply(c)
		default:
			n = 0
		}
	}

	if e.muted.Load() {
		clear(out)
		return
	}

	v.render(out, frames, channels, e.master)
	clear(out[frames*channels:])

	v.analyzer.Process(out, frames, channels)

	if e.automation.IsPlaying() {
		e.automation.Advance(v.onEvent)
	}
}

func (e *Engine) applyAutomated(v *voice, ev automation.Event) {
	if !e.set(ev.Param, ev.Value, true, v) {
		return
	}

	if fn := e.onChange.Load(); fn != nil {
		(*fn)(ev.Param, ev.Value)
	}
}

// NoteOn starts note (0..127) with velocity (0..127). Every oscillator is
// retuned to the note and the envelope retriggers.
func (e *Engine) NoteOn(note, velocity int) (ok bool) {
	defer e.guard("noteOn", &ok)

	if !e.initialized.Load() {
		return false
	}

	if note < 0 || note > 127 || velocity < 0 || velocity > 127 {
		e.logger.Warn("note rejected", "note", note, "velocity", velocity)
		return false
	}

	vel := float64(velocity) / 127
	e.tracker.NoteOn(note, vel)

	return e.enqueue(command{kind: cmdNoteOn, value: notes.Frequency(note), velocity: vel})
}

// NoteOff releases note. The envelope is released only when no other note
// remains held. Releasing a note that is not held succeeds without effect.
func (e *Engine) NoteOff(note int) (ok bool) {
	defer e.guard("noteOff", &ok)

	if !e.initialized.Load() {
		return false
	}

	released, empty := e.tracker.NoteOff(note)
	if released && empty {
		return e.enqueue(command{kind: cmdRelease})
	}

	return true
}

// HeldNotes returns the held notes in ascending order.
func (e *Engine) HeldNotes() []int {
	return e.tracker.Notes()
}

// ProcessMidiEvent routes one three-byte channel voice message.
func (e *Engine) ProcessMidiEvent(status, data1, data2 byte) (ok bool) {
	defer e.guard("processMidiEvent", &ok)

	if !e.initialized.Load() {
		return false
	}

	return e.router.Handle(e, status, data1, data2)
}

// SendPitchBend sends a 14-bit pitch bend (0..16383, centre 8192) on
// channel 1.
func (e *Engine) SendPitchBend(value int) bool {
	lsb, msb := midi.PitchBendBytes(value)
	return e.ProcessMidiEvent(0xE0, lsb, msb)
}

// SendModWheel sends a modulation wheel value (0..127) on channel 1.
func (e *Engine) SendModWheel(value int) bool {
	if value < 0 || value > 127 {
		return false
	}

	return e.ProcessMidiEvent(0xB0, midi.CCModWheel, byte(value))
}

// SetParameter sets id to value. Unless fromAutomation is set, the change is
// recorded while automation is recording. The value is clamped to the
// parameter's range, cached and forwarded to the owning module. Unknown IDs
// are rejected.
func (e *Engine) SetParameter(id param.ID, value float64, fromAutomation bool) (ok bool) {
	defer e.guard("setParameter", &ok)
	return e.set(id, value, fromAutomation, nil)
}

// set implements SetParameter. With a non-nil direct voice, module changes
// are applied immediately instead of queued; only the audio goroutine
// passes one.
func (e *Engine) set(id param.ID, value float64, fromAutomation bool, direct *voice) bool {
	if !e.initialized.Load() {
		return false
	}

	info, known := param.Lookup(id)
	if !known {
		if direct == nil {
			e.logger.Warn("parameter rejected", "id", int(id), "err", ErrInvalidParameter)
		}
		return false
	}

	value = info.Clamp(value)

	if !fromAutomation {
		e.automation.Record(id, value)
	}

	e.store.Set(id, value)

	if id == param.PadX || id == param.PadY {
		target := e.padTarget(id)

		tinfo, ok := param.Lookup(target)
		if !ok {
			return false
		}

		value = tinfo.Clamp(value)
		e.store.Set(target, value)
		id = target
	}

	return e.route(id, value, direct)
}

func (e *Engine) route(id param.ID, value float64, direct *voice) bool {
	switch id {
	case param.MasterVolume, param.ChannelAftertouch:
		return true
	case param.MasterMute:
		e.muted.Store(value >= 0.5)
		return true
	}

	if id.Namespace() == param.NamespaceGenericCC {
		return true
	}

	if direct != nil {
		direct.dispatch(id, value)
		return true
	}

	return e.enqueue(command{kind: cmdParam, id: id, value: value})
}

func (e *Engine) enqueue(c command) bool {
	select {
	case e.commands <- c:
		return true
	default:
		e.dropped.Add(1)
		e.logger.Warn("command dropped", "kind", c.kind, "param", c.id, "err", errQueueFull)

		return false
	}
}

// Parameter returns the last value set for id, never the in-flight smoothed
// value. Parameters that were never set report their default.
func (e *Engine) Parameter(id param.ID) float64 {
	if !e.initialized.Load() {
		return 0
	}

	if v, ok := e.store.Get(id); ok {
		return v
	}

	switch id {
	case param.MasterVolume:
		return e.master.Target()
	case param.MasterMute:
		if e.muted.Load() {
			return 1
		}
		return 0
	}

	if info, ok := param.Lookup(id); ok {
		return info.Default
	}

	return 0
}

func padTargetValid(id param.ID) bool {
	if id == param.PadX || id == param.PadY {
		return false
	}

	_, ok := param.Lookup(id)

	return ok
}

func (e *Engine) padTarget(pad param.ID) param.ID {
	if pad == param.PadX {
		return param.ID(e.padX.Load())
	}

	return param.ID(e.padY.Load())
}

// SetPadXParameter binds the XY pad's X axis to id.
func (e *Engine) SetPadXParameter(id param.ID) bool {
	if !padTargetValid(id) {
		return false
	}

	e.padX.Store(int64(id))
	e.logger.Debug("pad binding changed", "axis", "x", "param", id)

	return true
}

// SetPadYParameter binds the XY pad's Y axis to id.
func (e *Engine) SetPadYParameter(id param.ID) bool {
	if !padTargetValid(id) {
		return false
	}

	e.padY.Store(int64(id))
	e.logger.Debug("pad binding changed", "axis", "y", "param", id)

	return true
}

// PadBinding returns the parameters the pad axes are bound to.
func (e *Engine) PadBinding() (x, y param.ID) {
	return param.ID(e.padX.Load()), param.ID(e.padY.Load())
}

// LoadGranularBuffer hands a copy of samples to the granular layer.
func (e *Engine) LoadGranularBuffer(samples []float32) (ok bool) {
	defer e.guard("loadGranularBuffer", &ok)

	if !e.initialized.Load() || len(samples) == 0 {
		return false
	}

	return e.enqueue(command{kind: cmdGranularBuffer, buffer: slices.Clone(samples)})
}

// StartMidiLearn binds the next sound-channel controller to id.
func (e *Engine) StartMidiLearn(id param.ID) bool {
	if _, ok := param.Lookup(id); !ok {
		return false
	}

	e.router.StartLearn(id)
	e.logger.Info("midi learn started", "param", id)

	return true
}

// StopMidiLearn cancels a pending learn.
func (e *Engine) StopMidiLearn() {
	e.router.StopLearn()
}

// MidiLearnState reports whether a learn is pending and for which ID.
func (e *Engine) MidiLearnState() (midi.LearnState, param.ID) {
	return e.router.LearnState()
}

// MidiMappings returns a copy of the controller table.
func (e *Engine) MidiMappings() map[int]param.ID {
	return e.router.Mappings()
}

// SetUIControlCallback registers fn for channel 16 UI controls.
func (e *Engine) SetUIControlCallback(fn midi.UIControlFunc) {
	e.router.SetUIControlFunc(fn)
}

// SetParameterChangeCallback registers fn for automation-applied changes. A
// nil fn removes the callback.
func (e *Engine) SetParameterChangeCallback(fn ChangeFunc) {
	if fn == nil {
		e.onChange.Store(nil)
		return
	}

	e.onChange.Store(&fn)
}

// StartRecording clears previous automation and starts capturing changes.
func (e *Engine) StartRecording() {
	e.automation.StartRecording()
	e.logger.Info("automation recording started")
}

// StopRecording ends capture.
func (e *Engine) StopRecording() {
	e.automation.StopRecording()
	e.logger.Info("automation recording stopped")
}

// StartPlayback replays the recorded automation from the start. It returns
// false when nothing has been recorded.
func (e *Engine) StartPlayback() bool {
	if !e.automation.StartPlayback() {
		e.logger.Debug("automation playback skipped: no data")
		return false
	}

	e.logger.Info("automation playback started")

	return true
}

// StopPlayback ends replay.
func (e *Engine) StopPlayback() {
	e.automation.StopPlayback()
}

// ClearAutomation drops all recorded tracks.
func (e *Engine) ClearAutomation() {
	e.automation.ClearAll()
}

// HasAutomationData reports whether any changes have been recorded.
func (e *Engine) HasAutomationData() bool { return e.automation.HasData() }

// IsRecording reports whether automation is recording.
func (e *Engine) IsRecording() bool { return e.automation.IsRecording() }

// IsPlaying reports whether automation is playing.
func (e *Engine) IsPlaying() bool { return e.automation.IsPlaying() }

// SavePreset returns the parameter cache and controller table as a preset
// document named name.
func (e *Engine) SavePreset(name string) ([]byte, error) {
	if !e.initialized.Load() {
		return nil, ErrNotInitialized
	}

	return e.codec.Export(presetState{e}, name)
}

// LoadPreset applies a preset document. It returns false for a malformed
// document; entries that cannot be applied are skipped and logged.
func (e *Engine) LoadPreset(doc []byte) (ok bool) {
	defer e.guard("loadPreset", &ok)

	if !e.initialized.Load() {
		return false
	}

	report, err := e.codec.Import(presetState{e}, doc)
	if err != nil {
		return false
	}

	e.logger.Info("preset loaded",
		"name", report.Name, "applied", report.Applied, "mappings", report.Mappings,
		"skipped", len(report.Skipped))

	return true
}

// presetState adapts the engine to the preset codec.
type presetState struct{ e *Engine }

func (s presetState) ParameterSnapshot() map[param.ID]float64 { return s.e.store.Snapshot() }

func (s presetState) MIDIMappings() map[int]param.ID { return s.e.router.Mappings() }

func (s presetState) SetParameter(id param.ID, value float64, fromAutomation bool) bool {
	return s.e.set(id, value, fromAutomation, nil)
}

func (s presetState) ReplaceMIDIMappings(m map[int]param.ID) { s.e.router.ReplaceMappings(m) }

func (e *Engine) analyzer() *spectral.Analyzer {
	if v := e.voice.Load(); v != nil {
		return v.analyzer
	}

	return nil
}

// BassLevel returns the mean spectral magnitude up to 250 Hz.
func (e *Engine) BassLevel() float64 {
	if a := e.analyzer(); a != nil {
		return a.BassLevel()
	}

	return 0
}

// MidLevel returns the mean spectral magnitude between 250 Hz and 4 kHz.
func (e *Engine) MidLevel() float64 {
	if a := e.analyzer(); a != nil {
		return a.MidLevel()
	}

	return 0
}

// HighLevel returns the mean spectral magnitude above 4 kHz.
func (e *Engine) HighLevel() float64 {
	if a := e.analyzer(); a != nil {
		return a.HighLevel()
	}

	return 0
}

// AmplitudeLevel returns the peak output sample of the last block.
func (e *Engine) AmplitudeLevel() float64 {
	if a := e.analyzer(); a != nil {
		return a.Amplitude()
	}

	return 0
}

// DominantFrequency returns the frequency of the strongest spectral bin.
func (e *Engine) DominantFrequency() float64 {
	if a := e.analyzer(); a != nil {
		return a.DominantFrequency()
	}

	return 0
}

// SpectralFrame returns every analysis scalar.
func (e *Engine) SpectralFrame() spectral.Frame {
	if a := e.analyzer(); a != nil {
		return a.Frame()
	}

	return spectral.Frame{}
}

// SpectrumInto copies the latest magnitude bins into dst.
func (e *Engine) SpectrumInto(dst []float64) (int, error) {
	a := e.analyzer()
	if a == nil {
		return 0, ErrNotInitialized
	}

	return a.MagnitudesInto(dst)
}

// SampleRate returns the stream sample rate, or 0 before Initialize.
func (e *Engine) SampleRate() int {
	if !e.initialized.Load() {
		return 0
	}

	return int(e.sampleRate.Load())
}

// BlockSize returns the stream block size, or 0 before Initialize.
func (e *Engine) BlockSize() int {
	if !e.initialized.Load() {
		return 0
	}

	return int(e.blockSize.Load())
}

// Initialized reports whether the stream is running.
func (e *Engine) Initialized() bool { return e.initialized.Load() }

// Faults returns how many audio blocks were silenced by a recovered panic.
func (e *Engine) Faults() uint64 { return e.faults.Load() }

// DroppedCommands returns how many control commands were lost to a full
// queue.
func (e *Engine) DroppedCommands() uint64 { return e.dropped.Load() }

func (e *Engine) guard(op string, ok *bool) {
	if r := recover(); r != nil {
		*ok = false
		e.logger.Error("recovered panic", "op", op, "panic", r)
	}
}

// Command synthplay plays the synthesizer engine through the system audio
// device.
//
// Usage:
//
//	synthplay [flags]
//
// Without -keys it plays the notes given by -notes as a chord for
// -duration and exits. With -keys the terminal is switched to raw mode and
// the home row plays notes (a w s e d f t g y h u j k from C4); q quits.
//
// Examples:
//
//	synthplay -notes 60,64,67 -duration 2s
//	synthplay -preset warm.json -keys
//	synthplay -notes 45 -levels -save out.json
//	synthplay -offline -notes 69 -levels
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/cwbudde/algo-synth/host"
	"github.com/cwbudde/algo-synth/synth/engine"
)

var logger = slog.Default()

func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

type options struct {
	sampleRate int
	blockSize  int
	volume     float64
	notes      []int
	velocity   int
	duration   time.Duration
	presetPath string
	savePath   string
	keys       bool
	levels     bool
	offline    bool
}

func main() {
	var (
		opts     options
		noteList string
		debug    bool
	)

	flag.IntVar(&opts.sampleRate, "rate", 48000, "sample rate in Hz")
	flag.IntVar(&opts.blockSize, "block", 512, "block size in frames")
	flag.Float64Var(&opts.volume, "volume", 0.75, "initial master volume [0,1]")
	flag.StringVar(&noteList, "notes", "60,64,67", "comma-separated MIDI notes to play")
	flag.IntVar(&opts.velocity, "velocity", 100, "note velocity [0,127]")
	flag.DurationVar(&opts.duration, "duration", 2*time.Second, "how long to hold the notes")
	flag.StringVar(&opts.presetPath, "preset", "", "preset file to load before playing")
	flag.StringVar(&opts.savePath, "save", "", "write the engine state to this preset file on exit")
	flag.BoolVar(&opts.keys, "keys", false, "play from the terminal keyboard")
	flag.BoolVar(&opts.levels, "levels", false, "print analyzer levels while playing")
	flag.BoolVar(&opts.offline, "offline", false, "render without an audio device")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.Parse()

	initLogger(debug)

	notes, err := parseNotes(noteList)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	opts.notes = notes

	if err := run(opts); err != nil {
		logger.Error("synthplay failed", "err", err)
		os.Exit(1)
	}
}

func parseNotes(s string) ([]int, error) {
	var notes []int

	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}

		n, err := strconv.Atoi(field)
		if err != nil || n < 0 || n > 127 {
			return nil, fmt.Errorf("invalid note %q", field)
		}

		notes = append(notes, n)
	}

	return notes, nil
}

func run(opts options) error {
	var (
		platform host.Platform
		offline  *host.Offline
	)

	if opts.offline {
		offline = host.NewOffline()
		platform = offline
	} else {
		platform = host.NewOto()
	}

	eng := engine.New(engine.WithPlatform(platform), engine.WithLogger(logger))
	if !eng.Initialize(opts.sampleRate, opts.blockSize, opts.volume) {
		return fmt.Errorf("engine did not start")
	}
	defer eng.Shutdown()

	if opts.presetPath != "" {
		doc, err := os.ReadFile(opts.presetPath)
		if err != nil {
			return err
		}

		if !eng.LoadPreset(doc) {
			return fmt.Errorf("preset %s could not be loaded", opts.presetPath)
		}
	}

	switch {
	case opts.keys:
		if err := playKeys(eng, opts); err != nil {
			return err
		}
	case offline != nil:
		if err := renderOffline(eng, offline, opts); err != nil {
			return err
		}
	default:
		playChord(eng, opts)
	}

	if opts.savePath != "" {
		doc, err := eng.SavePreset(strings.TrimSuffix(opts.savePath, ".json"))
		if err != nil {
			return err
		}

		if err := os.WriteFile(opts.savePath, doc, 0o644); err != nil {
			return err
		}

		logger.Info("preset saved", "path", opts.savePath)
	}

	return nil
}

func playChord(eng *engine.Engine, opts options) {
	for _, n := range opts.notes {
		eng.NoteOn(n, opts.velocity)
	}

	deadline := time.Now().Add(opts.duration)

	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for now := range tick.C {
		if opts.levels {
			printLevels(eng)
		}

		if now.After(deadline) {
			break
		}
	}

	for _, n := range opts.notes {
		eng.NoteOff(n)
	}

	// let the release tail ring out
	time.Sleep(500 * time.Millisecond)
}

func renderOffline(eng *engine.Engine, p *host.Offline, opts options) error {
	for _, n := range opts.notes {
		eng.NoteOn(n, opts.velocity)
	}

	frames := int(opts.duration.Seconds() * float64(opts.sampleRate))
	step := max(opts.blockSize, opts.sampleRate/10)

	for done := 0; done < frames; done += step {
		if _, err := p.Render(min(step, frames-done)); err != nil {
			return err
		}

		if opts.levels {
			printLevels(eng)
		}
	}

	return nil
}

func printLevels(eng *engine.Engine) {
	f := eng.SpectralFrame()
	fmt.Printf("amp %.3f  bass %.4f  mid %.4f  high %.4f  peak %7.1f Hz\r\n",
		f.Amplitude, f.Bass, f.Mid, f.High, f.DominantFrequency)
}

// keyNotes maps the home row onto one octave from C4.
var keyNotes = map[byte]int{
	'a': 60, 'w': 61, 's': 62, 'e': 63, 'd': 64, 'f': 65, 't': 66,
	'g': 67, 'y': 68, 'h': 69, 'u': 70, 'j': 71, 'k': 72,
}

const keyGate = 300 * time.Millisecond

func playKeys(eng *engine.Engine, opts options) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("-keys needs an interactive terminal")
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("raw mode: %w", err)
	}
	defer func() { _ = term.Restore(fd, oldState) }()

	fmt.Print("play with a w s e d f t g y h u j k, q to quit\r\n")

	buf := make([]byte, 1)

	for {
		n, err := os.Stdin.Read(buf)
		if err != nil || n == 0 {
			return err
		}

		key := buf[0]
		if key == 'q' || key == 3 {
			return nil
		}

		note, ok := keyNotes[key]
		if !ok {
			continue
		}

		// raw terminals report no key release, so each press is gated
		eng.NoteOn(note, opts.velocity)
		time.AfterFunc(keyGate, func() { eng.NoteOff(note) })

		if opts.levels {
			printLevels(eng)
		}
	}
}

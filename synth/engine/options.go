package engine

import (
	"log/slog"

	"github.com/cwbudde/algo-synth/host"
	"github.com/cwbudde/algo-synth/synth/automation"
	"github.com/cwbudde/algo-synth/synth/spectral"
)

const (
	defaultChannels     = 2
	defaultSmoothingMs  = 20.0
	defaultCommandQueue = 1024
)

// Option configures an Engine.
type Option func(*config)

type config struct {
	platform     host.Platform
	channels     int
	smoothingMs  float64
	analyzerSize int
	modules      ModuleFactory
	logger       *slog.Logger
	clock        automation.Clock
	queueSize    int
	passthrough  bool
}

func defaultConfig() config {
	return config{
		channels:     defaultChannels,
		smoothingMs:  defaultSmoothingMs,
		analyzerSize: spectral.DefaultSize,
		modules:      DefaultModules,
		queueSize:    defaultCommandQueue,
	}
}

// WithPlatform sets the audio output. Without one the engine uses the oto
// device.
func WithPlatform(p host.Platform) Option {
	return func(c *config) {
		if p != nil {
			c.platform = p
		}
	}
}

// WithChannels sets the output channel count. One channel averages the
// stereo mix.
func WithChannels(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.channels = n
		}
	}
}

// WithSmoothingTime sets the master volume smoothing time in milliseconds.
func WithSmoothingTime(ms float64) Option {
	return func(c *config) {
		if ms >= 0 {
			c.smoothingMs = ms
		}
	}
}

// WithAnalyzerSize sets the FFT length of the spectral analyzer.
func WithAnalyzerSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.analyzerSize = n
		}
	}
}

// WithModules replaces the DSP module factory.
func WithModules(f ModuleFactory) Option {
	return func(c *config) {
		if f != nil {
			c.modules = f
		}
	}
}

// WithLogger sets the logger for control-path diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock sets the clock automation timestamps are taken from.
func WithClock(clk automation.Clock) Option {
	return func(c *config) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithCommandQueue sets how many control commands may be pending between
// two audio blocks.
func WithCommandQueue(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

// WithGenericCCPassthrough routes unmapped MIDI controllers to the generic
// CC parameters.
func WithGenericCCPassthrough() Option {
	return func(c *config) {
		c.passthrough = true
	}
}

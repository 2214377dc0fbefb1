// Package host connects the engine to an audio output. A Platform owns the
// device and periodically invokes a Callback to fill an interleaved float32
// buffer.
package host

import "errors"

var (
	// ErrUnavailable is returned when the build has no audio device support.
	ErrUnavailable = errors.New("host: audio output unavailable in this build")
	// ErrNotInitialized is returned by Start before a successful Initialize.
	ErrNotInitialized = errors.New("host: platform not initialized")
	// ErrStartFailed is returned when the output stream cannot be started.
	ErrStartFailed = errors.New("host: failed to start output stream")
)

// Callback renders frames interleaved frames of channels channels into out.
// It is invoked from the platform's audio goroutine and must not block.
type Callback func(out []float32, frames, channels int)

// Platform is an audio output device.
type Platform interface {
	// Initialize opens the device. cb is retained until Stop.
	Initialize(sampleRate, blockSize, channels int, cb Callback) error
	// Start begins invoking the callback.
	Start() error
	// Stop halts the stream. It is safe to call more than once.
	Stop() error
	// LastError returns the most recent asynchronous stream error, if any.
	LastError() error
}

package host

import (
	"fmt"
	"sync"
)

// OfflineOption configures an Offline platform.
type OfflineOption func(*Offline)

// WithStartError makes Start fail with err.
func WithStartError(err error) OfflineOption {
	return func(o *Offline) {
		o.startErr = err
	}
}

// Offline is a platform without a device: Render drives the callback
// synchronously. It is used for tests and file rendering.
type Offline struct {
	mu         sync.Mutex
	cb         Callback
	sampleRate int
	blockSize  int
	channels   int
	started    bool
	startErr   error
	buf        []float32
}

// NewOffline returns an uninitialized offline platform.
func NewOffline(opts ...OfflineOption) *Offline {
	o := &Offline{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	return o
}

// Initialize records the stream configuration.
func (o *Offline) Initialize(sampleRate, blockSize, channels int, cb Callback) error {
	if sampleRate <= 0 || blockSize <= 0 || channels <= 0 || cb == nil {
		return fmt.Errorf("host: invalid stream config: rate=%d block=%d channels=%d",
			sampleRate, blockSize, channels)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.cb = cb
	o.sampleRate = sampleRate
	o.blockSize = blockSize
	o.channels = channels
	o.buf = make([]float32, blockSize*channels)

	return nil
}

// Start marks the stream running.
func (o *Offline) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cb == nil {
		return ErrNotInitialized
	}

	if o.startErr != nil {
		return fmt.Errorf("%w: %w", ErrStartFailed, o.startErr)
	}

	o.started = true

	return nil
}

// Stop marks the stream halted.
func (o *Offline) Stop() error {
	o.mu.Lock()
	o.started = false
	o.mu.Unlock()

	return nil
}

// LastError always returns nil.
func (o *Offline) LastError() error { return nil }

// Started reports whether Start succeeded and Stop has not been called.
func (o *Offline) Started() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.started
}

// Render invokes the callback in blocks until frames frames are produced and
// returns them interleaved. It returns ErrNotInitialized unless started.
func (o *Offline) Render(frames int) ([]float32, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.started {
		return nil, ErrNotInitialized
	}

	out := make([]float32, 0, frames*o.channels)

	for done := 0; done < frames; {
		n := min(o.blockSize, frames-done)
		block := o.buf[:n*o.channels]
		o.cb(block, n, o.channels)
		out = append(out, block...)
		done += n
	}

	return out, nil
}

// SampleRate returns the configured sample rate.
func (o *Offline) SampleRate() int { return o.sampleRate }

// Channels returns the configured channel count.
func (o *Offline) Channels() int { return o.channels }

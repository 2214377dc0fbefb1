//go:build !headless

package host

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/ebitengine/oto/v3"
)

// Oto plays through the system audio device using oto. oto allows a single
// context per process, so only one Oto may be initialized.
type Oto struct {
	mu      sync.Mutex
	ctx     *oto.Context
	player  *oto.Player
	started bool

	cb       atomic.Pointer[Callback]
	channels int
	scratch  []float32
}

// NewOto returns an uninitialized oto platform.
func NewOto() *Oto {
	return &Oto{}
}

// Initialize creates the oto context and player. It blocks until the device
// is ready.
func (o *Oto) Initialize(sampleRate, blockSize, channels int, cb Callback) error {
	if sampleRate <= 0 || blockSize <= 0 || channels <= 0 || cb == nil {
		return fmt.Errorf("host: invalid stream config: rate=%d block=%d channels=%d",
			sampleRate, blockSize, channels)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ctx == nil {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatFloat32LE,
			BufferSize:   2 * time.Duration(blockSize) * time.Second / time.Duration(sampleRate),
		}

		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			return fmt.Errorf("host: oto context: %w", err)
		}
		<-ready

		o.ctx = ctx
	}

	o.channels = channels
	o.scratch = make([]float32, blockSize*channels)
	o.cb.Store(&cb)
	o.player = o.ctx.NewPlayer(o)

	return nil
}

// Read implements io.Reader for the oto player. It runs on oto's audio
// goroutine.
func (o *Oto) Read(p []byte) (int, error) {
	cb := o.cb.Load()
	if cb == nil || o.channels == 0 {
		clear(p)
		return len(p), nil
	}

	frames := len(p) / (4 * o.channels)
	samples := frames * o.channels

	if len(o.scratch) < samples {
		o.scratch = make([]float32, samples)
	}

	buf := o.scratch[:samples]
	if frames > 0 {
		(*cb)(buf, frames, o.channels)
		copy(p, unsafe.Slice((*byte)(unsafe.Pointer(&buf[0])), samples*4))
	}

	clear(p[samples*4:])

	return len(p), nil
}

// Start begins playback.
func (o *Oto) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return ErrNotInitialized
	}

	if !o.started {
		o.player.Play()
		o.started = true
	}

	if err := o.player.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStartFailed, err)
	}

	return nil
}

// Stop pauses playback and detaches the callback.
func (o *Oto) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.cb.Store(nil)

	if o.player == nil {
		return nil
	}

	if o.started {
		o.player.Pause()
		o.started = false
	}

	o.player.Close()
	o.player = nil

	return nil
}

// LastError returns the player's stream error.
func (o *Oto) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return nil
	}

	return o.player.Err()
}

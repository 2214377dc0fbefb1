//go:build headless

package host

// Oto is unavailable in headless builds.
type Oto struct{}

// NewOto returns a platform whose Initialize always fails.
func NewOto() *Oto {
	return &Oto{}
}

func (o *Oto) Initialize(sampleRate, blockSize, channels int, cb Callback) error {
	return ErrUnavailable
}

func (o *Oto) Start() error { return ErrUnavailable }

func (o *Oto) Stop() error { return nil }

func (o *Oto) LastError() error { return nil }

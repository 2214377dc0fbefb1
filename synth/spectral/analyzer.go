// Package spectral computes per-block spectral summaries of rendered audio:
// band levels, peak amplitude and the dominant frequency.
package spectral

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"sync"
	"sync/atomic"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-synth/dsp/window"
)

// DefaultSize is the FFT length used when no size is configured.
const DefaultSize = 2048

const (
	minSize = 16
	maxSize = 1 << 16

	bassLimitHz = 250.0
	midLimitHz  = 4000.0
)

var errBufferTooSmall = errors.New("spectral: destination shorter than bin count")

// Frame is one analysis result.
type Frame struct {
	Bass              float64
	Mid               float64
	High              float64
	Amplitude         float64
	DominantFrequency float64
}

// Option configures an Analyzer.
type Option func(*config)

type config struct {
	size int
}

// WithSize sets the FFT length. It must be a power of two.
func WithSize(n int) Option {
	return func(c *config) {
		c.size = n
	}
}

// Analyzer computes a windowed FFT of the most recent samples of each block.
//
// Process runs on the audio goroutine and never blocks; the scalar results
// are published through atomics so any goroutine can poll them.
type Analyzer struct {
	size       int
	numBins    int
	sampleRate float64
	bassEnd    int
	midEnd     int

	plan   *algofft.Plan[complex128]
	window []float64
	frame  []float64
	fftBuf []complex128
	re     []float64
	im     []float64
	mags   []float64

	bass      atomic.Uint64
	mid       atomic.Uint64
	high      atomic.Uint64
	amplitude atomic.Uint64
	dominant  atomic.Uint64

	pubMu     sync.Mutex
	published []float64
}

// New returns an analyzer for audio at sampleRate.
func New(sampleRate float64, opts ...Option) (*Analyzer, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("spectral: sample rate must be > 0: %f", sampleRate)
	}

	cfg := config{size: DefaultSize}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.size < minSize || cfg.size > maxSize || bits.OnesCount(uint(cfg.size)) != 1 {
		return nil, fmt.Errorf("spectral: size must be a power of two in [%d, %d]: %d",
			minSize, maxSize, cfg.size)
	}

	plan, err := algofft.NewPlan64(cfg.size)
	if err != nil {
		return nil, fmt.Errorf("spectral: failed to create FFT plan: %w", err)
	}

	coeffs, err := window.Hann(cfg.size)
	if err != nil {
		return nil, fmt.Errorf("spectral: %w", err)
	}

	numBins := cfg.size / 2
	nyquist := sampleRate / 2

	a := &Analyzer{
		size:       cfg.size,
		numBins:    numBins,
		sampleRate: sampleRate,
		bassEnd:    clampBin(int(bassLimitHz/nyquist*float64(numBins)), numBins),
		midEnd:     clampBin(int(midLimitHz/nyquist*float64(numBins)), numBins),
		plan:       plan,
		window:     coeffs,
		frame:      make([]float64, cfg.size),
		fftBuf:     make([]complex128, cfg.size),
		re:         make([]float64, numBins+1),
		im:         make([]float64, numBins+1),
		mags:       make([]float64, numBins+1),
		published:  make([]float64, numBins+1),
	}

	return a, nil
}

func clampBin(bin, numBins int) int {
	return max(0, min(numBins, bin))
}

// Size returns the FFT length.
func (a *Analyzer) Size() int { return a.size }

// Bins returns the number of magnitude bins (size/2 + 1).
func (a *Analyzer) Bins() int { return a.numBins + 1 }

// SampleRate returns the sample rate in Hz.
func (a *Analyzer) SampleRate() float64 { return a.sampleRate }

// BinFrequency returns the centre frequency of bin in Hz.
func (a *Analyzer) BinFrequency(bin int) float64 {
	return float64(bin) / float64(a.numBins) * (a.sampleRate / 2)
}

// Process analyzes one interleaved block of frames frames. Only the last
// min(frames, size) frames enter the FFT; the peak amplitude covers the
// whole block.
func (a *Analyzer) Process(buf []float32, frames, channels int) {
	if channels <= 0 || frames <= 0 {
		return
	}

	frames = min(frames, len(buf)/channels)
	if frames == 0 {
		return
	}

	scale := 1 / float64(channels)
	start := max(0, frames-a.size)
	peak := 0.0

	for f := 0; f < frames; f++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(buf[f*channels+c])
		}

		mono := sum * scale
		peak = math.Max(peak, math.Abs(mono))

		if f >= start {
			a.frame[f-start] = mono
		}
	}

	used := frames - start
	for i := used; i < a.size; i++ {
		a.frame[i] = 0
	}

	if err := window.ApplyCoefficientsInPlace(a.frame, a.window); err != nil {
		return
	}

	for i, v := range a.frame {
		a.fftBuf[i] = complex(v, 0)
	}

	if err := a.plan.Forward(a.fftBuf, a.fftBuf); err != nil {
		return
	}

	a.magnitudes()
	a.summarize(peak)
	a.publish()
}

func (a *Analyzer) magnitudes() {
	n := float64(a.size)

	for i := 0; i <= a.numBins; i++ {
		a.re[i] = real(a.fftBuf[i])
		a.im[i] = imag(a.fftBuf[i])
	}

	vecmath.Magnitude(a.mags, a.re, a.im)

	for i := 1; i < a.numBins; i++ {
		a.mags[i] *= 2 / n
	}

	a.mags[0] = math.Abs(a.re[0]) / n
	a.mags[a.numBins] = math.Abs(a.re[a.numBins]) / n
}

func (a *Analyzer) summarize(peak float64) {
	var bass, mid, high float64

	maxMag := -1.0
	maxBin := 0

	for i, m := range a.mags {
		freq := a.BinFrequency(i)

		switch {
		case freq <= bassLimitHz:
			bass += m
		case freq <= midLimitHz:
			mid += m
		default:
			high += m
		}

		if m > maxMag {
			maxMag = m
			maxBin = i
		}
	}

	if n := a.bassEnd + 1; n > 0 {
		bass /= float64(n)
	}

	if n := a.midEnd - a.bassEnd; n > 0 {
		mid /= float64(n)
	}

	if n := a.numBins - a.midEnd; n > 0 {
		high /= float64(n)
	}

	a.bass.Store(math.Float64bits(bass))
	a.mid.Store(math.Float64bits(mid))
	a.high.Store(math.Float64bits(high))
	a.amplitude.Store(math.Float64bits(peak))
	a.dominant.Store(math.Float64bits(a.BinFrequency(maxBin)))
}

// publish copies the bins for MagnitudesInto unless a reader holds the lock,
// in which case this block is skipped.
func (a *Analyzer) publish() {
	if !a.pubMu.TryLock() {
		return
	}

	copy(a.published, a.mags)
	a.pubMu.Unlock()
}

func load(v *atomic.Uint64) float64 { return math.Float64frombits(v.Load()) }

// BassLevel returns the mean magnitude of bins up to 250 Hz.
func (a *Analyzer) BassLevel() float64 { return load(&a.bass) }

// MidLevel returns the mean magnitude of bins between 250 Hz and 4 kHz.
func (a *Analyzer) MidLevel() float64 { return load(&a.mid) }

// HighLevel returns the mean magnitude of bins above 4 kHz.
func (a *Analyzer) HighLevel() float64 { return load(&a.high) }

// Amplitude returns the peak absolute mono sample of the last block.
func (a *Analyzer) Amplitude() float64 { return load(&a.amplitude) }

// DominantFrequency returns the centre frequency of the strongest bin.
func (a *Analyzer) DominantFrequency() float64 { return load(&a.dominant) }

// Frame returns all scalar results. The fields are loaded individually and
// may straddle two blocks.
func (a *Analyzer) Frame() Frame {
	return Frame{
		Bass:              a.BassLevel(),
		Mid:               a.MidLevel(),
		High:              a.HighLevel(),
		Amplitude:         a.Amplitude(),
		DominantFrequency: a.DominantFrequency(),
	}
}

// MagnitudesInto copies the most recently published magnitude bins into dst
// and returns the number of bins written.
func (a *Analyzer) MagnitudesInto(dst []float64) (int, error) {
	if len(dst) < len(a.published) {
		return 0, errBufferTooSmall
	}

	a.pubMu.Lock()
	n := copy(dst, a.published)
	a.pubMu.Unlock()

	return n, nil
}

// Reset zeroes all published results.
func (a *Analyzer) Reset() {
	for _, v := range []*atomic.Uint64{&a.bass, &a.mid, &a.high, &a.amplitude, &a.dominant} {
		v.Store(0)
	}

	a.pubMu.Lock()
	clear(a.published)
	a.pubMu.Unlock()
}

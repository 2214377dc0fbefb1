package param

import (
	"math"
	"sync/atomic"
)

// snapThreshold is the distance below which the smoother jumps to its target.
const snapThreshold = 1e-5

// Coefficient returns the per-sample one-pole coefficient for a smoothing
// time constant of timeMs milliseconds at sampleRate. Times below 1 ms and
// invalid inputs yield 1, meaning an instant jump.
func Coefficient(timeMs, sampleRate float64) float64 {
	if timeMs < 1 || sampleRate <= 0 ||
		math.IsNaN(timeMs) || math.IsInf(timeMs, 0) ||
		math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return 1
	}

	alpha := 1 - math.Exp(-1/(timeMs*0.001*sampleRate))

	return math.Max(0, math.Min(1, alpha))
}

// Smoother is a one-pole lowpass that moves a current value toward a target.
//
// SetTarget may be called from any goroutine. Next, Current and Reset belong
// to the goroutine that renders audio; Reset and SetSmoothingTime may also be
// used before rendering starts.
type Smoother struct {
	target  atomic.Uint64
	current float64
	alpha   float64
}

// NewSmoother returns a smoother resting at initial.
func NewSmoother(initial, timeMs, sampleRate float64) *Smoother {
	s := &Smoother{}
	s.SetSmoothingTime(timeMs, sampleRate)
	s.Reset(initial)

	return s
}

// SetSmoothingTime recomputes the coefficient.
func (s *Smoother) SetSmoothingTime(timeMs, sampleRate float64) {
	s.alpha = Coefficient(timeMs, sampleRate)
}

// Alpha returns the per-sample coefficient in [0, 1].
func (s *Smoother) Alpha() float64 { return s.alpha }

// SetTarget sets the value the smoother converges to.
func (s *Smoother) SetTarget(v float64) {
	s.target.Store(math.Float64bits(v))
}

// Target returns the most recently requested value.
func (s *Smoother) Target() float64 {
	return math.Float64frombits(s.target.Load())
}

// Current returns the smoothed value without advancing it.
func (s *Smoother) Current() float64 { return s.current }

// Reset sets both current and target to v.
func (s *Smoother) Reset(v float64) {
	s.current = v
	s.SetTarget(v)
}

// Next advances the smoother by one sample and returns the new value.
func (s *Smoother) Next() float64 {
	target := s.Target()

	diff := target - s.current
	if math.Abs(diff) < snapThreshold {
		s.current = target
		return s.current
	}

	s.current += diff * s.alpha

	return s.current
}

// Settled reports whether the smoother has reached its target.
func (s *Smoother) Settled() bool {
	return s.current == s.Target()
}

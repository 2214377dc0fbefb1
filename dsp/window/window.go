// Package window generates the analysis and grain windows used by the
// spectral analyzer and the granular synthesizer.
package window

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function.
type Type int

const (
	TypeHann Type = iota
	TypeTriangle
	TypeRectangular
	TypeGauss
	TypeBlackman
)

func (t Type) String() string {
	switch t {
	case TypeHann:
		return "hann"
	case TypeTriangle:
		return "triangle"
	case TypeRectangular:
		return "rectangular"
	case TypeGauss:
		return "gauss"
	case TypeBlackman:
		return "blackman"
	default:
		return "unknown"
	}
}

var (
	hannCoeffs     = []float64{0.5, -0.5}
	blackmanCoeffs = []float64{0.42, -0.5, 0.08}
)

// defaultGaussAlpha is the width of TypeGauss; at the edges the window is
// exp(-ln2 * alpha^2).
const defaultGaussAlpha = 2.5

// Option configures window generation.
type Option func(*config)

type config struct {
	alpha    float64
	periodic bool
}

func defaultConfig() config {
	return config{alpha: defaultGaussAlpha}
}

// WithAlpha configures the width of the Gauss window.
func WithAlpha(v float64) Option {
	return func(c *config) {
		if v > 0 {
			c.alpha = v
		}
	}
}

// WithPeriodic configures periodic form (FFT framing) instead of symmetric form.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// Generate returns window coefficients of the given length. The symmetric
// form places the first and last sample at the window edges, so for Hann
// w[i] = 0.5 * (1 - cos(2*pi*i/(N-1))).
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	cfg := defaultConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	out := make([]float64, length)
	for i := range out {
		out[i] = evalWindow(t, samplePosition(i, length, cfg.periodic), cfg.alpha)
	}

	return out
}

// At evaluates window t at normalized position x in [0, 1]. It does not
// allocate and is meant for per-sample envelopes.
func At(t Type, x float64) float64 {
	return evalWindow(t, x, defaultGaussAlpha)
}

// Hann returns symmetric Hann window coefficients.
func Hann(size int, opts ...Option) ([]float64, error) {
	if err := validateLength(size); err != nil {
		return nil, err
	}

	return Generate(TypeHann, size, opts...), nil
}

// ApplyCoefficientsInPlace multiplies samples with coefficients in place.
func ApplyCoefficientsInPlace(samples, coeffs []float64) error {
	if len(samples) != len(coeffs) {
		return errMismatchedLength
	}

	vecmath.MulBlockInPlace(samples, coeffs)

	return nil
}

func evalWindow(t Type, x, alpha float64) float64 {
	if x < 0 {
		x = 0
	}

	if x > 1 {
		x = 1
	}

	switch t {
	case TypeHann:
		return cosineFromCoeffs(x, hannCoeffs)
	case TypeTriangle:
		return 1 - math.Abs(2*x-1)
	case TypeRectangular:
		return 1
	case TypeGauss:
		v := (2*x - 1) * alpha
		return math.Exp(-math.Ln2 * v * v)
	case TypeBlackman:
		return cosineFromCoeffs(x, blackmanCoeffs)
	default:
		return 1
	}
}

func cosineFromCoeffs(x float64, coeffs []float64) float64 {
	phase := 2 * math.Pi * x

	sum := 0.0
	for k, c := range coeffs {
		sum += c * math.Cos(float64(k)*phase)
	}

	return sum
}

func samplePosition(n, size int, periodic bool) float64 {
	if size <= 1 {
		return 0
	}

	den := float64(size - 1)
	if periodic {
		den = float64(size)
	}

	return float64(n) / den
}

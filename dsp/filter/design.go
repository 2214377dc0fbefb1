package filter

import "math"

const defaultQ = 1 / math.Sqrt2

// Coefficients holds the transfer function coefficients for a single
// second-order section (biquad). a0 is normalized to 1 and not stored.
//
// The sign convention follows Direct Form II Transposed:
//
//	y  = B0*x + d0
//	d0 = B1*x - A1*y + d1
//	d1 = B2*x - A2*y
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// passthrough leaves the signal untouched. Designs fall back to it when
// their inputs are out of range.
var passthrough = Coefficients{B0: 1}

// Lowpass designs an RBJ cookbook lowpass at freq (Hz) with quality factor q.
func Lowpass(freq, q, sampleRate float64) Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return passthrough
	}

	cw, alpha := math.Cos(w0), math.Sin(w0)/(2*normalizedQ(q))

	return normalizeBiquad((1-cw)/2, 1-cw, (1-cw)/2, 1+alpha, -2*cw, 1-alpha)
}

// Highpass designs an RBJ cookbook highpass.
func Highpass(freq, q, sampleRate float64) Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return passthrough
	}

	cw, alpha := math.Cos(w0), math.Sin(w0)/(2*normalizedQ(q))

	return normalizeBiquad((1+cw)/2, -(1 + cw), (1+cw)/2, 1+alpha, -2*cw, 1-alpha)
}

// Bandpass designs a constant 0 dB peak gain bandpass.
func Bandpass(freq, q, sampleRate float64) Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return passthrough
	}

	cw, alpha := math.Cos(w0), math.Sin(w0)/(2*normalizedQ(q))

	return normalizeBiquad(alpha, 0, -alpha, 1+alpha, -2*cw, 1-alpha)
}

// Notch designs a notch centred at freq.
func Notch(freq, q, sampleRate float64) Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return passthrough
	}

	cw, alpha := math.Cos(w0), math.Sin(w0)/(2*normalizedQ(q))

	return normalizeBiquad(1, -2*cw, 1, 1+alpha, -2*cw, 1-alpha)
}

// MagnitudeAt returns |H(e^jw)| of c at freq.
func (c Coefficients) MagnitudeAt(freq, sampleRate float64) float64 {
	w := 2 * math.Pi * freq / sampleRate
	z1 := complex(math.Cos(-w), math.Sin(-w))
	z2 := z1 * z1

	num := complex(c.B0, 0) + complex(c.B1, 0)*z1 + complex(c.B2, 0)*z2
	den := 1 + complex(c.A1, 0)*z1 + complex(c.A2, 0)*z2

	return cmplxAbs(num / den)
}

func cmplxAbs(z complex128) float64 {
	return math.Hypot(real(z), imag(z))
}

func normalizedW0(freq, sampleRate float64) (float64, bool) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return 0, false
	}

	nyquist := sampleRate / 2
	if freq <= 0 || freq >= nyquist || math.IsNaN(freq) || math.IsInf(freq, 0) {
		return 0, false
	}

	return 2 * math.Pi * freq / sampleRate, true
}

func normalizedQ(q float64) float64 {
	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return defaultQ
	}

	return q
}

func normalizeBiquad(b0, b1, b2, a0, a1, a2 float64) Coefficients {
	if a0 == 0 || math.IsNaN(a0) || math.IsInf(a0, 0) {
		return passthrough
	}

	return Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}

package param

import "math"

const (
	minCutoffHz = 20.0
	maxCutoffHz = 20000.0
)

// CutoffFromNormalized maps n in [0, 1] exponentially onto 20 Hz..20 kHz.
func CutoffFromNormalized(n float64) float64 {
	n = math.Max(0, math.Min(1, n))
	return minCutoffHz * math.Pow(maxCutoffHz/minCutoffHz, n)
}

// CutoffHz interprets a filterCutoff value. Values up to 1 are normalized
// control positions (MIDI learn, XY pad, automation of a learned CC); larger
// values are taken as Hertz.
func CutoffHz(v float64) float64 {
	if v <= 1 {
		return CutoffFromNormalized(v)
	}

	return math.Min(maxCutoffHz, v)
}

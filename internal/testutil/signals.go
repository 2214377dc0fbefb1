// Package testutil holds deterministic signal generators, clocks and
// assertions shared by the engine's tests.
package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// InterleavedSine writes the same sine into every channel of an interleaved
// float32 block of frames frames.
func InterleavedSine(freqHz, sampleRate, amplitude float64, frames, channels int) []float32 {
	mono := DeterministicSine(freqHz, sampleRate, amplitude, frames)
	out := make([]float32, frames*channels)
	for i, v := range mono {
		for c := 0; c < channels; c++ {
			out[i*channels+c] = float32(v)
		}
	}
	return out
}

// InterleavedDC fills an interleaved block with a constant.
func InterleavedDC(value float32, frames, channels int) []float32 {
	out := make([]float32, frames*channels)
	for i := range out {
		out[i] = value
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float32 {
	out := make([]float32, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = float32((rng.Float64()*2 - 1) * amplitude)
	}
	return out
}

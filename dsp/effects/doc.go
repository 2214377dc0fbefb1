// Package effects provides the synthesizer's time-based effects: a feedback
// delay with gliding delay time and a stereo Freeverb-style reverb.
//
// All effects are designed for real-time processing with zero-allocation
// hot paths. They are not safe for concurrent use.
package effects

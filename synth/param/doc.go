// Package param defines the engine's parameter ID table, the one-pole
// smoother used for click-free control changes and the parameter cache
// that mirrors every value written through the engine.
//
// Smoother targets are stored in atomic 64-bit slots so control goroutines
// can retarget while the audio goroutine advances the smoothed value. The
// [Store] cache is mutex guarded and must not be touched from the audio
// path except for short, bounded critical sections.
package param

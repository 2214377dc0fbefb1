// Package midi decodes 3-byte channel voice messages and routes them to
// notes, parameters or the UI control channel.
//
// Channel 16 (index 15) is reserved for UI control and never reaches the
// sound engine. On every other channel, control changes are resolved
// through the learned CC table first, then through a small set of fixed
// bindings (CC7 volume, CC1 filter cutoff).
package midi

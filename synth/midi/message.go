package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Kind classifies a decoded message.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindNoteOn
	KindNoteOff
	KindControlChange
	KindPitchBend
	KindChannelPressure
)

func (k Kind) String() string {
	switch k {
	case KindNoteOn:
		return "noteOn"
	case KindNoteOff:
		return "noteOff"
	case KindControlChange:
		return "controlChange"
	case KindPitchBend:
		return "pitchBend"
	case KindChannelPressure:
		return "channelPressure"
	default:
		return "unknown"
	}
}

// Message is a decoded channel voice message.
//
// For notes Data1 is the key and Data2 the velocity; for control changes
// Data1 is the controller and Data2 the value. Value carries the normalized
// payload: the bend position in [-1, 1] for pitch bend and the pressure in
// [0, 1] for channel aftertouch.
type Message struct {
	Kind    Kind
	Channel uint8
	Data1   uint8
	Data2   uint8
	Value   float64
}

const pitchBendCenter = 8192

// Decode interprets a raw status byte and two data bytes. A Note On with
// velocity zero decodes as Note Off.
func Decode(status, data1, data2 byte) Message {
	raw := gomidi.Message{status, data1 & 0x7f, data2 & 0x7f}

	var (
		ch, key, vel uint8
		relative     int16
		absolute     uint16
	)

	switch {
	case raw.GetNoteStart(&ch, &key, &vel):
		return Message{Kind: KindNoteOn, Channel: ch, Data1: key, Data2: vel, Value: float64(vel) / 127}
	case raw.GetNoteEnd(&ch, &key):
		return Message{Kind: KindNoteOff, Channel: ch, Data1: key}
	case raw.GetControlChange(&ch, &key, &vel):
		return Message{Kind: KindControlChange, Channel: ch, Data1: key, Data2: vel, Value: float64(vel) / 127}
	case raw.GetPitchBend(&ch, &relative, &absolute):
		return Message{
			Kind:    KindPitchBend,
			Channel: ch,
			Data1:   data1 & 0x7f,
			Data2:   data2 & 0x7f,
			Value:   float64(int(absolute)-pitchBendCenter) / pitchBendCenter,
		}
	case raw.GetAfterTouch(&ch, &vel):
		return Message{Kind: KindChannelPressure, Channel: ch, Data1: vel, Value: float64(vel) / 127}
	}

	return Message{Kind: KindUnknown, Channel: status & 0x0f, Data1: data1, Data2: data2}
}

// PitchBendBytes splits a 14-bit bend value (0..16383, centre 8192) into the
// LSB and MSB data bytes.
func PitchBendBytes(value int) (lsb, msb byte) {
	value = max(0, min(16383, value))
	return byte(value & 0x7f), byte(value >> 7)
}

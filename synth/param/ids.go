package param

import (
	"math"
	"strconv"
)

// ID identifies an engine parameter. The numeric values are part of the
// public contract: presets, automation tracks and MIDI mappings store them.
type ID int

// Master parameters.
const (
	MasterVolume      ID = 0
	MasterMute        ID = 1
	PitchBend         ID = 2
	ChannelAftertouch ID = 3

	// PadX and PadY are virtual: writes are redirected to whichever
	// parameter the XY pad axis is currently bound to.
	PadX ID = 8
	PadY ID = 9
)

// Filter parameters.
const (
	FilterCutoff    ID = 10
	FilterResonance ID = 11
	FilterType      ID = 12
)

// Envelope parameters.
const (
	AttackTime   ID = 20
	DecayTime    ID = 21
	SustainLevel ID = 22
	ReleaseTime  ID = 23
)

// Effect parameters.
const (
	ReverbMix     ID = 30
	DelayTime     ID = 31
	DelayFeedback ID = 32
)

// Granular parameters.
const (
	GranularActive     ID = 40
	GrainRate          ID = 41
	GrainDuration      ID = 42
	GrainPosition      ID = 43
	GrainPitch         ID = 44
	GrainAmplitude     ID = 45
	GrainPositionVar   ID = 46
	GrainPitchVar      ID = 47
	GrainDurationVar   ID = 48
	GrainPan           ID = 49
	GrainPanVar        ID = 50
	GranularWindowType ID = 51
)

const (
	oscillatorFirst ID = 100
	oscillatorLast  ID = 199
	genericCCFirst  ID = 200
	genericCCLast   ID = 319

	// OscillatorStride is the ID distance between consecutive oscillators.
	OscillatorStride = 10

	// MaxOscillators is the number of oscillators the ID space can address.
	MaxOscillators = int(oscillatorLast-oscillatorFirst+1) / OscillatorStride
)

// OscField selects a per-oscillator parameter.
type OscField int

const (
	OscType OscField = iota
	OscFrequency
	OscDetune
	OscVolume
	OscPan
	OscWavetableIndex
	OscWavetablePosition
	oscFieldCount
)

var oscFieldNames = [...]string{
	OscType:              "type",
	OscFrequency:         "frequency",
	OscDetune:            "detune",
	OscVolume:            "volume",
	OscPan:               "pan",
	OscWavetableIndex:    "wavetableIndex",
	OscWavetablePosition: "wavetablePosition",
}

func (f OscField) String() string {
	if f < 0 || f >= oscFieldCount {
		return "field(" + strconv.Itoa(int(f)) + ")"
	}

	return oscFieldNames[f]
}

// Namespace groups IDs by the component that owns them.
type Namespace int

const (
	NamespaceUnknown Namespace = iota
	NamespaceMaster
	NamespaceFilter
	NamespaceEnvelope
	NamespaceEffects
	NamespaceGranular
	NamespaceOscillator
	NamespaceGenericCC
)

func (n Namespace) String() string {
	switch n {
	case NamespaceMaster:
		return "master"
	case NamespaceFilter:
		return "filter"
	case NamespaceEnvelope:
		return "envelope"
	case NamespaceEffects:
		return "effects"
	case NamespaceGranular:
		return "granular"
	case NamespaceOscillator:
		return "oscillator"
	case NamespaceGenericCC:
		return "cc"
	default:
		return "unknown"
	}
}

// Namespace reports which block of the ID table id falls into. It does not
// check that a parameter with this exact ID exists; use [Lookup] for that.
func (id ID) Namespace() Namespace {
	switch {
	case id >= 0 && id <= 9:
		return NamespaceMaster
	case id >= 10 && id <= 19:
		return NamespaceFilter
	case id >= 20 && id <= 29:
		return NamespaceEnvelope
	case id >= 30 && id <= 39:
		return NamespaceEffects
	case id >= 40 && id <= 59:
		return NamespaceGranular
	case id >= oscillatorFirst && id <= oscillatorLast:
		return NamespaceOscillator
	case id >= genericCCFirst && id <= genericCCLast:
		return NamespaceGenericCC
	default:
		return NamespaceUnknown
	}
}

// Oscillator returns the ID of field on oscillator index.
func Oscillator(index int, field OscField) ID {
	return oscillatorFirst + ID(index*OscillatorStride) + ID(field)
}

// Oscillator splits an oscillator ID into its index and field.
func (id ID) Oscillator() (index int, field OscField, ok bool) {
	if id < oscillatorFirst || id > oscillatorLast {
		return 0, 0, false
	}

	rel := int(id - oscillatorFirst)
	field = OscField(rel % OscillatorStride)

	if field >= oscFieldCount {
		return 0, 0, false
	}

	return rel / OscillatorStride, field, true
}

// GenericCC returns the passthrough ID for controller number cc (0..119).
func GenericCC(cc int) (ID, bool) {
	id := genericCCFirst + ID(cc)
	if cc < 0 || id > genericCCLast {
		return 0, false
	}

	return id, true
}

func (id ID) String() string {
	if info, ok := Lookup(id); ok {
		return info.Name
	}

	return "param(" + strconv.Itoa(int(id)) + ")"
}

// Info describes a parameter: its display name, default and the range the
// owning module accepts.
type Info struct {
	ID        ID
	Name      string
	Default   float64
	Min       float64
	Max       float64
	Namespace Namespace
}

// Clamp limits v to the parameter's range. NaN maps to the default.
func (i Info) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return i.Default
	}

	return math.Max(i.Min, math.Min(i.Max, v))
}

var table = map[ID]Info{
	MasterVolume:       {Name: "masterVolume", Default: 0.75, Min: 0, Max: 1},
	MasterMute:         {Name: "masterMute", Default: 0, Min: 0, Max: 1},
	PitchBend:          {Name: "pitchBend", Default: 0, Min: -1, Max: 1},
	ChannelAftertouch:  {Name: "channelAftertouch", Default: 0, Min: 0, Max: 1},
	PadX:               {Name: "padX", Default: 0, Min: 0, Max: 1},
	PadY:               {Name: "padY", Default: 0, Min: 0, Max: 1},
	FilterCutoff:       {Name: "filterCutoff", Default: 1000, Min: 0, Max: 20000},
	FilterResonance:    {Name: "filterResonance", Default: 0.5, Min: 0, Max: 1},
	FilterType:         {Name: "filterType", Default: 0, Min: 0, Max: 3},
	AttackTime:         {Name: "attackTime", Default: 0.01, Min: 0.001, Max: 10},
	DecayTime:          {Name: "decayTime", Default: 0.1, Min: 0.001, Max: 10},
	SustainLevel:       {Name: "sustainLevel", Default: 0.7, Min: 0, Max: 1},
	ReleaseTime:        {Name: "releaseTime", Default: 0.5, Min: 0.001, Max: 10},
	ReverbMix:          {Name: "reverbMix", Default: 0.2, Min: 0, Max: 1},
	DelayTime:          {Name: "delayTime", Default: 0.5, Min: 0.001, Max: 2},
	DelayFeedback:      {Name: "delayFeedback", Default: 0.3, Min: 0, Max: 0.99},
	GranularActive:     {Name: "granularActive", Default: 0, Min: 0, Max: 1},
	GrainRate:          {Name: "grainRate", Default: 20, Min: 0.1, Max: 200},
	GrainDuration:      {Name: "grainDuration", Default: 0.1, Min: 0.005, Max: 0.5},
	GrainPosition:      {Name: "grainPosition", Default: 0.5, Min: 0, Max: 1},
	GrainPitch:         {Name: "grainPitch", Default: 1, Min: 0.25, Max: 4},
	GrainAmplitude:     {Name: "grainAmplitude", Default: 0.7, Min: 0, Max: 1},
	GrainPositionVar:   {Name: "grainPositionVar", Default: 0.1, Min: 0, Max: 1},
	GrainPitchVar:      {Name: "grainPitchVar", Default: 0, Min: 0, Max: 1},
	GrainDurationVar:   {Name: "grainDurationVar", Default: 0.1, Min: 0, Max: 1},
	GrainPan:           {Name: "grainPan", Default: 0, Min: -1, Max: 1},
	GrainPanVar:        {Name: "grainPanVar", Default: 0.2, Min: 0, Max: 1},
	GranularWindowType: {Name: "granularWindowType", Default: 0, Min: 0, Max: 3},
}

var oscillatorInfo = [...]Info{
	OscType:              {Default: 0, Min: 0, Max: 4},
	OscFrequency:         {Default: 440, Min: 0, Max: 20000},
	OscDetune:            {Default: 0, Min: -1200, Max: 1200},
	OscVolume:            {Default: 0.5, Min: 0, Max: 1},
	OscPan:               {Default: 0, Min: -1, Max: 1},
	OscWavetableIndex:    {Default: 0, Min: 0, Max: 127},
	OscWavetablePosition: {Default: 0, Min: 0, Max: 1},
}

func init() {
	for id, info := range table {
		info.ID = id
		info.Namespace = id.Namespace()
		table[id] = info
	}
}

// Lookup returns the metadata for id. Oscillator and generic CC IDs are
// resolved structurally; everything else comes from the fixed table.
func Lookup(id ID) (Info, bool) {
	if info, ok := table[id]; ok {
		return info, true
	}

	if index, field, ok := id.Oscillator(); ok {
		info := oscillatorInfo[field]
		info.ID = id
		info.Name = "osc" + strconv.Itoa(index+1) + "." + field.String()
		info.Namespace = NamespaceOscillator

		return info, true
	}

	if id >= genericCCFirst && id <= genericCCLast {
		return Info{
			ID:        id,
			Name:      "cc" + strconv.Itoa(int(id-genericCCFirst)),
			Max:       1,
			Namespace: NamespaceGenericCC,
		}, true
	}

	return Info{}, false
}

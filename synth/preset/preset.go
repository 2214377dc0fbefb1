// Package preset converts engine state to and from a portable JSON document:
//
//	{"name": "Pad", "parameters": {"10": 0.5}, "midiCcMappings": {"74": 10}}
//
// Parameter and controller keys are decimal strings. Automation tracks are
// not part of a preset.
package preset

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"

	"github.com/cwbudde/algo-synth/synth/param"
)

const maxController = 119

// Preset is a decoded document.
type Preset struct {
	Name         string
	Parameters   map[param.ID]float64
	MIDIMappings map[int]param.ID
}

type document struct {
	Name           string                     `json:"name"`
	Parameters     map[string]json.RawMessage `json:"parameters"`
	MIDICCMappings map[string]json.RawMessage `json:"midiCcMappings"`
}

type encodedDocument struct {
	Name           string             `json:"name"`
	Parameters     map[string]float64 `json:"parameters"`
	MIDICCMappings map[string]int     `json:"midiCcMappings"`
}

// Encode renders p as a document. Map keys are emitted in sorted order, so
// equal presets encode to equal bytes. Non-finite values are dropped because
// JSON cannot represent them.
func Encode(p Preset) ([]byte, error) {
	doc := encodedDocument{
		Name:           p.Name,
		Parameters:     make(map[string]float64, len(p.Parameters)),
		MIDICCMappings: make(map[string]int, len(p.MIDIMappings)),
	}

	for id, v := range p.Parameters {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		doc.Parameters[strconv.Itoa(int(id))] = v
	}

	for cc, id := range p.MIDIMappings {
		doc.MIDICCMappings[strconv.Itoa(cc)] = int(id)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("preset: encode: %w", err)
	}

	return data, nil
}

// Decode parses a document. Entries that cannot be parsed are left out of
// the result and described in skipped; only a document that is not a JSON
// object yields an error.
func Decode(data []byte) (p Preset, skipped []string, err error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Preset{}, nil, fmt.Errorf("%w: not a JSON object", ErrMalformed)
	}

	var doc document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return Preset{}, nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	p = Preset{
		Name:         doc.Name,
		Parameters:   make(map[param.ID]float64, len(doc.Parameters)),
		MIDIMappings: make(map[int]param.ID, len(doc.MIDICCMappings)),
	}

	for key, raw := range doc.Parameters {
		id, err := strconv.Atoi(key)
		if err != nil {
			skipped = append(skipped, fmt.Sprintf("parameter key %q is not an integer", key))
			continue
		}

		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			skipped = append(skipped, fmt.Sprintf("parameter %d: value %s is not a number", id, raw))
			continue
		}

		p.Parameters[param.ID(id)] = v
	}

	for key, raw := range doc.MIDICCMappings {
		cc, err := strconv.Atoi(key)
		if err != nil || cc < 0 || cc > maxController {
			skipped = append(skipped, fmt.Sprintf("controller key %q is not in 0..%d", key, maxController))
			continue
		}

		var id int
		if err := json.Unmarshal(raw, &id); err != nil {
			skipped = append(skipped, fmt.Sprintf("controller %d: target %s is not an integer", cc, raw))
			continue
		}

		p.MIDIMappings[cc] = param.ID(id)
	}

	slices.Sort(skipped)

	return p, skipped, nil
}

func isPad(id param.ID) bool { return id == param.PadX || id == param.PadY }

func applyOrder(a, b param.ID) int {
	if pa, pb := isPad(a), isPad(b); pa != pb {
		if pa {
			return -1
		}
		return 1
	}

	return cmp.Compare(a, b)
}

// Source is the engine state a preset is taken from.
type Source interface {
	ParameterSnapshot() map[param.ID]float64
	MIDIMappings() map[int]param.ID
}

// Target is the engine state a preset is applied to.
type Target interface {
	SetParameter(id param.ID, value float64, fromAutomation bool) bool
	ReplaceMIDIMappings(m map[int]param.ID)
}

// Report summarizes an Import.
type Report struct {
	Name     string
	Applied  int
	Mappings int
	Skipped  []string
}

// Err returns a *PartialApplyError when entries were skipped, nil otherwise.
func (r Report) Err() error {
	if len(r.Skipped) == 0 {
		return nil
	}

	return &PartialApplyError{Skipped: r.Skipped}
}

// Codec moves presets between documents and an engine.
type Codec struct {
	logger *slog.Logger
}

// NewCodec returns a codec logging to logger, or to slog.Default when nil.
func NewCodec(logger *slog.Logger) *Codec {
	if logger == nil {
		logger = slog.Default()
	}

	return &Codec{logger: logger}
}

// Export snapshots src into a document named name.
func (c *Codec) Export(src Source, name string) ([]byte, error) {
	return Encode(Preset{
		Name:         name,
		Parameters:   src.ParameterSnapshot(),
		MIDIMappings: src.MIDIMappings(),
	})
}

// Import applies a document to dst. Parameters are applied as
// automation-originated writes so they are never re-recorded. The virtual
// pad IDs go first and every other ID follows in ascending order, so a
// parameter's own entry wins over the pad value redirected onto it. The CC
// table is replaced wholesale. Entries that fail to parse or that dst
// rejects are skipped and logged. Only ErrMalformed aborts the import.
func (c *Codec) Import(dst Target, data []byte) (Report, error) {
	p, skipped, err := Decode(data)
	if err != nil {
		c.logger.Error("preset rejected", "err", err)
		return Report{}, err
	}

	report := Report{Name: p.Name, Skipped: skipped}

	ids := make([]param.ID, 0, len(p.Parameters))
	for id := range p.Parameters {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, applyOrder)

	for _, id := range ids {
		if !dst.SetParameter(id, p.Parameters[id], true) {
			report.Skipped = append(report.Skipped, fmt.Sprintf("parameter %d rejected", id))
			continue
		}
		report.Applied++
	}

	dst.ReplaceMIDIMappings(p.MIDIMappings)
	report.Mappings = len(p.MIDIMappings)

	if len(report.Skipped) > 0 {
		c.logger.Warn("preset applied partially",
			"name", p.Name, "applied", report.Applied, "skipped", len(report.Skipped))

		for _, s := range report.Skipped {
			c.logger.Debug("preset entry skipped", "entry", s)
		}
	}

	return report, nil
}

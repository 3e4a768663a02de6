package chendai

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MixParameters is the per-channel console strip: owned by the caller,
// passed explicitly into every mix call and treated as read-only input. The
// engine keeps no console state between renders.
type MixParameters struct {
	Volume float32 `yaml:"volume"` // linear, 0..1
	Pan    float32 `yaml:"pan"`    // -1..1
	Width  float32 `yaml:"width"`  // stereo width, 0 (mono) .. 2 (wide)

	// 3-band EQ gains in dB, -15..+15, at the fixed 80 Hz / 1 kHz / 8 kHz
	// crossovers.
	EQLow  float32 `yaml:"eq_low"`
	EQMid  float32 `yaml:"eq_mid"`
	EQHigh float32 `yaml:"eq_high"`

	ReverbSend float32 `yaml:"reverb_send"` // 0..1
	DelaySend  float32 `yaml:"delay_send"`  // 0..1

	Mute bool `yaml:"mute"`
	Solo bool `yaml:"solo"`
}

// DefaultMixParameters is the documented fallback for channels absent from
// the parameter map: unity volume, centered, no EQ, no sends.
func DefaultMixParameters() MixParameters {
	return MixParameters{Volume: 1, Width: 1}
}

// Clamp normalizes out-of-range values instead of rejecting them; console
// values are user input, not a contract violation.
func (p MixParameters) Clamp() MixParameters {
	p.Volume = clamp32(p.Volume, 0, 1)
	p.Pan = clamp32(p.Pan, -1, 1)
	p.Width = clamp32(p.Width, 0, 2)
	p.EQLow = clamp32(p.EQLow, -15, 15)
	p.EQMid = clamp32(p.EQMid, -15, 15)
	p.EQHigh = clamp32(p.EQHigh, -15, 15)
	p.ReverbSend = clamp32(p.ReverbSend, 0, 1)
	p.DelaySend = clamp32(p.DelaySend, 0, 1)
	return p
}

// IsIdentity reports whether the strip passes audio through untouched;
// identity channels skip the whole processing chain so that a unity mix
// reproduces the channel buffer bit-exactly.
func (p MixParameters) IsIdentity() bool {
	return p.Volume == 1 && p.Pan == 0 && p.Width == 1 &&
		p.EQLow == 0 && p.EQMid == 0 && p.EQHigh == 0
}

// LoadMixParameterFile loads a per-instrument console setup from YAML:
// a mapping from instrument id to MixParameters.
func LoadMixParameterFile(path string) (map[string]MixParameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mix parameters %v: %w", path, err)
	}
	var params map[string]MixParameters
	if err := yaml.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("parsing mix parameters %v: %w", path, err)
	}
	return params, nil
}

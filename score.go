package chendai

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

type (
	// Event is one timed stroke produced by the external composer. The
	// engine validates, not trusts, composer output.
	Event struct {
		Instrument string  `yaml:"instrument" json:"instrument"`
		Category   string  `yaml:"category" json:"category"`
		Time       float64 `yaml:"time" json:"time"`         // onset seconds, >= 0
		Duration   float64 `yaml:"duration" json:"duration"` // seconds, > 0
		Velocity   float32 `yaml:"velocity" json:"velocity"` // clamped to [0,1]

		// Pan overrides the instrument's default stereo position for this
		// event only. Nil means no override.
		Pan *float32 `yaml:"pan,omitempty" json:"pan,omitempty"`

		// Freq overrides the pitch for tonal instruments; 0 means the DNA
		// base frequency.
		Freq float32 `yaml:"freq,omitempty" json:"freq,omitempty"`
	}

	// Score is one immutable generation request batch: the events plus the
	// tempo/style context the composer worked in, carried through to the
	// result metadata.
	Score struct {
		Style  string  `yaml:"style,omitempty" json:"style,omitempty"`
		BPM    int     `yaml:"bpm,omitempty" json:"bpm,omitempty"`
		Events []Event `yaml:"events" json:"events"`
	}
)

// ParseScore decodes a composer score from YAML (or JSON, which yaml.v3
// reads as a subset).
func ParseScore(data []byte) (Score, error) {
	var sc Score
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Score{}, &ScoreError{Index: -1, Err: fmt.Errorf("parsing score: %w", err)}
	}
	return sc, nil
}

// LoadScoreFile reads and parses a score from disk.
func LoadScoreFile(path string) (Score, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Score{}, &ScoreError{Index: -1, Err: fmt.Errorf("reading %v: %w", path, err)}
	}
	return ParseScore(data)
}

// ValidateScore normalizes and validates a composer batch against the
// definition store. Velocity and pan overrides are clamped rather than
// rejected; negative timing, unresolvable instrument ids and unknown stroke
// categories reject the whole batch with a *ScoreError. The result is
// ordered by onset, with the original relative order preserved for events
// sharing an onset so that simultaneous strokes overlap-add
// deterministically.
func ValidateScore(defs DefinitionSet, sc Score) (Score, error) {
	out := Score{Style: sc.Style, BPM: sc.BPM, Events: make([]Event, len(sc.Events))}
	for i, ev := range sc.Events {
		if ev.Time < 0 {
			return Score{}, &ScoreError{Index: i, Err: fmt.Errorf("negative onset %v", ev.Time)}
		}
		if ev.Duration <= 0 {
			return Score{}, &ScoreError{Index: i, Err: fmt.Errorf("duration %v not > 0", ev.Duration)}
		}
		def, ok := defs.Get(ev.Instrument)
		if !ok {
			return Score{}, &ScoreError{Index: i, Err: fmt.Errorf("unknown instrument %q", ev.Instrument)}
		}
		if _, ok := def.Stroke(ev.Category); !ok {
			return Score{}, &ScoreError{Index: i, Err: fmt.Errorf("instrument %q has no stroke %q", ev.Instrument, ev.Category)}
		}
		if ev.Freq < 0 {
			return Score{}, &ScoreError{Index: i, Err: fmt.Errorf("negative frequency override %v", ev.Freq)}
		}
		ev.Velocity = clamp32(ev.Velocity, 0, 1)
		if ev.Pan != nil {
			pan := clamp32(*ev.Pan, -1, 1)
			ev.Pan = &pan
		}
		out.Events[i] = ev
	}
	sort.SliceStable(out.Events, func(i, j int) bool {
		return out.Events[i].Time < out.Events[j].Time
	})
	return out, nil
}

// End returns the time the last event starts plus its duration, i.e. the
// minimum render length that loses nothing but decay tails.
func (s Score) End() float64 {
	var end float64
	for _, ev := range s.Events {
		if t := ev.Time + ev.Duration; t > end {
			end = t
		}
	}
	return end
}

// ByInstrument groups events per instrument id, preserving order.
func (s Score) ByInstrument() map[string][]Event {
	ret := make(map[string][]Event)
	for _, ev := range s.Events {
		ret[ev.Instrument] = append(ret[ev.Instrument], ev)
	}
	return ret
}

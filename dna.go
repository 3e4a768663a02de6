package chendai

import (
	"errors"
	"fmt"
)

type (
	// Family selects the synthesis algorithm for an instrument. The set is
	// closed: the synthesizer matches it exhaustively and the loader rejects
	// anything else.
	Family string

	// Waveform is the oscillator shape of a tonal instrument.
	Waveform string

	// Partial is one harmonic (or inharmonic) component of an instrument's
	// spectrum: a frequency ratio relative to the base frequency and its
	// relative amplitude.
	Partial struct {
		Ratio     float32 `yaml:"ratio"`
		Amplitude float32 `yaml:"amplitude"`
	}

	// Stroke describes how one stroke category colors the instrument's base
	// genes. A stroke with all scales at 1 plays the DNA record as written.
	Stroke struct {
		// FreqScale multiplies the base frequency; rim strokes sit higher
		// than center strikes on the same membrane.
		FreqScale float32 `yaml:"freq_scale"`
		// DecayScale multiplies the decay range; damped/choked strokes ring
		// shorter.
		DecayScale float32 `yaml:"decay_scale"`
		// AmpScale multiplies the stroke's overall level.
		AmpScale float32 `yaml:"amp_scale"`
		// NoiseScale multiplies the texture noise amount.
		NoiseScale float32 `yaml:"noise_scale"`
		// Damped marks strokes that cut the tail hard (muted slap, cymbal
		// choke).
		Damped bool `yaml:"damped,omitempty"`
	}

	// Noise is the surface texture gene: how much filtered noise is mixed
	// into the attack and how dark that noise is (0 = white, 1 = heavily
	// lowpassed).
	Noise struct {
		Amount float32 `yaml:"amount"`
		Color  float32 `yaml:"color"`
	}

	// InstrumentDefinition is one immutable DNA record. It is loaded once at
	// engine start and shared read-only by every synthesis call.
	InstrumentDefinition struct {
		ID     string `yaml:"id"`
		Family Family `yaml:"family"`

		// BaseFreq is the fundamental in Hz. When BaseFreqMax > 0 the
		// effective fundamental rises towards it with velocity, modeling the
		// higher tension pitch of a harder strike.
		BaseFreq    float32 `yaml:"base_freq"`
		BaseFreqMax float32 `yaml:"base_freq_max,omitempty"`

		// Partials is the ordered spectrum recipe. Required for membrane and
		// metallic families; ignored by tonal instruments.
		Partials []Partial `yaml:"partials,omitempty"`

		// DecayMin and DecayMax bound the exponential decay time constant in
		// seconds. The synthesizer picks within the range by velocity.
		DecayMin float32 `yaml:"decay_min"`
		DecayMax float32 `yaml:"decay_max"`

		Noise Noise `yaml:"noise,omitempty"`

		// PitchBend is the initial upward frequency offset in Hz that decays
		// to zero after impact, simulating skin tension relaxing. Membrane
		// family only.
		PitchBend float32 `yaml:"pitch_bend,omitempty"`

		// Inharmonicity perturbs partial i by (1 + inharmonicity*i).
		// Metallic family only.
		Inharmonicity float32 `yaml:"inharmonicity,omitempty"`

		// PhaseOffset is the inter-element time offset in seconds for twin
		// element instruments (a cymbal pair); 0 means a single element.
		// Metallic family only.
		PhaseOffset float32 `yaml:"phase_offset,omitempty"`

		// Shape is the oscillator waveform. Tonal family only.
		Shape Waveform `yaml:"waveform,omitempty"`

		// Pan is the channel's default stereo position (-1..1), used when an
		// event carries no pan override.
		Pan float32 `yaml:"pan,omitempty"`

		// Strokes enumerates the stroke categories this instrument answers
		// to. Empty means the family's default stroke table.
		Strokes map[string]Stroke `yaml:"strokes,omitempty"`

		// MIDINotes maps MIDI note numbers to stroke categories for score
		// import from standard MIDI files.
		MIDINotes map[uint8]string `yaml:"midi_notes,omitempty"`
	}
)

const (
	FamilyMembrane Family = "membrane"
	FamilyMetallic Family = "metallic"
	FamilyTonal    Family = "tonal"
)

const (
	WaveSine     Waveform = "sine"
	WaveTriangle Waveform = "triangle"
	WaveSaw      Waveform = "saw"
	WaveSquare   Waveform = "square"
)

// defaultStrokes is the built-in stroke table per family, used when a DNA
// record does not enumerate its own.
var defaultStrokes = map[Family]map[string]Stroke{
	FamilyMembrane: {
		"open":   {FreqScale: 1, DecayScale: 1, AmpScale: 1, NoiseScale: 1},
		"closed": {FreqScale: 1, DecayScale: 0.35, AmpScale: 0.8, NoiseScale: 1.4, Damped: true},
		"rim":    {FreqScale: 1.9, DecayScale: 0.5, AmpScale: 0.7, NoiseScale: 1.8},
		"center": {FreqScale: 0.85, DecayScale: 1.2, AmpScale: 1, NoiseScale: 0.7},
	},
	FamilyMetallic: {
		"crash": {FreqScale: 1, DecayScale: 1, AmpScale: 1, NoiseScale: 1},
		"choke": {FreqScale: 1, DecayScale: 0.2, AmpScale: 0.9, NoiseScale: 1, Damped: true},
	},
	FamilyTonal: {
		"tone":  {FreqScale: 1, DecayScale: 1, AmpScale: 1, NoiseScale: 1},
		"swell": {FreqScale: 1, DecayScale: 1, AmpScale: 0.85, NoiseScale: 1},
	},
}

// Stroke resolves a stroke category against the record's own table, falling
// back to the family defaults.
func (d *InstrumentDefinition) Stroke(category string) (Stroke, bool) {
	if len(d.Strokes) > 0 {
		s, ok := d.Strokes[category]
		return s, ok
	}
	s, ok := defaultStrokes[d.Family][category]
	return s, ok
}

// StrokeCategories returns the categories this instrument answers to, in no
// particular order.
func (d *InstrumentDefinition) StrokeCategories() []string {
	table := d.Strokes
	if len(table) == 0 {
		table = defaultStrokes[d.Family]
	}
	ret := make([]string, 0, len(table))
	for name := range table {
		ret = append(ret, name)
	}
	return ret
}

// Validate checks every gene against its declared domain. Violations are
// fatal at load time, not at render time.
func (d *InstrumentDefinition) Validate() error {
	fail := func(gene string, err error) error {
		return &DefinitionError{ID: d.ID, Gene: gene, Err: err}
	}
	if d.ID == "" {
		return &DefinitionError{Err: errors.New("record is missing an id")}
	}
	switch d.Family {
	case FamilyMembrane, FamilyMetallic, FamilyTonal:
	case "":
		return fail("family", errors.New("missing"))
	default:
		return fail("family", fmt.Errorf("unknown synthesis family %q", d.Family))
	}
	if d.BaseFreq <= 0 {
		return fail("base_freq", fmt.Errorf("must be > 0, got %v", d.BaseFreq))
	}
	if d.BaseFreqMax != 0 && d.BaseFreqMax < d.BaseFreq {
		return fail("base_freq_max", fmt.Errorf("range max %v below base %v", d.BaseFreqMax, d.BaseFreq))
	}
	if d.Family != FamilyTonal && len(d.Partials) == 0 {
		return fail("partials", errors.New("harmonic families need a non-empty partial list"))
	}
	for i, p := range d.Partials {
		if p.Ratio <= 0 {
			return fail("partials", fmt.Errorf("partial %v: ratio must be > 0", i))
		}
		if p.Amplitude < 0 {
			return fail("partials", fmt.Errorf("partial %v: amplitude must be >= 0", i))
		}
	}
	if d.DecayMin <= 0 || d.DecayMax <= 0 {
		return fail("decay_min", errors.New("decay bounds must be > 0"))
	}
	if d.DecayMin > d.DecayMax {
		return fail("decay_min", fmt.Errorf("min %v exceeds max %v", d.DecayMin, d.DecayMax))
	}
	if d.Noise.Amount < 0 || d.Noise.Amount > 1 {
		return fail("noise", fmt.Errorf("amount %v outside [0,1]", d.Noise.Amount))
	}
	if d.Noise.Color < 0 || d.Noise.Color > 1 {
		return fail("noise", fmt.Errorf("color %v outside [0,1]", d.Noise.Color))
	}
	if d.PitchBend < 0 {
		return fail("pitch_bend", errors.New("must be >= 0"))
	}
	if d.Inharmonicity < 0 {
		return fail("inharmonicity", errors.New("must be >= 0"))
	}
	if d.PhaseOffset < 0 {
		return fail("phase_offset", errors.New("must be >= 0"))
	}
	if d.Family == FamilyTonal {
		switch d.Shape {
		case WaveSine, WaveTriangle, WaveSaw, WaveSquare:
		case "":
			return fail("waveform", errors.New("missing for tonal family"))
		default:
			return fail("waveform", fmt.Errorf("unknown waveform %q", d.Shape))
		}
	}
	if d.Pan < -1 || d.Pan > 1 {
		return fail("pan", fmt.Errorf("%v outside [-1,1]", d.Pan))
	}
	for name, s := range d.Strokes {
		if s.FreqScale <= 0 || s.DecayScale <= 0 {
			return fail("strokes", fmt.Errorf("stroke %q: scales must be > 0", name))
		}
		if s.AmpScale < 0 || s.NoiseScale < 0 {
			return fail("strokes", fmt.Errorf("stroke %q: scales must be >= 0", name))
		}
	}
	for note, category := range d.MIDINotes {
		if _, ok := d.Stroke(category); !ok {
			return fail("midi_notes", fmt.Errorf("note %v maps to unknown stroke %q", note, category))
		}
	}
	return nil
}

package chendai_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/arjunparightsolutions/chendai"
)

// writeTestSMF builds a one-track MIDI file at 120 BPM: a chenda stroke on
// the first beat and a kombu note held for one quarter (half a second).
func writeTestSMF(t *testing.T) string {
	t.Helper()
	s := smf.New()
	ticks := s.TimeFormat.(smf.MetricTicks)
	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	tr.Add(0, midi.NoteOn(9, 38, 127)) // chenda-valam open
	tr.Add(0, midi.NoteOn(9, 52, 64))  // kombu tone
	tr.Add(ticks.Ticks4th(), midi.NoteOff(9, 38))
	tr.Add(0, midi.NoteOff(9, 52))
	tr.Close(0)
	require.NoError(t, s.Add(tr))

	path := filepath.Join(t.TempDir(), "beat.mid")
	require.NoError(t, s.WriteFile(path))
	return path
}

func TestImportSMF(t *testing.T) {
	defs := loadTestDefs(t)
	sc, err := chendai.ImportSMF(writeTestSMF(t), defs)
	require.NoError(t, err)
	require.Len(t, sc.Events, 2)

	byInst := sc.ByInstrument()
	valam := byInst["chenda-valam"]
	require.Len(t, valam, 1)
	assert.Equal(t, "open", valam[0].Category)
	assert.Equal(t, 0.0, valam[0].Time)
	assert.Equal(t, float32(1), valam[0].Velocity)
	// percussive strokes take their duration from the decay range
	assert.InDelta(t, 0.35, valam[0].Duration, 1e-6)

	kombu := byInst["kombu"]
	require.Len(t, kombu, 1)
	assert.Equal(t, "tone", kombu[0].Category)
	// tonal notes last until their note-off: one quarter at 120 BPM
	assert.InDelta(t, 0.5, kombu[0].Duration, 1e-3)
}

func TestImportSMFRejectsAmbiguousNoteMaps(t *testing.T) {
	defs := chendai.DefinitionSet{}
	for _, id := range []string{"a", "b"} {
		def := chendai.InstrumentDefinition{
			ID:       id,
			Family:   chendai.FamilyMembrane,
			BaseFreq: 100,
			Partials: []chendai.Partial{{Ratio: 1, Amplitude: 1}},
			DecayMin: 0.1,
			DecayMax: 0.2,
			MIDINotes: map[uint8]string{
				38: "open",
			},
		}
		require.NoError(t, def.Validate())
		defs[id] = def
	}
	_, err := chendai.ImportSMF("unused.mid", defs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapped by both")
}

func TestImportSMFRequiresNoteMaps(t *testing.T) {
	defs := chendai.DefinitionSet{
		"drum": {
			ID:       "drum",
			Family:   chendai.FamilyMembrane,
			BaseFreq: 100,
			Partials: []chendai.Partial{{Ratio: 1, Amplitude: 1}},
			DecayMin: 0.1,
			DecayMax: 0.2,
		},
	}
	_, err := chendai.ImportSMF("unused.mid", defs)
	require.Error(t, err)
}

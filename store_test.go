package chendai_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjunparightsolutions/chendai"
)

func loadTestDefs(t *testing.T) chendai.DefinitionSet {
	t.Helper()
	defs, err := chendai.LoadDefinitionFile("testdata/instruments.yaml")
	require.NoError(t, err)
	return defs
}

func TestLoadDefinitionFile(t *testing.T) {
	defs := loadTestDefs(t)
	assert.Equal(t, []string{"chenda-edamthala", "chenda-valam", "elathalam", "kombu", "kurumkuzhal"}, defs.IDs())

	valam, ok := defs.Get("chenda-valam")
	require.True(t, ok)
	assert.Equal(t, chendai.FamilyMembrane, valam.Family)
	assert.Equal(t, float32(180), valam.BaseFreq)
	assert.Len(t, valam.Partials, 5)
	assert.Equal(t, "open", valam.MIDINotes[38])

	ela, ok := defs.Get("elathalam")
	require.True(t, ok)
	assert.Equal(t, chendai.FamilyMetallic, ela.Family)
	assert.Greater(t, ela.PhaseOffset, float32(0))

	_, ok = defs.Get("maddalam")
	assert.False(t, ok)
}

func TestLoadDefinitionsRejectsDuplicateIDs(t *testing.T) {
	const doc = `
instruments:
  - { id: drum, family: membrane, base_freq: 100, partials: [{ratio: 1, amplitude: 1}], decay_min: 0.1, decay_max: 0.2 }
  - { id: drum, family: membrane, base_freq: 120, partials: [{ratio: 1, amplitude: 1}], decay_min: 0.1, decay_max: 0.2 }
`
	_, err := chendai.LoadDefinitions(strings.NewReader(doc))
	var defErr *chendai.DefinitionError
	require.True(t, errors.As(err, &defErr))
	assert.Equal(t, "drum", defErr.ID)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestLoadDefinitionsRejectsEmptySet(t *testing.T) {
	_, err := chendai.LoadDefinitions(strings.NewReader("instruments: []"))
	require.Error(t, err)
}

func TestLoadDefinitionsRejectsBadGene(t *testing.T) {
	const doc = `
instruments:
  - { id: drum, family: membrane, base_freq: 0, partials: [{ratio: 1, amplitude: 1}], decay_min: 0.1, decay_max: 0.2 }
`
	_, err := chendai.LoadDefinitions(strings.NewReader(doc))
	var defErr *chendai.DefinitionError
	require.True(t, errors.As(err, &defErr))
	assert.Equal(t, "base_freq", defErr.Gene)
}

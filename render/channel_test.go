package render_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjunparightsolutions/chendai"
	"github.com/arjunparightsolutions/chendai/render"
)

func TestRenderChannelPlacesEventsAtOnset(t *testing.T) {
	defs := loadTestDefs(t)
	def := defs["chenda-valam"]
	events := []chendai.Event{
		{Instrument: "chenda-valam", Category: "open", Time: 0.5, Duration: 0.2, Velocity: 0.9},
	}
	buf, err := render.RenderChannel(&def, events, 1, chendai.DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, chendai.SampleRate, buf.Frames())

	onset := int(math.Round(0.5 * chendai.SampleRate))
	assert.Zero(t, peakOf(buf.L[:onset]), "nothing sounds before the onset")
	assert.Greater(t, peakOf(buf.L[onset:]), float32(0))
}

func TestRenderChannelOverlapAdds(t *testing.T) {
	defs := loadTestDefs(t)
	def := defs["chenda-valam"]
	ev := chendai.Event{Instrument: "chenda-valam", Category: "open", Time: 0.1, Duration: 0.3, Velocity: 0.7}
	cfg := chendai.DefaultConfig()

	single, err := render.RenderChannel(&def, []chendai.Event{ev}, 0.6, cfg)
	require.NoError(t, err)
	double, err := render.RenderChannel(&def, []chendai.Event{ev, ev}, 0.6, cfg)
	require.NoError(t, err)

	for i := range single.L {
		assert.Equal(t, 2*single.L[i], double.L[i], "sample %v", i)
	}
}

func TestRenderChannelDropsEventsPastTheEnd(t *testing.T) {
	defs := loadTestDefs(t)
	def := defs["chenda-valam"]
	events := []chendai.Event{
		{Instrument: "chenda-valam", Category: "open", Time: 2, Duration: 0.5, Velocity: 1},
	}
	buf, err := render.RenderChannel(&def, events, 1, chendai.DefaultConfig())
	require.NoError(t, err)
	assert.Zero(t, buf.Peak())
}

func TestRenderChannelTruncatesOverhangingTails(t *testing.T) {
	defs := loadTestDefs(t)
	def := defs["elathalam"]
	events := []chendai.Event{
		{Instrument: "elathalam", Category: "crash", Time: 0.9, Duration: 1.5, Velocity: 0.9},
	}
	buf, err := render.RenderChannel(&def, events, 1, chendai.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, chendai.SampleRate, buf.Frames())
	assert.Zero(t, buf.L[buf.Frames()-1], "the cut tail must fade to silence")
	assert.Greater(t, peakOf(buf.L), float32(0))
}

func TestRenderChannelPanPlacement(t *testing.T) {
	defs := loadTestDefs(t)
	def := defs["chenda-valam"]
	hardLeft := float32(-1)
	events := []chendai.Event{
		{Instrument: "chenda-valam", Category: "open", Time: 0, Duration: 0.2, Velocity: 0.9, Pan: &hardLeft},
	}
	buf, err := render.RenderChannel(&def, events, 0.5, chendai.DefaultConfig())
	require.NoError(t, err)
	assert.Greater(t, peakOf(buf.L), float32(0))
	assert.Zero(t, peakOf(buf.R), "a hard-left stroke leaves the right channel silent")
}

func TestRenderChannelRejectsZeroDuration(t *testing.T) {
	defs := loadTestDefs(t)
	def := defs["chenda-valam"]
	_, err := render.RenderChannel(&def, nil, 0, chendai.DefaultConfig())
	require.Error(t, err)
}

package render_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjunparightsolutions/chendai"
	"github.com/arjunparightsolutions/chendai/render"
)

func loadTestDefs(t *testing.T) chendai.DefinitionSet {
	t.Helper()
	defs, err := chendai.LoadDefinitionFile("../testdata/instruments.yaml")
	require.NoError(t, err)
	return defs
}

func peakOf(buf []float32) float32 {
	var peak float32
	for _, v := range buf {
		if a := float32(math.Abs(float64(v))); a > peak {
			peak = a
		}
	}
	return peak
}

func TestSynthesizeLengthAndPeak(t *testing.T) {
	defs := loadTestDefs(t)
	cfg := chendai.DefaultConfig()
	for _, id := range defs.IDs() {
		def := defs[id]
		for _, category := range def.StrokeCategories() {
			t.Run(id+"/"+category, func(t *testing.T) {
				ev := chendai.Event{Instrument: id, Category: category, Duration: 0.321, Velocity: 0.8}
				out, err := render.Synthesize(&def, ev, cfg)
				require.NoError(t, err)
				assert.Equal(t, int(math.Round(0.321*chendai.SampleRate)), len(out))

				stroke, _ := def.Stroke(category)
				peak := peakOf(out)
				assert.Greater(t, peak, float32(0), "a stroke must produce sound")
				assert.LessOrEqual(t, peak, float32(0.8)*stroke.AmpScale*cfg.StrokePeak+1e-4)
			})
		}
	}
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	defs := loadTestDefs(t)
	def := defs["elathalam"]
	ev := chendai.Event{Instrument: "elathalam", Category: "crash", Time: 1.5, Duration: 1, Velocity: 0.9}
	a, err := render.Synthesize(&def, ev, chendai.DefaultConfig())
	require.NoError(t, err)
	b, err := render.Synthesize(&def, ev, chendai.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, a, b, "same event must render sample-identical")
}

func TestSynthesizeZeroVelocity(t *testing.T) {
	defs := loadTestDefs(t)
	def := defs["chenda-valam"]
	ev := chendai.Event{Instrument: "chenda-valam", Category: "open", Duration: 0.2, Velocity: 0}

	cfg := chendai.DefaultConfig()
	cfg.ZeroVelocity = chendai.ZeroVelocitySilence
	out, err := render.Synthesize(&def, ev, cfg)
	require.NoError(t, err)
	assert.Zero(t, peakOf(out))

	cfg.ZeroVelocity = chendai.ZeroVelocityFloor
	out, err = render.Synthesize(&def, ev, cfg)
	require.NoError(t, err)
	peak := peakOf(out)
	assert.Greater(t, peak, float32(0), "floor policy keeps a minimal stroke")
	assert.Less(t, peak, float32(0.01))
}

func TestSynthesizeVelocityScalesLevel(t *testing.T) {
	defs := loadTestDefs(t)
	def := defs["chenda-edamthala"]
	cfg := chendai.DefaultConfig()
	soft, err := render.Synthesize(&def, chendai.Event{Category: "center", Duration: 0.4, Velocity: 0.3}, cfg)
	require.NoError(t, err)
	hard, err := render.Synthesize(&def, chendai.Event{Category: "center", Duration: 0.4, Velocity: 1}, cfg)
	require.NoError(t, err)
	assert.Greater(t, peakOf(hard), peakOf(soft)*2)
}

func TestSynthesizeStartsAndEndsClickFree(t *testing.T) {
	defs := loadTestDefs(t)
	def := defs["elathalam"]
	// duration far shorter than the cymbal decay, so the tail is truncated
	out, err := render.Synthesize(&def, chendai.Event{Category: "crash", Duration: 0.1, Velocity: 1}, chendai.DefaultConfig())
	require.NoError(t, err)
	assert.Zero(t, out[0], "onset must ramp from silence")
	assert.Zero(t, out[len(out)-1], "truncated tails must fade to silence")
}

func TestSynthesizeDampedStrokeDiesEarly(t *testing.T) {
	defs := loadTestDefs(t)
	def := defs["elathalam"]
	cfg := chendai.DefaultConfig()
	crash, err := render.Synthesize(&def, chendai.Event{Category: "crash", Duration: 1.5, Velocity: 0.9}, cfg)
	require.NoError(t, err)
	choke, err := render.Synthesize(&def, chendai.Event{Category: "choke", Duration: 1.5, Velocity: 0.9}, cfg)
	require.NoError(t, err)

	half := len(choke) / 2
	assert.Zero(t, peakOf(choke[half:]), "a choked cymbal must be gated silent")
	assert.Greater(t, peakOf(crash[half:]), float32(0), "an open crash keeps ringing")
}

func TestSynthesizeTonalFreqOverride(t *testing.T) {
	defs := loadTestDefs(t)
	def := defs["kombu"]
	cfg := chendai.DefaultConfig()
	base, err := render.Synthesize(&def, chendai.Event{Category: "tone", Duration: 0.5, Velocity: 0.8}, cfg)
	require.NoError(t, err)
	raised, err := render.Synthesize(&def, chendai.Event{Category: "tone", Duration: 0.5, Velocity: 0.8, Freq: 311.1}, cfg)
	require.NoError(t, err)
	assert.NotEqual(t, base, raised)
}

func TestSynthesizeRejectsBadInput(t *testing.T) {
	defs := loadTestDefs(t)
	def := defs["chenda-valam"]
	cfg := chendai.DefaultConfig()

	_, err := render.Synthesize(&def, chendai.Event{Category: "crash", Duration: 0.5, Velocity: 1}, cfg)
	var rErr *chendai.RenderError
	require.True(t, errors.As(err, &rErr))
	assert.Equal(t, "synthesize", rErr.Stage)

	_, err = render.Synthesize(&def, chendai.Event{Category: "open", Duration: 0, Velocity: 1}, cfg)
	require.Error(t, err)
}

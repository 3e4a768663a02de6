package render_test

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjunparightsolutions/chendai"
	"github.com/arjunparightsolutions/chendai/render"
)

func loadTestScore(t *testing.T) chendai.Score {
	t.Helper()
	sc, err := chendai.LoadScoreFile("../testdata/thayambaka.yaml")
	require.NoError(t, err)
	return sc
}

func TestRenderPipeline(t *testing.T) {
	defs := loadTestDefs(t)
	sc := loadTestScore(t)
	r := render.NewRenderer(defs, chendai.DefaultConfig())

	var progress []string
	r.Progress = func(format string, args ...any) {
		progress = append(progress, fmt.Sprintf(format, args...))
	}

	master, stems, result, err := r.Render(context.Background(), sc, nil, 0)
	require.NoError(t, err)

	wantFrames := int(math.Round((sc.End() + r.Config.Tail) * chendai.SampleRate))
	assert.Equal(t, wantFrames, master.Frames())
	assert.Greater(t, master.Peak(), float32(0))
	assert.LessOrEqual(t, master.Peak(), float32(1))

	// one stem per instrument that actually plays
	assert.Len(t, stems, 4)
	for _, id := range []string{"chenda-valam", "chenda-edamthala", "elathalam", "kombu"} {
		require.Contains(t, stems, id)
		assert.Equal(t, wantFrames, stems[id].Frames())
	}
	assert.NotContains(t, stems, "kurumkuzhal")

	assert.Equal(t, "thayambaka", result.Style)
	assert.Equal(t, 96, result.BPM)
	assert.Equal(t, chendai.SampleRate, result.SampleRate)
	assert.Len(t, result.Events, len(sc.Events))
	for i := 1; i < len(result.Events); i++ {
		assert.LessOrEqual(t, result.Events[i-1].Time, result.Events[i].Time, "metadata events stay onset-ordered")
	}

	require.NotEmpty(t, progress)
	assert.True(t, strings.HasPrefix(progress[0], "rendering"), "pipeline stages report in order")
	assert.Contains(t, progress[len(progress)-1], "mixed")
}

func TestRenderFixedDuration(t *testing.T) {
	defs := loadTestDefs(t)
	r := render.NewRenderer(defs, chendai.DefaultConfig())
	master, _, result, err := r.Render(context.Background(), loadTestScore(t), nil, 1.0)
	require.NoError(t, err)
	assert.Equal(t, chendai.SampleRate, master.Frames())
	assert.Equal(t, 1.0, result.Duration)
}

func TestRenderIsDeterministic(t *testing.T) {
	defs := loadTestDefs(t)
	sc := loadTestScore(t)

	var wg sync.WaitGroup
	masters := make([]*chendai.Buffer, 2)
	errs := make([]error, 2)
	for i := range masters {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := render.NewRenderer(defs, chendai.DefaultConfig())
			masters[i], _, _, errs[i] = r.Render(context.Background(), sc, nil, 0)
		}(i)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, masters[0].L, masters[1].L, "concurrent renders of the same score agree sample for sample")
	assert.Equal(t, masters[0].R, masters[1].R)
}

func TestRenderHonorsCancellation(t *testing.T) {
	defs := loadTestDefs(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := render.NewRenderer(defs, chendai.DefaultConfig())
	_, _, _, err := r.Render(ctx, loadTestScore(t), nil, 0)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRenderRejectsInvalidScores(t *testing.T) {
	defs := loadTestDefs(t)
	r := render.NewRenderer(defs, chendai.DefaultConfig())
	sc := chendai.Score{Events: []chendai.Event{
		{Instrument: "maddalam", Category: "open", Time: 0, Duration: 1, Velocity: 1},
	}}
	_, _, _, err := r.Render(context.Background(), sc, nil, 0)
	var scErr *chendai.ScoreError
	require.ErrorAs(t, err, &scErr)
}

func TestRenderAppliesMixParameters(t *testing.T) {
	defs := loadTestDefs(t)
	sc := loadTestScore(t)
	r := render.NewRenderer(defs, chendai.DefaultConfig())

	solo := chendai.DefaultMixParameters()
	solo.Solo = true
	params := map[string]chendai.MixParameters{"kombu": solo}

	master, stems, _, err := r.Render(context.Background(), sc, params, 0)
	require.NoError(t, err)
	assert.Equal(t, stems["kombu"].L, master.L, "soloing one channel makes the master that channel")

	// stems always carry the unprocessed channels
	assert.Greater(t, stems["chenda-valam"].Peak(), float32(0))
}

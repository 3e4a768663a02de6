package render

import (
	"fmt"
	"math"

	"github.com/arjunparightsolutions/chendai"
	"github.com/arjunparightsolutions/chendai/fx"
)

// RenderChannel renders all events of one instrument onto a stereo timeline
// of round(duration*rate) frames. Strokes are overlap-added at their onset
// sample; simultaneous and overlapping strokes sum. Each stroke lands at
// its event pan, falling back to the instrument's default position. Events
// starting at or beyond the end of the timeline are dropped, tails running
// past it are truncated with a short fade.
func RenderChannel(def *chendai.InstrumentDefinition, events []chendai.Event, duration float64, cfg chendai.Config) (*chendai.Buffer, error) {
	frames := int(math.Round(duration * chendai.SampleRate))
	if frames <= 0 {
		return nil, &chendai.RenderError{Stage: "channel", Err: fmt.Errorf("duration %v rounds to zero frames", duration)}
	}
	buf := chendai.NewBuffer(frames)
	for _, ev := range events {
		start := int(math.Round(ev.Time * chendai.SampleRate))
		if start >= frames {
			continue
		}
		mono, err := Synthesize(def, ev, cfg)
		if err != nil {
			return nil, err
		}
		if start+len(mono) > frames {
			mono = mono[:frames-start]
			applyFadeOut(mono)
		}
		pan := def.Pan
		if ev.Pan != nil {
			pan = *ev.Pan
		}
		lg, rg := fx.PanGains(pan)
		for i, v := range mono {
			buf.L[start+i] += v * lg
			buf.R[start+i] += v * rg
		}
	}
	return buf, nil
}

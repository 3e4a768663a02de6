package render

import (
	"context"
	"runtime"
	"sync"

	"github.com/arjunparightsolutions/chendai"
)

// Renderer runs the whole generation pipeline: validate, synthesize the
// per-instrument channels concurrently, mix. A Renderer is stateless
// between calls and safe for concurrent use; the definitions and
// configuration are read-only.
type Renderer struct {
	Defs   chendai.DefinitionSet
	Config chendai.Config

	// Progress, when set, receives one human-readable line per pipeline
	// stage. Lines arrive in pipeline order.
	Progress func(format string, args ...any)
}

// NewRenderer builds a renderer over a loaded definition store.
func NewRenderer(defs chendai.DefinitionSet, cfg chendai.Config) *Renderer {
	return &Renderer{Defs: defs, Config: cfg}
}

// Render turns one score into a stereo master plus the per-instrument stem
// buffers and the result metadata. The score is validated against the
// definition store first, so callers may pass raw composer output.
//
// duration fixes the total length in seconds; 0 derives it from the last
// event plus the configured tail. Channels render concurrently, bounded by
// the configured worker count. Cancelling the context stops the pipeline
// between stages.
func (r *Renderer) Render(ctx context.Context, score chendai.Score, params map[string]chendai.MixParameters, duration float64) (*chendai.Buffer, map[string]*chendai.Buffer, *chendai.RenderResult, error) {
	sc, err := chendai.ValidateScore(r.Defs, score)
	if err != nil {
		return nil, nil, nil, err
	}
	total := duration
	if total <= 0 {
		total = sc.End() + r.Config.Tail
	}
	grouped := sc.ByInstrument()
	ids := make([]string, 0, len(grouped))
	for _, id := range r.Defs.IDs() {
		if _, ok := grouped[id]; ok {
			ids = append(ids, id)
		}
	}
	r.progress("rendering %v events on %v channels over %.2f s", len(sc.Events), len(ids), total)

	workers := r.Config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		channels = make(map[string]*chendai.Buffer, len(ids))
		sem      = make(chan struct{}, workers)
	)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			break
		}
		wg.Add(1)
		go func(id string, events []chendai.Event) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			def := r.Defs[id]
			buf, err := RenderChannel(&def, events, total, r.Config)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			channels[id] = buf
		}(id, grouped[id])
	}
	wg.Wait()
	if firstErr != nil {
		return nil, nil, nil, firstErr
	}
	for _, id := range ids {
		r.progress("channel %v: %v events", id, len(grouped[id]))
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, nil, err
	}
	master, err := Mix(channels, params, r.Config)
	if err != nil {
		return nil, nil, nil, err
	}
	r.progress("mixed %v channels, peak %.3f", len(channels), master.Peak())

	result := &chendai.RenderResult{
		Style:      sc.Style,
		BPM:        sc.BPM,
		SampleRate: chendai.SampleRate,
		Duration:   total,
		Events:     eventMeta(sc),
	}
	return master, channels, result, nil
}

func (r *Renderer) progress(format string, args ...any) {
	if r.Progress != nil {
		r.Progress(format, args...)
	}
}

func eventMeta(sc chendai.Score) []chendai.EventMeta {
	meta := make([]chendai.EventMeta, len(sc.Events))
	for i, ev := range sc.Events {
		meta[i] = chendai.EventMeta{
			Instrument: ev.Instrument,
			Category:   ev.Category,
			Time:       ev.Time,
			Duration:   ev.Duration,
			Velocity:   ev.Velocity,
		}
	}
	return meta
}

// Package oto adapts the engine's buffers to the system audio output, for
// previewing a render without exporting it first.
package oto

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/arjunparightsolutions/chendai"
)

// Context wraps the system audio context. The underlying library allows
// only one per process, so callers create it once and reuse it.
type Context struct {
	ctx *oto.Context
}

func NewContext() (*Context, error) {
	op := &oto.NewContextOptions{
		SampleRate:   chendai.SampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &Context{ctx: ctx}, nil
}

// Play plays the buffer to completion. Cancelling the context stops
// playback early.
func (c *Context) Play(ctx context.Context, buf *chendai.Buffer) error {
	player := c.ctx.NewPlayer(bytes.NewReader(BufferTo16BitLE(buf)))
	defer player.Close()
	player.Play()
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Package chendai implements a DNA-driven synthesis and mixing engine for
// Kerala percussion ensembles. Instrument "DNA" records describe how each
// instrument sounds; a validated score of stroke events is rendered through
// per-instrument channels into a stereo master ready for export.
package chendai

import (
	"fmt"

	"github.com/viterin/vek/vek32"
)

// SampleRate is the fixed project sample rate. Every buffer in the engine,
// from a single stroke to the final master, is sampled at this rate.
const SampleRate = 44100

// Buffer is a non-interleaved stereo sample buffer. Left and right always
// have the same length. Samples are float32 in the nominal range [-1,1];
// intermediate stages may exceed it, the mixer normalizes before export.
type Buffer struct {
	L []float32
	R []float32
}

// NewBuffer returns a zero-filled stereo buffer of the given length in frames.
func NewBuffer(frames int) *Buffer {
	return &Buffer{L: make([]float32, frames), R: make([]float32, frames)}
}

// Frames returns the length of the buffer in stereo frames.
func (b *Buffer) Frames() int { return len(b.L) }

func (b *Buffer) Clone() *Buffer {
	c := &Buffer{L: make([]float32, len(b.L)), R: make([]float32, len(b.R))}
	copy(c.L, b.L)
	copy(c.R, b.R)
	return c
}

// Peak returns the largest absolute sample value on either channel.
func (b *Buffer) Peak() float32 {
	if b.Frames() == 0 {
		return 0
	}
	l := vek32.Max(vek32.Abs(b.L))
	r := vek32.Max(vek32.Abs(b.R))
	if r > l {
		return r
	}
	return l
}

// Scale multiplies both channels by gain in place.
func (b *Buffer) Scale(gain float32) {
	if b.Frames() == 0 {
		return
	}
	vek32.MulNumber_Inplace(b.L, gain)
	vek32.MulNumber_Inplace(b.R, gain)
}

// Accumulate adds o into b sample-wise. The buffers must be equally long.
func (b *Buffer) Accumulate(o *Buffer) {
	if b.Frames() == 0 {
		return
	}
	vek32.Add_Inplace(b.L, o.L)
	vek32.Add_Inplace(b.R, o.R)
}

// Interleave returns the buffer as interleaved LRLR... samples, the layout
// the exporters and the playback output expect.
func (b *Buffer) Interleave() []float32 {
	out := make([]float32, 2*b.Frames())
	for i := range b.L {
		out[2*i] = b.L[i]
		out[2*i+1] = b.R[i]
	}
	return out
}

// DefinitionError is a fatal instrument DNA problem found at load time: a
// missing gene, a gene outside its declared domain or an unknown synthesis
// family.
type DefinitionError struct {
	ID   string // instrument id, empty if the record set itself is malformed
	Gene string // offending gene, empty if the record as a whole is at fault
	Err  error
}

func (e *DefinitionError) Error() string {
	switch {
	case e.ID == "":
		return fmt.Sprintf("definition: %v", e.Err)
	case e.Gene == "":
		return fmt.Sprintf("definition %v: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("definition %v: gene %v: %v", e.ID, e.Gene, e.Err)
}

func (e *DefinitionError) Unwrap() error { return e.Err }

// ScoreError rejects a whole event batch; a partially valid score would
// produce misleading audio.
type ScoreError struct {
	Index int // index of the offending event in the input batch
	Err   error
}

func (e *ScoreError) Error() string {
	return fmt.Sprintf("score event %v: %v", e.Index, e.Err)
}

func (e *ScoreError) Unwrap() error { return e.Err }

// RenderError is an internal synthesis or mixing failure.
type RenderError struct {
	Stage string // pipeline stage: "synthesize", "channel", "mix"
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render stage %v: %v", e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// ExportError is an encoding or output contract failure. Export either
// fully succeeds or writes nothing.
type ExportError struct {
	Format string
	Err    error
}

func (e *ExportError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("export: %v", e.Err)
	}
	return fmt.Sprintf("export %v: %v", e.Format, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

func clamp32(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

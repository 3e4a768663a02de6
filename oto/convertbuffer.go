package oto

import (
	"math"

	"github.com/arjunparightsolutions/chendai"
)

// BufferTo16BitLE converts a stereo buffer to the interleaved 16-bit
// little-endian frames the audio output consumes. Samples outside [-1,1]
// are clipped.
func BufferTo16BitLE(buf *chendai.Buffer) []byte {
	out := make([]byte, 0, 4*buf.Frames())
	for i := range buf.L {
		out = appendSample(out, buf.L[i])
		out = appendSample(out, buf.R[i])
	}
	return out
}

func appendSample(out []byte, v float32) []byte {
	var s int16
	switch {
	case v <= -1:
		s = -math.MaxInt16
	case v >= 1:
		s = math.MaxInt16
	default:
		s = int16(v * math.MaxInt16)
	}
	return append(out, byte(s), byte(s>>8))
}

package fx

// Schroeder reverb: parallel damped comb filters into serial allpasses.
// Comb and allpass lengths are the classic Freeverb tunings at 44.1 kHz;
// the right channel runs slightly longer lines to decorrelate the tail.

const stereoSpread = 23

var (
	combTunings    = [8]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
	allpassTunings = [4]int{556, 441, 341, 225}
)

// Reverb is a send-bus room simulator. Process returns wet signal only;
// the caller mixes it back against the dry path.
type Reverb struct {
	combsL    [8]comb
	combsR    [8]comb
	allpassL  [4]allpass
	allpassR  [4]allpass
	inputGain float32
}

// NewReverb builds a reverb for the given room size and damping, both in
// 0..1. Larger rooms feed the combs more feedback; damping rolls off highs
// inside the comb loops so the tail darkens as it decays.
func NewReverb(roomSize, damping float32) *Reverb {
	roomSize = clamp(roomSize, 0, 1)
	damping = clamp(damping, 0, 1)
	feedback := 0.7 + roomSize*0.28
	damp := damping * 0.4

	rv := &Reverb{inputGain: 0.015}
	for i, n := range combTunings {
		rv.combsL[i] = newComb(n, feedback, damp)
		rv.combsR[i] = newComb(n+stereoSpread, feedback, damp)
	}
	for i, n := range allpassTunings {
		rv.allpassL[i] = newAllpass(n)
		rv.allpassR[i] = newAllpass(n + stereoSpread)
	}
	return rv
}

// Process reverberates one stereo frame, returning 100% wet output.
func (rv *Reverb) Process(l, r float32) (float32, float32) {
	in := (l + r) * rv.inputGain
	var outL, outR float32
	for i := range rv.combsL {
		outL += rv.combsL[i].process(in)
		outR += rv.combsR[i].process(in)
	}
	for i := range rv.allpassL {
		outL = rv.allpassL[i].process(outL)
		outR = rv.allpassR[i].process(outR)
	}
	return outL, outR
}

// comb is a feedback comb filter with a one-pole lowpass in the loop.
type comb struct {
	buf            []float32
	pos            int
	feedback       float32
	damp1, damp2   float32
	filtered       float32
}

func newComb(size int, feedback, damp float32) comb {
	return comb{
		buf:      make([]float32, size),
		feedback: feedback,
		damp1:    damp,
		damp2:    1 - damp,
	}
}

func (c *comb) process(in float32) float32 {
	out := c.buf[c.pos]
	c.filtered = out*c.damp2 + c.filtered*c.damp1
	c.buf[c.pos] = in + c.filtered*c.feedback
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return out
}

type allpass struct {
	buf []float32
	pos int
}

func newAllpass(size int) allpass {
	return allpass{buf: make([]float32, size)}
}

func (a *allpass) process(in float32) float32 {
	const gain = 0.5
	delayed := a.buf[a.pos]
	out := delayed - in
	a.buf[a.pos] = in + delayed*gain
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return out
}

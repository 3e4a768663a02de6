package fx

// Delay is a send-bus feedback delay. Like Reverb it returns wet signal
// only and leaves the dry mix to the caller.
type Delay struct {
	bufL, bufR []float32
	pos        int
	feedback   float32
}

// NewDelay builds a stereo delay line. Time is in seconds, feedback in
// 0..0.95 so the echo tail always converges.
func NewDelay(sampleRate int, time, feedback float32) *Delay {
	samples := int(time * float32(sampleRate))
	if samples < 1 {
		samples = 1
	}
	return &Delay{
		bufL:     make([]float32, samples),
		bufR:     make([]float32, samples),
		feedback: clamp(feedback, 0, 0.95),
	}
}

// Process delays one stereo frame.
func (d *Delay) Process(l, r float32) (float32, float32) {
	outL := d.bufL[d.pos]
	outR := d.bufR[d.pos]
	d.bufL[d.pos] = l + outL*d.feedback
	d.bufR[d.pos] = r + outR*d.feedback
	d.pos++
	if d.pos >= len(d.bufL) {
		d.pos = 0
	}
	return outL, outR
}

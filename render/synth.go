// Package render is the engine core: it turns validated scores and DNA
// records into audio. Stroke synthesis produces mono stroke buffers, the
// channel renderer overlap-adds them onto per-instrument stereo timelines
// and the mixer folds the timelines into the master.
package render

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/chewxy/math32"

	"github.com/arjunparightsolutions/chendai"
)

const (
	twoPi = 2 * math32.Pi
	dt    = 1.0 / chendai.SampleRate

	// attackTime bounds the onset ramp so strokes keep their transient snap.
	attackTime = 0.005
	// fadeTime is the fade applied when a buffer boundary truncates a tail.
	fadeTime = 0.005
	// bendTau is how fast the impact pitch bend relaxes back to the base
	// frequency.
	bendTau = 0.03
	// floorGain is the minimal audible stroke level (about -48 dB) used by
	// the zero-velocity floor policy.
	floorGain = 0.004
)

// Synthesize renders one stroke as a mono buffer of exactly
// round(duration*rate) samples. The same definition, event and configuration
// always produce the same samples; the noise generator is seeded from the
// event identity.
func Synthesize(def *chendai.InstrumentDefinition, ev chendai.Event, cfg chendai.Config) ([]float32, error) {
	frames := int(math.Round(ev.Duration * chendai.SampleRate))
	if frames <= 0 {
		return nil, &chendai.RenderError{Stage: "synthesize", Err: fmt.Errorf("duration %v rounds to zero samples", ev.Duration)}
	}
	stroke, ok := def.Stroke(ev.Category)
	if !ok {
		return nil, &chendai.RenderError{Stage: "synthesize", Err: fmt.Errorf("instrument %q has no stroke %q", def.ID, ev.Category)}
	}
	vel := clamp(ev.Velocity, 0, 1)
	if vel == 0 {
		if cfg.ZeroVelocity == chendai.ZeroVelocitySilence {
			return make([]float32, frames), nil
		}
		vel = floorGain
	}

	out := make([]float32, frames)
	rng := rand.New(rand.NewSource(strokeSeed(def.ID, ev)))
	switch def.Family {
	case chendai.FamilyMembrane:
		membraneStroke(out, def, stroke, vel, rng)
	case chendai.FamilyMetallic:
		metallicStroke(out, def, stroke, vel, rng)
	case chendai.FamilyTonal:
		tonalStroke(out, def, stroke, ev, vel, rng)
	default:
		return nil, &chendai.RenderError{Stage: "synthesize", Err: fmt.Errorf("unknown synthesis family %q", def.Family)}
	}

	applyAttack(out)
	if stroke.Damped {
		applyGate(out, decayTime(def, stroke, vel))
	}
	applyFadeOut(out)
	normalizeStroke(out, vel*stroke.AmpScale*cfg.StrokePeak)
	return out, nil
}

// strokeSeed derives a deterministic noise seed from the event identity so
// repeated renders are sample-identical.
func strokeSeed(id string, ev chendai.Event) int64 {
	h := fnv.New64a()
	h.Write([]byte(id))
	h.Write([]byte(ev.Category))
	fmt.Fprintf(h, "%v", ev.Time)
	return int64(h.Sum64())
}

// baseFrequency resolves the effective fundamental: velocity raises the
// pitch towards the tension maximum, the stroke scales it from there.
func baseFrequency(def *chendai.InstrumentDefinition, stroke chendai.Stroke, vel float32) float32 {
	f := def.BaseFreq
	if def.BaseFreqMax > def.BaseFreq {
		f += (def.BaseFreqMax - def.BaseFreq) * vel
	}
	return f * stroke.FreqScale
}

// decayTime resolves the envelope time constant: harder strikes push more
// energy into the head and damp slightly faster.
func decayTime(def *chendai.InstrumentDefinition, stroke chendai.Stroke, vel float32) float32 {
	tau := def.DecayMax * (1 - 0.4*vel)
	if tau < def.DecayMin {
		tau = def.DecayMin
	}
	return tau * stroke.DecayScale
}

// membraneStroke is the drum head model: a sum of decaying partials whose
// brightness follows velocity, with a pitch bend that relaxes after impact
// and a noise burst for the stick or palm contact.
func membraneStroke(out []float32, def *chendai.InstrumentDefinition, stroke chendai.Stroke, vel float32, rng *rand.Rand) {
	f := baseFrequency(def, stroke, vel)
	tau := decayTime(def, stroke, vel)
	count := float32(len(def.Partials))
	for i, p := range def.Partials {
		// Higher partials need a harder strike to speak and die out sooner.
		amp := p.Amplitude * math32.Pow(vel, 1+0.8*float32(i)/count)
		ptau := tau / (1 + 0.5*float32(i))
		addPartial(out, f*p.Ratio, def.PitchBend*p.Ratio, amp, ptau, 0)
	}
	if amount := def.Noise.Amount * stroke.NoiseScale; amount > 0 {
		addNoise(out, rng, amount, def.Noise.Color, 0.015)
	}
}

// metallicStroke is the cymbal model: inharmonically stretched partials
// with randomized phases and a long shimmer noise bed. Instruments with a
// phase offset are twin-element pairs; the second element arrives late and
// slightly detuned.
func metallicStroke(out []float32, def *chendai.InstrumentDefinition, stroke chendai.Stroke, vel float32, rng *rand.Rand) {
	f := baseFrequency(def, stroke, vel)
	tau := decayTime(def, stroke, vel)
	metallicElement(out, def, f, tau, vel, 1, rng)
	if def.PhaseOffset > 0 {
		offset := int(math.Round(float64(def.PhaseOffset) * chendai.SampleRate))
		if offset < len(out) {
			metallicElement(out[offset:], def, f*1.013, tau, vel*0.8, 0.8, rng)
		}
	}
	if amount := def.Noise.Amount * stroke.NoiseScale; amount > 0 {
		addNoise(out, rng, amount, def.Noise.Color, tau*0.5)
	}
}

func metallicElement(out []float32, def *chendai.InstrumentDefinition, f, tau, vel, gain float32, rng *rand.Rand) {
	count := float32(len(def.Partials))
	for i, p := range def.Partials {
		ratio := p.Ratio * (1 + def.Inharmonicity*float32(i))
		amp := gain * p.Amplitude * math32.Pow(vel, 1+0.6*float32(i)/count)
		ptau := tau / (1 + 0.3*float32(i))
		addPartial(out, f*ratio, 0, amp, ptau, rng.Float32()*twoPi)
	}
}

// addPartial accumulates one exponentially decaying sine. A nonzero bend
// starts the partial sharp and lets it relax; the phase accumulates the
// instantaneous frequency so the bend glides without discontinuities.
func addPartial(out []float32, freq, bend, amp, tau, phase float32) {
	if amp == 0 || tau <= 0 {
		return
	}
	envStep := math32.Exp(-dt / tau)
	bendStep := math32.Exp(-dt / bendTau)
	env := float32(1)
	for s := range out {
		phase += twoPi * (freq + bend) * dt
		out[s] += amp * env * math32.Sin(phase)
		env *= envStep
		bend *= bendStep
	}
}

// addNoise accumulates a decaying noise burst, colored by a one-pole
// lowpass: color 0 is white, color 1 heavily darkened.
func addNoise(out []float32, rng *rand.Rand, amount, color, tau float32) {
	if tau <= 0 {
		return
	}
	coef := clamp(color, 0, 1) * 0.98
	envStep := math32.Exp(-dt / tau)
	env := float32(1)
	var lp float32
	for s := range out {
		white := rng.Float32()*2 - 1
		lp += (white - lp) * (1 - coef)
		out[s] += amount * env * lp
		env *= envStep
	}
}

// tonalStroke is the wind model: a shaped oscillator under an envelope
// sized to the event, plus a constant breath noise bed. Swells ramp up over
// a large part of the note instead of speaking immediately.
func tonalStroke(out []float32, def *chendai.InstrumentDefinition, stroke chendai.Stroke, ev chendai.Event, vel float32, rng *rand.Rand) {
	f := def.BaseFreq
	if ev.Freq > 0 {
		f = ev.Freq
	}
	f *= stroke.FreqScale

	dur := float32(len(out)) * dt
	attack := float32(0.02)
	if ev.Category == "swell" {
		attack = dur * 0.4
	}
	release := dur * 0.25
	if release > 0.2 {
		release = 0.2
	}
	env := newADSR(attack, 0.05, 0.85, release, dur)

	var phase float32
	for s := range out {
		phase += f * dt
		phase -= math32.Floor(phase)
		out[s] += osc(def.Shape, phase) * env.next()
	}
	if amount := def.Noise.Amount * stroke.NoiseScale; amount > 0 {
		breath(out, rng, amount, def.Noise.Color, attack, release, dur)
	}
}

// breath adds sustained colored noise under the tonal envelope.
func breath(out []float32, rng *rand.Rand, amount, color, attack, release, dur float32) {
	coef := clamp(color, 0, 1) * 0.98
	env := newADSR(attack, 0.05, 1, release, dur)
	var lp float32
	for s := range out {
		white := rng.Float32()*2 - 1
		lp += (white - lp) * (1 - coef)
		out[s] += amount * lp * env.next()
	}
}

// osc evaluates one oscillator shape at a normalized phase in [0,1).
func osc(shape chendai.Waveform, phase float32) float32 {
	switch shape {
	case chendai.WaveTriangle:
		return 4*math32.Abs(phase-0.5) - 1
	case chendai.WaveSaw:
		return 2*phase - 1
	case chendai.WaveSquare:
		if phase < 0.5 {
			return 1
		}
		return -1
	}
	return math32.Sin(twoPi * phase)
}

// adsr is a linear attack/decay/sustain/release envelope walked one sample
// at a time.
type adsr struct {
	attackEnd, decayEnd, releaseAt int
	sustain                        float32
	total                          int
	pos                            int
}

func newADSR(attack, decay, sustain, release, dur float32) *adsr {
	total := int(dur * chendai.SampleRate)
	e := &adsr{
		attackEnd: int(attack * chendai.SampleRate),
		sustain:   sustain,
		total:     total,
	}
	e.decayEnd = e.attackEnd + int(decay*chendai.SampleRate)
	e.releaseAt = total - int(release*chendai.SampleRate)
	if e.releaseAt < e.decayEnd {
		e.releaseAt = e.decayEnd
	}
	return e
}

func (e *adsr) next() float32 {
	pos := e.pos
	e.pos++
	switch {
	case pos < e.attackEnd:
		return float32(pos) / float32(e.attackEnd)
	case pos < e.decayEnd:
		t := float32(pos-e.attackEnd) / float32(e.decayEnd-e.attackEnd)
		return 1 - (1-e.sustain)*t
	case pos < e.releaseAt:
		return e.sustain
	case pos < e.total:
		t := float32(pos-e.releaseAt) / float32(e.total-e.releaseAt)
		return e.sustain * (1 - t)
	}
	return 0
}

// applyAttack ramps the first few milliseconds so the stroke never clicks
// on onset.
func applyAttack(out []float32) {
	n := int(math.Round(attackTime * chendai.SampleRate))
	if n > len(out) {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		out[i] *= float32(i) / float32(n)
	}
}

// applyFadeOut fades the last few milliseconds so a truncated tail never
// clicks at the buffer boundary.
func applyFadeOut(out []float32) {
	n := int(math.Round(fadeTime * chendai.SampleRate))
	if n > len(out) {
		n = len(out)
	}
	base := len(out) - n
	for i := 0; i < n; i++ {
		out[base+i] *= float32(n-1-i) / float32(n)
	}
}

// applyGate cuts a damped stroke hard: full level until twice the decay
// constant, then a 10 ms release to silence.
func applyGate(out []float32, tau float32) {
	hold := int(2 * tau * chendai.SampleRate)
	if hold >= len(out) {
		return
	}
	release := int(0.01 * chendai.SampleRate)
	for i := hold; i < len(out); i++ {
		past := i - hold
		if past >= release {
			out[i] = 0
			continue
		}
		out[i] *= float32(release-past) / float32(release)
	}
}

// normalizeStroke scales the stroke so its peak lands on the target level.
func normalizeStroke(out []float32, target float32) {
	var peak float32
	for _, v := range out {
		if a := math32.Abs(v); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return
	}
	if target > 1 {
		target = 1
	}
	gain := target / peak
	for i := range out {
		out[i] *= gain
	}
}

func clamp(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

package fx

import (
	"math"

	"github.com/chewxy/math32"
)

// EQ band corner frequencies, chosen for percussion: the low shelf catches
// membrane fundamentals, the mid bell the stroke body, the high shelf the
// cymbal shimmer and stick noise.
const (
	eqLowHz  = 80
	eqMidHz  = 1000
	eqHighHz = 8000
	eqMidQ   = 1.4

	// Bands with less than this much boost or cut are bypassed entirely,
	// which keeps a flat EQ bit-transparent.
	eqBypassDB = 0.01
)

// EQ3Band is a three-band equalizer: low shelf at 80 Hz, peaking bell at
// 1 kHz and high shelf at 8 kHz, each with -15..+15 dB of gain. Biquad
// sections use the Audio EQ Cookbook formulas.
type EQ3Band struct {
	sections [3]biquad
	active   [3]bool
}

// NewEQ3Band builds an equalizer for the given band gains in dB. Gains
// outside -15..+15 are clamped.
func NewEQ3Band(sampleRate int, lowDB, midDB, highDB float32) *EQ3Band {
	eq := &EQ3Band{}
	lowDB = clamp(lowDB, -15, 15)
	midDB = clamp(midDB, -15, 15)
	highDB = clamp(highDB, -15, 15)
	if math32.Abs(lowDB) >= eqBypassDB {
		eq.sections[0] = lowShelf(sampleRate, eqLowHz, float64(lowDB))
		eq.active[0] = true
	}
	if math32.Abs(midDB) >= eqBypassDB {
		eq.sections[1] = peakingEQ(sampleRate, eqMidHz, eqMidQ, float64(midDB))
		eq.active[1] = true
	}
	if math32.Abs(highDB) >= eqBypassDB {
		eq.sections[2] = highShelf(sampleRate, eqHighHz, float64(highDB))
		eq.active[2] = true
	}
	return eq
}

// Process filters one stereo frame.
func (eq *EQ3Band) Process(l, r float32) (float32, float32) {
	for i := range eq.sections {
		if eq.active[i] {
			l, r = eq.sections[i].process(l, r)
		}
	}
	return l, r
}

// biquad is one second-order IIR section with independent left/right state,
// transposed direct form II.
type biquad struct {
	b0, b1, b2, a1, a2 float32
	z1L, z2L           float32
	z1R, z2R           float32
}

func (f *biquad) process(l, r float32) (float32, float32) {
	outL := f.b0*l + f.z1L
	f.z1L = f.b1*l - f.a1*outL + f.z2L
	f.z2L = f.b2*l - f.a2*outL
	outR := f.b0*r + f.z1R
	f.z1R = f.b1*r - f.a1*outR + f.z2R
	f.z2R = f.b2*r - f.a2*outR
	return outL, outR
}

// Coefficients from Robert Bristow-Johnson's Audio EQ Cookbook, computed in
// float64 and narrowed once.

func lowShelf(sampleRate int, freq, gainDB float64) biquad {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / float64(sampleRate)
	cosW, sinW := math.Cos(w0), math.Sin(w0)
	alpha := sinW / 2 * math.Sqrt2 // shelf slope 1
	sqrtA := math.Sqrt(a)

	b0 := a * ((a + 1) - (a-1)*cosW + 2*sqrtA*alpha)
	b1 := 2 * a * ((a - 1) - (a+1)*cosW)
	b2 := a * ((a + 1) - (a-1)*cosW - 2*sqrtA*alpha)
	a0 := (a + 1) + (a-1)*cosW + 2*sqrtA*alpha
	a1 := -2 * ((a - 1) + (a+1)*cosW)
	a2 := (a + 1) + (a-1)*cosW - 2*sqrtA*alpha
	return normalized(b0, b1, b2, a0, a1, a2)
}

func highShelf(sampleRate int, freq, gainDB float64) biquad {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / float64(sampleRate)
	cosW, sinW := math.Cos(w0), math.Sin(w0)
	alpha := sinW / 2 * math.Sqrt2
	sqrtA := math.Sqrt(a)

	b0 := a * ((a + 1) + (a-1)*cosW + 2*sqrtA*alpha)
	b1 := -2 * a * ((a - 1) + (a+1)*cosW)
	b2 := a * ((a + 1) + (a-1)*cosW - 2*sqrtA*alpha)
	a0 := (a + 1) - (a-1)*cosW + 2*sqrtA*alpha
	a1 := 2 * ((a - 1) - (a+1)*cosW)
	a2 := (a + 1) - (a-1)*cosW - 2*sqrtA*alpha
	return normalized(b0, b1, b2, a0, a1, a2)
}

func peakingEQ(sampleRate int, freq, q, gainDB float64) biquad {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / float64(sampleRate)
	cosW, sinW := math.Cos(w0), math.Sin(w0)
	alpha := sinW / (2 * q)

	b0 := 1 + alpha*a
	b1 := -2 * cosW
	b2 := 1 - alpha*a
	a0 := 1 + alpha/a
	a1 := -2 * cosW
	a2 := 1 - alpha/a
	return normalized(b0, b1, b2, a0, a1, a2)
}

func normalized(b0, b1, b2, a0, a1, a2 float64) biquad {
	return biquad{
		b0: float32(b0 / a0),
		b1: float32(b1 / a0),
		b2: float32(b2 / a0),
		a1: float32(a1 / a0),
		a2: float32(a2 / a0),
	}
}

// Package fx holds the small stateful signal processors the ensemble mixer
// chains per channel and per send bus: 3-band EQ, Schroeder reverb,
// feedback delay and the stereo placement laws. Every processor works on
// float32 frames at the fixed project sample rate and carries its own
// filter state, so one instance serves exactly one signal path.
package fx

import "github.com/chewxy/math32"

// DBToGain converts decibels to a linear factor.
func DBToGain(db float32) float32 {
	return math32.Pow(10, db/20)
}

// PanGains returns constant-power left/right gains for a pan position in
// -1..1, compensated so a centered signal passes at unity. The squared
// gains sum to 2 at every position.
func PanGains(pan float32) (left, right float32) {
	angle := (pan + 1) * math32.Pi / 4
	return math32.Sqrt2 * math32.Cos(angle), math32.Sqrt2 * math32.Sin(angle)
}

// Width applies mid/side stereo width to one frame. Width 1 is identity,
// 0 collapses to mono, 2 doubles the side signal. Results are renormalized
// by the worst-case gain so widening can never push a full-scale signal
// past unity.
func Width(l, r, width float32) (float32, float32) {
	mid := (l + r) * 0.5
	side := (l - r) * 0.5 * width
	norm := float32(1)
	if width > 1 {
		norm = 1 / width
	}
	return (mid + side) * norm, (mid - side) * norm
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

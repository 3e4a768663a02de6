package fx_test

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"

	"github.com/arjunparightsolutions/chendai/fx"
)

const testRate = 44100

// rms runs a sine of the given frequency through the EQ and measures the
// output level after the filters settle.
func rms(eq *fx.EQ3Band, freq float32) float64 {
	const n = testRate / 2
	var sum float64
	for i := 0; i < n; i++ {
		v := math32.Sin(2 * math32.Pi * freq * float32(i) / testRate)
		l, _ := eq.Process(v, v)
		if i >= n/4 {
			sum += float64(l) * float64(l)
		}
	}
	return sum / (n - n/4)
}

func TestEQ3BandFlatIsIdentity(t *testing.T) {
	eq := fx.NewEQ3Band(testRate, 0, 0, 0)
	for _, v := range []float32{0, 0.5, -1, 0.123} {
		l, r := eq.Process(v, -v)
		assert.Equal(t, v, l)
		assert.Equal(t, -v, r)
	}
}

func TestEQ3BandShelves(t *testing.T) {
	flat := rms(fx.NewEQ3Band(testRate, 0, 0, 0), 40)
	boosted := rms(fx.NewEQ3Band(testRate, 12, 0, 0), 40)
	cut := rms(fx.NewEQ3Band(testRate, -12, 0, 0), 40)
	assert.Greater(t, boosted, flat*4, "low shelf boost must lift content below the corner")
	assert.Less(t, cut, flat/4)

	// a low shelf leaves the high end substantially alone
	high := rms(fx.NewEQ3Band(testRate, 12, 0, 0), 10000)
	flatHigh := rms(fx.NewEQ3Band(testRate, 0, 0, 0), 10000)
	assert.InDelta(t, 1.0, high/flatHigh, 0.2)
}

func TestEQ3BandPeaking(t *testing.T) {
	flat := rms(fx.NewEQ3Band(testRate, 0, 0, 0), 1000)
	boosted := rms(fx.NewEQ3Band(testRate, 0, 9, 0), 1000)
	assert.Greater(t, boosted, flat*2)

	away := rms(fx.NewEQ3Band(testRate, 0, 9, 0), 60)
	flatAway := rms(fx.NewEQ3Band(testRate, 0, 0, 0), 60)
	assert.InDelta(t, 1.0, away/flatAway, 0.25, "the bell must not reach the low end")
}

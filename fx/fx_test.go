package fx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arjunparightsolutions/chendai/fx"
)

func TestDBToGain(t *testing.T) {
	assert.InDelta(t, 1.0, fx.DBToGain(0), 1e-6)
	assert.InDelta(t, 10.0, fx.DBToGain(20), 1e-4)
	assert.InDelta(t, 0.1, fx.DBToGain(-20), 1e-6)
}

func TestPanGains(t *testing.T) {
	l, r := fx.PanGains(0)
	assert.InDelta(t, 1.0, l, 1e-6, "center passes at unity")
	assert.InDelta(t, 1.0, r, 1e-6)

	l, r = fx.PanGains(-1)
	assert.InDelta(t, 0, r, 1e-6, "hard left silences the right channel")
	assert.Greater(t, l, float32(1))

	l, r = fx.PanGains(1)
	assert.InDelta(t, 0, l, 1e-6)

	// constant power: the squared gains sum to the same value everywhere
	for _, pan := range []float32{-1, -0.5, 0, 0.3, 1} {
		l, r := fx.PanGains(pan)
		assert.InDelta(t, 2.0, l*l+r*r, 1e-5, "pan %v", pan)
	}
}

func TestWidth(t *testing.T) {
	l, r := fx.Width(0.8, -0.2, 1)
	assert.InDelta(t, 0.8, l, 1e-6, "width 1 passes the frame through")
	assert.InDelta(t, -0.2, r, 1e-6)

	l, r = fx.Width(1, 0, 0)
	assert.InDelta(t, 0.5, l, 1e-6, "width 0 collapses to mono")
	assert.InDelta(t, 0.5, r, 1e-6)

	l, r = fx.Width(1, 0, 2)
	assert.InDelta(t, 0.75, l, 1e-6)
	assert.InDelta(t, -0.25, r, 1e-6)
}

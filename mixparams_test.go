package chendai_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arjunparightsolutions/chendai"
)

func TestMixParametersClamp(t *testing.T) {
	p := chendai.MixParameters{
		Volume: 2, Pan: -5, Width: 3,
		EQLow: 40, EQMid: -40, EQHigh: 16,
		ReverbSend: 1.5, DelaySend: -1,
	}.Clamp()
	assert.Equal(t, float32(1), p.Volume)
	assert.Equal(t, float32(-1), p.Pan)
	assert.Equal(t, float32(2), p.Width)
	assert.Equal(t, float32(15), p.EQLow)
	assert.Equal(t, float32(-15), p.EQMid)
	assert.Equal(t, float32(15), p.EQHigh)
	assert.Equal(t, float32(1), p.ReverbSend)
	assert.Equal(t, float32(0), p.DelaySend)
}

func TestMixParametersIdentity(t *testing.T) {
	assert.True(t, chendai.DefaultMixParameters().IsIdentity())

	p := chendai.DefaultMixParameters()
	p.Pan = 0.1
	assert.False(t, p.IsIdentity())

	p = chendai.DefaultMixParameters()
	p.EQMid = 3
	assert.False(t, p.IsIdentity())

	// mute/solo select channels, they do not alter the signal path
	p = chendai.DefaultMixParameters()
	p.Mute = true
	assert.True(t, p.IsIdentity())
}

package chendai_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjunparightsolutions/chendai"
)

func TestOggOpusStream(t *testing.T) {
	data, err := chendai.OggOpus(rampBuffer(4410)) // 100 ms
	require.NoError(t, err)

	// first page carries the identification header
	assert.Equal(t, "OggS", string(data[0:4]))
	assert.Equal(t, byte(0x02), data[5], "first page must be marked beginning-of-stream")
	assert.Equal(t, "OpusHead", string(data[28:36]))

	assert.True(t, bytes.Contains(data, []byte("OpusTags")))

	// exactly one end-of-stream page
	count := 0
	for i := 0; i+6 <= len(data); i++ {
		if string(data[i:i+4]) == "OggS" && data[i+5]&0x04 != 0 {
			count++
		}
	}
	assert.Equal(t, 1, count)

	_, err = chendai.OggOpus(chendai.NewBuffer(0))
	require.Error(t, err)
}

package audiocodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func absF(s int16) float64 {
	if s < 0 {
		return float64(-s)
	}
	return float64(s)
}

func TestPCM16RoundTrip(t *testing.T) {
	c := New(TagPCM16)
	samples := []int16{0, 1, -1, 32767, -32768, 12345}
	payload, err := c.Encode(samples)
	require.NoError(t, err)
	decoded, err := c.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, samples, decoded)
}

func TestULawRoundTripIsApproximatelyLossless(t *testing.T) {
	c := New(TagG711U)
	samples := []int16{0, 100, -100, 8000, -8000, 30000, -30000}
	payload, err := c.Encode(samples)
	require.NoError(t, err)
	require.Len(t, payload, len(samples))
	decoded, err := c.Decode(payload)
	require.NoError(t, err)
	for i, s := range samples {
		assert.InDelta(t, s, decoded[i], absF(s)*0.05+32)
	}
}

func TestALawRoundTripIsApproximatelyLossless(t *testing.T) {
	c := New(TagG711A)
	samples := []int16{0, 100, -100, 8000, -8000, 30000, -30000}
	payload, err := c.Encode(samples)
	require.NoError(t, err)
	require.Len(t, payload, len(samples))
	decoded, err := c.Decode(payload)
	require.NoError(t, err)
	for i, s := range samples {
		assert.InDelta(t, s, decoded[i], absF(s)*0.05+32)
	}
}

func TestOpusIsUnsupported(t *testing.T) {
	c := New(TagOpus)
	_, err := c.Decode([]byte{1, 2, 3})
	assert.Error(t, err)
	_, err = c.Encode([]int16{1, 2, 3})
	assert.Error(t, err)
}

func TestCodecNames(t *testing.T) {
	assert.Equal(t, "PCM16", Name(TagPCM16))
	assert.NotEmpty(t, Name(TagG711U))
	assert.NotEmpty(t, Name(TagG711A))
}

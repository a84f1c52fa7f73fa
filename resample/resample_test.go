package resample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestIdentityPassThroughIsMemcpy(t *testing.T) {
	for _, rate := range []int{Rate8k, Rate16k, Rate48k} {
		r := New(rate, rate)
		in := make([]int16, r.InBlockSize())
		for i := range in {
			in[i] = int16(i*37 - 500)
		}
		out := make([]int16, r.OutBlockSize())
		r.Resample(in, out)
		assert.Equal(t, in, out)
	}
}

func TestUpsample8kTo48kProducesFullBlock(t *testing.T) {
	r := New(Rate8k, Rate48k)
	in := make([]int16, r.InBlockSize())
	for i := range in {
		in[i] = 1000
	}
	out := make([]int16, r.OutBlockSize())
	r.Resample(in, out)
	require.Len(t, out, blockSize48k)
	// A sustained DC input should converge to roughly the same DC level
	// once the filter's delay line fills.
	tail := out[len(out)-10:]
	for _, v := range tail {
		assert.InDelta(t, 1000, int(v), 80)
	}
}

func TestDownsample48kTo8kProducesFullBlock(t *testing.T) {
	r := New(Rate48k, Rate8k)
	in := make([]int16, r.InBlockSize())
	for i := range in {
		in[i] = -2000
	}
	out := make([]int16, r.OutBlockSize())
	r.Resample(in, out)
	require.Len(t, out, blockSize8k)
	tail := out[len(out)-5:]
	for _, v := range tail {
		assert.InDelta(t, -2000, int(v), 80)
	}
}

func TestUnsupportedPairPanics(t *testing.T) {
	assert.Panics(t, func() {
		New(11025, 44100)
	})
}

func TestPropertyIdentityResampleIsExactCopy(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rate := rapid.SampledFrom([]int{Rate8k, Rate16k, Rate48k}).Draw(t, "rate")
		r := New(rate, rate)
		in := make([]int16, r.InBlockSize())
		for i := range in {
			in[i] = int16(rapid.IntRange(-32768, 32767).Draw(t, "sample"))
		}
		out := make([]int16, r.OutBlockSize())
		r.Resample(in, out)
		for i := range in {
			if in[i] != out[i] {
				t.Fatalf("identity resample mutated sample %d: %d != %d", i, in[i], out[i])
			}
		}
	})
}

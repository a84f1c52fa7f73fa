package cobs

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := [][]byte{
		{1, 2, 3, 4, 5, 6, 7, 8},
		{0, 2, 3, 0xff, 5, 6, 7, 0},
		{0, 2, 3, 0xff, 5, 6, 7, 0xff},
		{1, 2, 3, 0xff, 5, 6, 7, 1},
		{0, 0, 0, 0, 0, 0, 0, 0},
	}
	for _, in := range cases {
		enc := Encode(in)
		for _, b := range enc {
			assert.NotZero(t, b)
		}
		dec, err := Decode(enc)
		require.NoError(t, err)
		assert.Equal(t, in, dec)
	}
}

func TestEncode320ConstantBytes(t *testing.T) {
	in := bytes.Repeat([]byte{0x18}, 320)
	enc := Encode(in)
	assert.Len(t, enc, 322)
	dec, err := Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, in, dec)
}

func TestEncode300IncrementingBytes(t *testing.T) {
	in := make([]byte, 300)
	for i := range in {
		in[i] = byte(i)
	}
	enc := Encode(in)
	dec, err := Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, in, dec)
}

func TestCOBSEdgeCase322AlternatingBytes(t *testing.T) {
	in := make([]byte, 322)
	for i := range in {
		if i%2 == 0 {
			in[i] = 0x18
		} else {
			in[i] = 0x00
		}
	}
	enc := Encode(in)
	assert.Len(t, enc, 323)

	// The full, correctly-lengthed stream round-trips.
	dst := make([]byte, len(in))
	n, err := DecodeInto(dst, enc)
	require.NoError(t, err)
	assert.Equal(t, len(in), n)
	assert.Equal(t, in, dst)

	// Dropping just the trailing terminator byte (322 of the 323 encoded
	// bytes) decodes one byte short of what the caller expects; DecodeInto
	// catches this via the destination length mismatch.
	truncated := enc[:len(enc)-1]
	_, err = DecodeInto(dst, truncated)
	assert.Error(t, err)

	short, err := Decode(truncated)
	require.NoError(t, err)
	assert.Len(t, short, len(in)-1)
}

func TestDecodeTruncatedErrors(t *testing.T) {
	enc := Encode([]byte{1, 2, 3, 4, 5})
	_, err := Decode(enc[:len(enc)-2])
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeEmptyInput(t *testing.T) {
	dec, err := Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, dec)
}

func TestPropertyRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := rapid.SliceOf(rapid.Byte()).Draw(t, "payload")
		enc := Encode(in)
		for _, b := range enc {
			if b == 0 {
				t.Fatalf("zero byte found in encoded body: %x", enc)
			}
		}
		dec, err := Decode(enc)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if !bytes.Equal(in, dec) {
			t.Fatalf("round trip mismatch: in=%x out=%x", in, dec)
		}
	})
}

func TestPropertyEncodeOfDecodeIsIdentity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := rapid.SliceOfN(rapid.Byte(), 1, 512).Draw(t, "payload")
		enc := Encode(in)
		dec, err := Decode(enc)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		reenc := Encode(dec)
		if !bytes.Equal(enc, reenc) {
			t.Fatalf("encode(decode(x)) != x")
		}
	})
}

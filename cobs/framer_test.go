package cobs

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeFrameLongClass(t *testing.T) {
	payload := bytes.Repeat([]byte{0x18}, 320)
	frame := EncodeFrame(payload)
	assert.Equal(t, byte(0x00), frame[0])
	assert.Equal(t, byte(0x01), frame[1])
	assert.Equal(t, ClassLong, frame[2])
	for _, b := range frame[1 : len(frame)-1] {
		assert.NotZero(t, b)
	}

	decoded, class, err := DecodeFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, ClassLong, class)
	assert.Equal(t, payload, decoded)
}

func TestEncodeFrameShortClass(t *testing.T) {
	payload := make([]byte, 320)
	for i := range payload {
		if i%2 == 0 {
			payload[i] = 0
		} else {
			payload[i] = 0x18
		}
	}
	frame := EncodeFrame(payload)
	assert.Equal(t, ClassShort, frame[2])

	decoded, class, err := DecodeFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, ClassShort, class)
	assert.Equal(t, payload, decoded)
}

func TestDecodeFrameRejectsBadHeader(t *testing.T) {
	_, _, err := DecodeFrame([]byte{0x01, 0x01, 0x01, 0xaa})
	assert.Error(t, err)
}

func TestDecodeFrameRejectsUnknownClassTag(t *testing.T) {
	_, _, err := DecodeFrame([]byte{0x00, 0x01, 0x09, 0xaa, 0x00})
	assert.Error(t, err)
}

func TestDecodeFrameWithoutTrailingDelimiter(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5}
	frame := EncodeFrame(payload)
	// Strip the trailing delimiter, as a caller feeding a byte stream split
	// on 0x00 would.
	trimmed := frame[:len(frame)-1]
	decoded, _, err := DecodeFrame(trimmed)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

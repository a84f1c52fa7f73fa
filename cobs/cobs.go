// Package cobs implements Consistent Overhead Byte Stuffing and the
// application-level serial message framer built on top of it.
package cobs

import (
	"errors"

	"ampnode/errs"
)

// ErrTruncated is returned by Decode when the encoded input ends in the
// middle of a length-prefixed run.
var ErrTruncated = errors.New("cobs: truncated input")

// ErrDestTooSmall is returned when the destination buffer passed to
// DecodeInto does not match the decoded output length exactly.
var ErrDestTooSmall = errors.New("cobs: destination buffer size does not match decoded length")

const maxBlock = 0xFE

// MaxEncodedLen returns the largest an encoding of an n-byte input can be.
func MaxEncodedLen(n int) int {
	// Every full 254-byte run closes a block and opens another, and the
	// final block always has its own code byte.
	return n + n/maxBlock + 1
}

// Encode returns the COBS encoding of src. The result never contains a 0x00
// byte; the caller (or the framer) is responsible for appending the 0x00
// delimiter that terminates a frame on the wire.
func Encode(src []byte) []byte {
	dst, _ := encode(src)
	return dst
}

// encode performs the COBS encoding and also reports whether any block hit
// the maximum 254-byte run without a zero byte, the distinction the serial
// framer uses to pick between its two class tags.
func encode(src []byte) (dst []byte, hadMaxBlock bool) {
	dst = make([]byte, 0, MaxEncodedLen(len(src)))
	// codeIdx is the position in dst reserved for the current block's
	// length/code byte; it is patched once the block's extent is known.
	codeIdx := 0
	dst = append(dst, 0) // placeholder
	code := byte(1)

	flush := func(forced bool) {
		dst[codeIdx] = code
		if forced {
			hadMaxBlock = true
		}
		codeIdx = len(dst)
		dst = append(dst, 0)
		code = 1
	}

	for _, b := range src {
		if b == 0 {
			flush(false)
			continue
		}
		dst = append(dst, b)
		code++
		if code == 0xFF {
			flush(true)
		}
	}
	dst[codeIdx] = code
	return dst, hadMaxBlock
}

// Decode reverses Encode. It returns ErrTruncated if the input ends in the
// middle of a declared block's data run.
//
// A stream truncated by exactly its final empty terminator block (the code=1
// placeholder Encode emits when the source ends in 0x00) cannot be told apart
// from a complete, valid encoding of a different, one-byte-shorter message:
// COBS carries no internal length field, so the two are byte-for-byte
// identical. Decode alone cannot catch that case. Callers that know the
// expected decoded length ahead of time, such as a fixed-size voice frame,
// should call DecodeInto with a precisely sized destination buffer instead,
// which checks the decoded length against the buffer and rejects a mismatch.
func Decode(src []byte) ([]byte, error) {
	dst := make([]byte, 0, len(src))
	i := 0
	for i < len(src) {
		code := src[i]
		if code == 0 {
			return nil, ErrTruncated
		}
		i++
		blockLen := int(code) - 1
		if i+blockLen > len(src) {
			return nil, ErrTruncated
		}
		dst = append(dst, src[i:i+blockLen]...)
		i += blockLen
		if code < 0xFF && i < len(src) {
			dst = append(dst, 0)
		}
	}
	return dst, nil
}

// DecodeInto decodes src into dst, returning the number of bytes written. dst
// must be sized to exactly the expected decoded length; DecodeInto rejects
// anything else rather than accepting a short or partial result. This is
// also what catches a source truncated by exactly its final terminator
// block, a case bare Decode cannot detect on its own (see Decode): if the
// caller knows the message should decode to len(dst) bytes and the truncated
// input instead decodes one byte short, the length mismatch surfaces as an
// error here.
func DecodeInto(dst, src []byte) (int, error) {
	decoded, err := Decode(src)
	if err != nil {
		return 0, err
	}
	if len(decoded) != len(dst) {
		return 0, errs.New(errs.DecodeFailure, ErrDestTooSmall)
	}
	n := copy(dst, decoded)
	return n, nil
}

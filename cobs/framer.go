package cobs

import "ampnode/errs"

// Class tags for the application serial framer header.
const (
	ClassShort byte = 1 // no block in the COBS body hit the max 254-byte run
	ClassLong  byte = 2 // at least one block hit the max run and needed chaining
)

const (
	headerSync byte = 0x00
	headerType byte = 0x01
)

// EncodeFrame builds the full wire frame for payload:
// [0x00][0x01][classTag][COBS(payload)], terminated by a trailing 0x00
// delimiter. payload must be non-empty.
func EncodeFrame(payload []byte) []byte {
	body, hadMaxBlock := encode(payload)
	class := ClassShort
	if hadMaxBlock {
		class = ClassLong
	}
	out := make([]byte, 0, 4+len(body))
	out = append(out, headerSync, headerType, class)
	out = append(out, body...)
	out = append(out, 0x00)
	return out
}

// DecodeFrame parses a frame previously built by EncodeFrame, including its
// trailing 0x00 delimiter (frame may or may not include it; both are
// accepted). It reports errs.ProtocolError for a malformed header and
// errs.DecodeFailure for a COBS body that fails to decode.
func DecodeFrame(frame []byte) (payload []byte, class byte, err error) {
	if len(frame) < 3 || frame[0] != headerSync || frame[1] != headerType {
		return nil, 0, errs.New(errs.ProtocolError, errTooShortOrBadHeader)
	}
	class = frame[2]
	if class != ClassShort && class != ClassLong {
		return nil, 0, errs.New(errs.ProtocolError, errUnknownClassTag)
	}
	body := frame[3:]
	// Trim a single trailing delimiter if present.
	if n := len(body); n > 0 && body[n-1] == 0x00 {
		body = body[:n-1]
	}
	payload, derr := Decode(body)
	if derr != nil {
		return nil, 0, errs.New(errs.DecodeFailure, derr)
	}
	return payload, class, nil
}

var (
	errTooShortOrBadHeader = frameErr("cobs: frame too short or bad header")
	errUnknownClassTag     = frameErr("cobs: unknown class tag")
)

type frameErr string

func (e frameErr) Error() string { return string(e) }

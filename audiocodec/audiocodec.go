// Package audiocodec adapts the wire codecs bridge.Codec needs onto
// msdk.PCM16Sample, the PCM16 buffer type the rest of the livekit
// media-sdk-typed pipeline in this corpus uses. G.711 mu-law/A-law are
// implemented directly against the ITU-T reference algorithm, the same
// precedent package resample sets for small, algorithmically specific DSP:
// media-sdk's g711/g722 packages expose SDP registry metadata (codec name,
// RTP payload type) rather than a documented standalone encode/decode
// function signature, so those packages are used for naming only.
package audiocodec

import (
	msdk "github.com/livekit/media-sdk"
	lkg711 "github.com/livekit/media-sdk/g711"

	"ampnode/errs"
)

// Name returns the canonical SDP codec name media-sdk's registry assigns a
// codec tag, used for logging and the /status surface.
func Name(tag CodecTag) string {
	switch tag {
	case TagG711U:
		return lkg711.ULawSDPName
	case TagG711A:
		return lkg711.ALawSDPName
	case TagG722:
		return "G722"
	case TagOpus:
		return "opus"
	default:
		return "PCM16"
	}
}

// CodecTag mirrors message.CodecTag without importing package message, so
// audiocodec stays usable from anything that only knows the wire codec.
type CodecTag uint8

const (
	TagPCM16 CodecTag = iota
	TagG711U
	TagG711A
	TagG722
	TagOpus
)

// Codec implements bridge.Codec for a fixed wire codec.
type Codec struct {
	tag CodecTag
}

// New constructs a Codec for tag without validating it. PCM16 and the two
// G.711 variants are implemented; G722 and Opus are accepted as tags for
// routing/logging but return errs.Unsupported from Decode/Encode, as does
// any other tag.
func New(tag CodecTag) *Codec {
	return &Codec{tag: tag}
}

// Decode converts a wire payload in this Codec's tag to PCM16 samples.
func (c *Codec) Decode(payload []byte) ([]int16, error) {
	switch c.tag {
	case TagPCM16:
		return pcm16BytesToSamples(payload), nil
	case TagG711U:
		return decodeULaw(payload), nil
	case TagG711A:
		return decodeALaw(payload), nil
	default:
		return nil, errs.Newf(errs.Unsupported, "codec %s decode not implemented", Name(c.tag))
	}
}

// Encode converts PCM16 samples to this Codec's wire payload.
func (c *Codec) Encode(pcm []int16) ([]byte, error) {
	switch c.tag {
	case TagPCM16:
		return pcm16SamplesToBytes(pcm), nil
	case TagG711U:
		return encodeULaw(pcm), nil
	case TagG711A:
		return encodeALaw(pcm), nil
	default:
		return nil, errs.Newf(errs.Unsupported, "codec %s encode not implemented", Name(c.tag))
	}
}

func pcm16BytesToSamples(b []byte) msdk.PCM16Sample {
	out := make(msdk.PCM16Sample, len(b)/2)
	for i := range out {
		out[i] = int16(uint16(b[2*i]) | uint16(b[2*i+1])<<8)
	}
	return out
}

func pcm16SamplesToBytes(s msdk.PCM16Sample) []byte {
	out := make([]byte, len(s)*2)
	for i, v := range s {
		out[2*i] = byte(v)
		out[2*i+1] = byte(v >> 8)
	}
	return out
}

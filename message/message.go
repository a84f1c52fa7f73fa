// Package message defines the tagged-union Message and the audio/signal
// payloads it carries.
package message

import "ampnode/errs"

// CodecTag identifies the wire codec a Message's payload is encoded with.
type CodecTag uint8

const (
	CodecPCM16 CodecTag = iota
	CodecG711U
	CodecG711A
	CodecG722
	CodecOpus
)

// Type distinguishes the three kinds of Message.
type Type uint8

const (
	TypeAudio Type = iota
	TypeSignal
	TypeControl
)

// BroadcastAddress is the reserved destAddress sentinel that fans a Message
// out to every broadcast subscriber instead of a single route.
const BroadcastAddress uint32 = 0xFFFFFFFF

// SignalKind enumerates the in-band control events a Line can carry.
type SignalKind uint8

const (
	SignalCallStart SignalKind = iota
	SignalCallEnd
	SignalCOSOn
	SignalCOSOff
	SignalPTTOn
	SignalPTTOff
	SignalKey
	SignalUnkey
	SignalDTMF
)

// Signal is an in-band control event. Digit is only meaningful when Kind is
// SignalDTMF.
type Signal struct {
	Kind  SignalKind
	Digit byte
}

// AudioFormat describes a fixed 20ms PCM16 block at one of the three
// supported sample rates.
type AudioFormat struct {
	SampleRateHz int
}

// FrameSamples returns the sample count of a 20ms block at this format's
// rate: 160 @ 8kHz, 320 @ 16kHz, 960 @ 48kHz.
func (f AudioFormat) FrameSamples() int {
	return f.SampleRateHz / 50
}

// FrameBytes returns the PCM16 byte size of a 20ms block at this format's
// rate.
func (f AudioFormat) FrameBytes() int {
	return f.FrameSamples() * 2
}

// Message is the tagged-union value carried by the Router and Bridge.
// Messages are value-typed and freely copied.
type Message struct {
	Type         Type
	SourceCallID uint32
	DestAddress  uint32
	Sequence     uint32
	RemoteTimeMs uint32
	Codec        CodecTag
	Payload      []byte
	Signal       Signal
}

// NewAudioMessage builds a TypeAudio Message carrying a raw codec payload.
func NewAudioMessage(sourceCallID, destAddress, sequence, remoteTimeMs uint32, codec CodecTag, payload []byte) Message {
	return Message{
		Type:         TypeAudio,
		SourceCallID: sourceCallID,
		DestAddress:  destAddress,
		Sequence:     sequence,
		RemoteTimeMs: remoteTimeMs,
		Codec:        codec,
		Payload:      payload,
	}
}

// NewSignalMessage builds a TypeSignal Message.
func NewSignalMessage(sourceCallID, destAddress, remoteTimeMs uint32, sig Signal) Message {
	return Message{
		Type:         TypeSignal,
		SourceCallID: sourceCallID,
		DestAddress:  destAddress,
		RemoteTimeMs: remoteTimeMs,
		Signal:       sig,
	}
}

// IsBroadcast reports whether this Message targets every broadcast
// subscriber rather than a single route.
func (m Message) IsBroadcast() bool { return m.DestAddress == BroadcastAddress }

// frameSamplesForRate returns the 20ms sample count for a supported rate, or
// an error for anything else. Used at the boundary where an AudioFrame is
// first constructed from a codec's decoded rate.
func frameSamplesForRate(rateHz int) (int, error) {
	switch rateHz {
	case 8000, 16000, 48000:
		return rateHz / 50, nil
	default:
		return 0, errs.Newf(errs.Unsupported, "unsupported PCM16 rate %dHz", rateHz)
	}
}

// AudioFrame is a single 20ms PCM16 block at one of the three supported
// rates, sized 160/320/960 samples at 8k/16k/48k respectively.
type AudioFrame struct {
	SampleRateHz int
	Samples      []int16
}

// NewAudioFrame validates rateHz and samples' length against the fixed
// 20ms framing before constructing the frame.
func NewAudioFrame(rateHz int, samples []int16) (AudioFrame, error) {
	want, err := frameSamplesForRate(rateHz)
	if err != nil {
		return AudioFrame{}, err
	}
	if len(samples) != want {
		return AudioFrame{}, errs.Newf(errs.ProtocolError, "audio frame at %dHz must carry %d samples, got %d", rateHz, want, len(samples))
	}
	return AudioFrame{SampleRateHz: rateHz, Samples: samples}, nil
}

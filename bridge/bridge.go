// Package bridge implements the N-way conference bridge: per-call
// SequencingBuffers feeding a selective-mix conference, driven once per
// 20ms tick from the EventLoop.
package bridge

import (
	"ampnode/logx"
	"ampnode/message"
	"ampnode/resample"
	"ampnode/router"
	"ampnode/seqbuf"
)

// Mode selects the Bridge's mixing policy.
type Mode int

const (
	// ModeNormal mixes every other active talker for each peer
	// (classic selective-mix conference).
	ModeNormal Mode = iota
	// ModeRepeater forwards the single active talker to every other
	// peer without mixing, the behavior of a simplex repeater.
	ModeRepeater
)

// Codec decodes/encodes a call's wire payload to/from internal PCM16. The
// audiocodec package supplies concrete implementations over
// livekit/media-sdk; Bridge depends only on this interface.
type Codec interface {
	Decode(payload []byte) ([]int16, error)
	Encode(pcm []int16) ([]byte, error)
}

// callState is the per-call state a call occupies while active:
// {SequencingBuffer, Resampler(rx), Resampler(tx), codec}.
type callState struct {
	callID      uint32
	peerLineID  uint32
	buf         *seqbuf.SequencingBuffer
	rx          *resample.Resampler // wire rate -> internal rate
	tx          *resample.Resampler // internal rate -> wire rate
	codec       Codec
	internalHz  int

	lastFrame   []int16 // most recent decoded PCM16 this tick, nil if none played
	active      bool    // true once CALL_START observed, false after CALL_END
}

// mixSink adapts a SequencingBuffer's PlayOut callbacks into the per-tick
// lastFrame slot a callState exposes to the mixer.
type mixSink struct {
	call       *callState
	internalHz int
	log        *logx.Log
}

func (s *mixSink) PlayVoice(payload []byte, localTimeMs uint32) {
	pcm, err := s.call.codec.Decode(payload)
	if err != nil {
		s.log.Debug("bridge decode failed", "call", s.call.callID, "err", err)
		return
	}
	internal := make([]int16, s.call.rx.OutBlockSize())
	s.call.rx.Resample(pcm, internal)
	s.call.lastFrame = internal
}

func (s *mixSink) PlaySignal(payload any, localTimeMs uint32) {}

func (s *mixSink) InterpolateVoice(localTimeMs uint32, durationMs uint32) {
	// Comfort-noise / silence substitution: emit a zeroed frame so the mix
	// doesn't glitch on a lost packet.
	s.call.lastFrame = make([]int16, s.internalHz/50)
}

// Bridge composes Lines into a conference, keyed by call ID.
type Bridge struct {
	mode       Mode
	router     *router.Router
	internalHz int
	log        *logx.Log
	calls      map[uint32]*callState
}

// New constructs a Bridge that mixes at internalHz (the core's working PCM16
// rate) and emits outbound Messages via r.
func New(mode Mode, r *router.Router, internalHz int, log *logx.Log) *Bridge {
	return &Bridge{mode: mode, router: r, internalHz: internalHz, log: log, calls: make(map[uint32]*callState)}
}

// AddCall registers a new per-call state. wireRateHz is the call's
// negotiated codec sample rate; peerLineID is the Line that should receive
// this call's conferenced audio.
func (b *Bridge) AddCall(callID, peerLineID uint32, wireRateHz int, codec Codec) {
	cs := &callState{
		callID:     callID,
		peerLineID: peerLineID,
		buf:        seqbuf.New(),
		rx:         resample.New(wireRateHz, b.internalHz),
		tx:         resample.New(b.internalHz, wireRateHz),
		codec:      codec,
		internalHz: b.internalHz,
		active:     true,
	}
	cs.buf.SetInitialMargin(60)
	b.calls[callID] = cs
}

// RemoveCall marks a call as ended. Call teardown is a Signal; the call's
// per-call state is released at the start of the next Tick rather than
// synchronously inside message handling.
func (b *Bridge) RemoveCall(callID uint32) {
	if cs, ok := b.calls[callID]; ok {
		cs.active = false
	}
}

// ConsumeVoice feeds an inbound Message's audio payload into its call's
// SequencingBuffer.
func (b *Bridge) ConsumeVoice(callID uint32, payload []byte, remoteTimeMs, localTimeMs uint32) bool {
	cs, ok := b.calls[callID]
	if !ok {
		return false
	}
	return cs.buf.ConsumeVoice(payload, remoteTimeMs, localTimeMs)
}

// ConsumeSignal feeds an inbound Signal into its call's SequencingBuffer.
func (b *Bridge) ConsumeSignal(callID uint32, sig message.Signal, remoteTimeMs, localTimeMs uint32) bool {
	cs, ok := b.calls[callID]
	if !ok {
		return false
	}
	return cs.buf.ConsumeSignal(sig, remoteTimeMs, localTimeMs)
}

// Tick drives every active call's SequencingBuffer.playOut exactly once,
// then mixes and emits outbound audio to each peer Line via the Router.
func (b *Bridge) Tick(nowMs uint32) {
	for id, cs := range b.calls {
		if !cs.active {
			delete(b.calls, id)
		}
	}
	for _, cs := range b.calls {
		if !cs.active {
			continue
		}
		cs.lastFrame = nil
		sink := &mixSink{call: cs, internalHz: b.internalHz, log: b.log}
		cs.buf.PlayOut(nowMs, sink)
	}

	switch b.mode {
	case ModeRepeater:
		b.tickRepeater(nowMs)
	default:
		b.tickSelectiveMix(nowMs)
	}
}

// tickSelectiveMix mixes every active talker's lastFrame except the
// receiving peer's own contribution.
func (b *Bridge) tickSelectiveMix(nowMs uint32) {
	for _, recv := range b.calls {
		if !recv.active {
			continue
		}
		mixLen := b.internalHz / 50
		acc := make([]int32, mixLen)
		contributors := 0
		for _, talker := range b.calls {
			if talker.callID == recv.callID || talker.lastFrame == nil {
				continue
			}
			contributors++
			for i, s := range talker.lastFrame {
				if i >= mixLen {
					break
				}
				acc[i] += int32(s)
			}
		}
		if contributors == 0 {
			continue
		}
		mixed := saturateMix(acc)
		b.emit(recv, mixed, nowMs)
	}
}

// tickRepeater forwards the single active talker's frame to every other
// peer without mixing.
func (b *Bridge) tickRepeater(nowMs uint32) {
	var talker *callState
	for _, cs := range b.calls {
		if cs.active && cs.lastFrame != nil {
			talker = cs
			break
		}
	}
	if talker == nil {
		return
	}
	for _, recv := range b.calls {
		if !recv.active || recv.callID == talker.callID {
			continue
		}
		b.emit(recv, talker.lastFrame, nowMs)
	}
}

func (b *Bridge) emit(recv *callState, internalPCM []int16, nowMs uint32) {
	native := make([]int16, recv.tx.OutBlockSize())
	recv.tx.Resample(internalPCM, native)
	payload, err := recv.codec.Encode(native)
	if err != nil {
		b.log.Debug("bridge encode failed", "call", recv.callID, "err", err)
		return
	}
	msg := message.NewAudioMessage(recv.callID, recv.peerLineID, 0, nowMs, message.CodecPCM16, payload)
	b.router.Send(msg)
}

func saturateMix(acc []int32) []int16 {
	out := make([]int16, len(acc))
	for i, v := range acc {
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		out[i] = int16(v)
	}
	return out
}

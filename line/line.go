// Package line implements the Line abstraction: a bidirectional audio
// endpoint with an integer identity, polymorphic over the capability set
// {open, close, send, poll, tick}. Three concrete variants are provided:
// LineIAX2 (network), LineUsb (ALSA + HID COS), and LineSDRC (serial COBS).
package line

import (
	"ampnode/message"
	"ampnode/resample"
)

// Line is the capability set every endpoint variant re-expresses rather
// than inherits.
type Line interface {
	ID() uint32
	Open() error
	Close() error
	Send(msg message.Message)
	Poll(nowMs uint32)
	Tick(nowMs uint32)
}

// Adaptor performs direction-specific payload conditioning (codec framing,
// resampling) between a Line's native rate/codec and the core's internal
// PCM16 representation.
type Adaptor struct {
	nativeRateHz   int
	internalRateHz int
	rx             *resample.Resampler // native -> internal
	tx             *resample.Resampler // internal -> native
}

// NewAdaptor builds an Adaptor converting between a Line's native sample
// rate and the core's internal PCM16 rate. If the rates match, the
// Resamplers are identity pass-throughs.
func NewAdaptor(nativeRateHz, internalRateHz int) *Adaptor {
	return &Adaptor{
		nativeRateHz:   nativeRateHz,
		internalRateHz: internalRateHz,
		rx:             resample.New(nativeRateHz, internalRateHz),
		tx:             resample.New(internalRateHz, nativeRateHz),
	}
}

// ToInternal converts a native-rate PCM16 block to the internal rate.
func (a *Adaptor) ToInternal(native []int16) []int16 {
	out := make([]int16, a.rx.OutBlockSize())
	a.rx.Resample(native, out)
	return out
}

// ToNative converts an internal-rate PCM16 block back to the Line's native
// rate.
func (a *Adaptor) ToNative(internal []int16) []int16 {
	out := make([]int16, a.tx.OutBlockSize())
	a.tx.Resample(internal, out)
	return out
}

// Reset clears both directions' filter state, e.g. on stream reattachment.
func (a *Adaptor) Reset() {
	a.rx.Reset()
	a.tx.Reset()
}

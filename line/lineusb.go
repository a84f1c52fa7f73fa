package line

import (
	"encoding/binary"
	"sync"

	"ampnode/errs"
	"ampnode/logx"
	"ampnode/message"
)

// AudioDevice is the ALSA capture/playback boundary LineUsb depends on.
// Concrete device enumeration and I/O live in package devscan; LineUsb only
// ever sees this interface, so ALSA churn never reaches the core.
type AudioDevice interface {
	Open() error
	Close() error
	// ReadCapture returns whatever interleaved PCM16LE bytes are available
	// since the last call; it must not block.
	ReadCapture() []byte
	// WritePlayback enqueues PCM16LE bytes for playback; it must not block.
	WritePlayback(pcm []byte)
	Stereo() bool
}

// ChannelOpenSquelchSource reports the HID/GPIO-derived channel-open-squelch
// (COS) line state. devscan implements this over go-gpiocdev; LineUsb
// depends only on the interface. NewChannelOpenSquelchSource applies the
// aslCosInvert config XOR to the raw reading.
type ChannelOpenSquelchSource interface {
	COSActive() bool
}

type invertingCOS struct {
	inner  ChannelOpenSquelchSource
	invert bool
}

func (c invertingCOS) COSActive() bool {
	return c.inner.COSActive() != c.invert
}

// NewChannelOpenSquelchSource wraps src, applying the aslCosInvert XOR.
func NewChannelOpenSquelchSource(src ChannelOpenSquelchSource, invert bool) ChannelOpenSquelchSource {
	return invertingCOS{inner: src, invert: invert}
}

// pcmFIFO is a small byte FIFO of fixed-size PCM16LE frames. writeFrame
// ignores any write that is not exactly one frame long; on underflow
// readFrame reports false rather than blocking.
type pcmFIFO struct {
	frameSize int
	mu        sync.Mutex
	buf       []byte
}

func newPCMFIFO(frameSize int) *pcmFIFO {
	if frameSize < 1 {
		frameSize = 1
	}
	return &pcmFIFO{frameSize: frameSize, buf: make([]byte, 0, frameSize*50)}
}

func (f *pcmFIFO) writeFrame(frame []byte) {
	if len(frame) != f.frameSize {
		return
	}
	f.mu.Lock()
	f.buf = append(f.buf, frame...)
	f.mu.Unlock()
}

func (f *pcmFIFO) readFrame() ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.buf) < f.frameSize {
		return nil, false
	}
	frame := append([]byte(nil), f.buf[:f.frameSize]...)
	f.buf = f.buf[f.frameSize:]
	return frame, true
}

// LineUsb is the locally-attached radio Line: an ALSA sound card plus a
// HID-based channel-open-squelch input.
type LineUsb struct {
	id      uint32
	dev     AudioDevice
	cos     ChannelOpenSquelchSource
	adaptor *Adaptor
	log     *logx.Log

	destAddress uint32
	onMessage   func(message.Message)

	rxFIFO *pcmFIFO // device -> network, mono PCM16LE frames at native rate
	txFIFO *pcmFIFO // network -> device, mono or stereo PCM16LE frames

	wasCOSActive bool
	opened       bool
	sourceCallID uint32
}

// NewLineUsb constructs a LineUsb. nativeRateHz is the ALSA device's sample
// rate; internalRateHz is the core's PCM16 working rate (typically 8000 to
// match narrowband radio audio).
func NewLineUsb(id uint32, dev AudioDevice, cos ChannelOpenSquelchSource, nativeRateHz, internalRateHz int, log *logx.Log, onMessage func(message.Message)) *LineUsb {
	frameSamples := nativeRateHz / 50
	return &LineUsb{
		id:        id,
		dev:       dev,
		cos:       cos,
		adaptor:   NewAdaptor(nativeRateHz, internalRateHz),
		log:       log,
		onMessage: onMessage,
		rxFIFO:    newPCMFIFO(frameSamples * 2),
		txFIFO:    newPCMFIFO((nativeRateHz / 50) * 2),
	}
}

func (l *LineUsb) ID() uint32 { return l.id }

func (l *LineUsb) Open() error {
	if err := l.dev.Open(); err != nil {
		return errs.New(errs.DeviceBusy, err)
	}
	l.opened = true
	return nil
}

func (l *LineUsb) Close() error {
	l.opened = false
	return l.dev.Close()
}

// Send accepts an inbound network Message and queues its PCM for playback
// on the ALSA device, resampled to native rate and upmixed to stereo if the
// device requires it.
func (l *LineUsb) Send(msg message.Message) {
	if !l.opened || msg.Type != message.TypeAudio {
		return
	}
	internal := bytesToInt16LE(msg.Payload)
	native := l.adaptor.ToNative(internal)
	nativeBytes := int16LEToBytes(native)
	if l.dev.Stereo() {
		nativeBytes = upmixMonoToStereo(nativeBytes)
	}
	l.dev.WritePlayback(nativeBytes)
}

// Poll drains captured audio from the ALSA device and the COS line state,
// resamples captured audio to the internal rate, and reports both as
// Messages.
func (l *LineUsb) Poll(nowMs uint32) {
	if !l.opened {
		return
	}

	active := l.cos.COSActive()
	if active != l.wasCOSActive {
		sig := message.Signal{Kind: message.SignalCOSOff}
		if active {
			sig = message.Signal{Kind: message.SignalCOSOn}
		}
		l.onMessage(message.NewSignalMessage(l.sourceCallID, l.destAddress, nowMs, sig))
		l.wasCOSActive = active
	}

	captured := l.dev.ReadCapture()
	if len(captured) == 0 {
		return
	}
	if l.dev.Stereo() {
		captured = downmixStereoToMono(captured)
	}
	l.rxFIFO.writeFrame(captured)
	for {
		frame, ok := l.rxFIFO.readFrame()
		if !ok {
			break
		}
		internal := l.adaptor.ToInternal(bytesToInt16LE(frame))
		l.onMessage(message.NewAudioMessage(l.sourceCallID, l.destAddress, 0, nowMs, message.CodecPCM16, int16LEToBytes(internal)))
	}
}

func (l *LineUsb) Tick(nowMs uint32) {}

func bytesToInt16LE(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[i*2 : i*2+2]))
	}
	return out
}

func int16LEToBytes(s []int16) []byte {
	out := make([]byte, len(s)*2)
	for i, v := range s {
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], uint16(v))
	}
	return out
}

func downmixStereoToMono(src []byte) []byte {
	nPairs := len(src) / 4
	dst := make([]byte, nPairs*2)
	for i := 0; i < nPairs; i++ {
		off := i * 4
		lSample := int16(binary.LittleEndian.Uint16(src[off : off+2]))
		rSample := int16(binary.LittleEndian.Uint16(src[off+2 : off+4]))
		m := int16((int32(lSample) + int32(rSample)) / 2)
		binary.LittleEndian.PutUint16(dst[i*2:i*2+2], uint16(m))
	}
	return dst
}

func upmixMonoToStereo(src []byte) []byte {
	n := len(src) / 2
	dst := make([]byte, n*4)
	for i := 0; i < n; i++ {
		s := binary.LittleEndian.Uint16(src[i*2 : i*2+2])
		off := i * 4
		binary.LittleEndian.PutUint16(dst[off:off+2], s)
		binary.LittleEndian.PutUint16(dst[off+2:off+4], s)
	}
	return dst
}

package line

import (
	"ampnode/cobs"
	"ampnode/errs"
	"ampnode/logx"
	"ampnode/message"
)

// SerialPort is the byte-stream transport LineSDRC frames over: a raw
// io.Writer-shaped sink plus a non-blocking poll-for-bytes source.
type SerialPort interface {
	Open() error
	Close() error
	Write(p []byte) (int, error)
	// ReadAvailable returns whatever bytes have arrived since the last
	// call; it must not block.
	ReadAvailable() []byte
}

// delimiterAssembler accumulates raw serial bytes and yields complete
// frames, split on the 0x00 delimiter since COBS frames vary in size. A
// frame's header sync byte is itself a 0x00 and is consumed by the split,
// so each non-empty segment found between delimiters gets that leading 0x00
// restored before being handed to the caller. Empty segments (one frame's
// terminator followed directly by the next frame's sync byte) are skipped.
type delimiterAssembler struct {
	buffer []byte
}

func (a *delimiterAssembler) push(data []byte) [][]byte {
	if len(data) == 0 {
		return nil
	}
	a.buffer = append(a.buffer, data...)
	var frames [][]byte
	for {
		idx := indexByte(a.buffer, 0x00)
		if idx < 0 {
			break
		}
		if idx > 0 {
			frame := make([]byte, 0, idx+1)
			frame = append(frame, 0x00)
			frame = append(frame, a.buffer[:idx]...)
			frames = append(frames, frame)
		}
		a.buffer = a.buffer[idx+1:]
	}
	return frames
}

func indexByte(b []byte, target byte) int {
	for i, v := range b {
		if v == target {
			return i
		}
	}
	return -1
}

// LineSDRC is the serial COBS-framed Line variant carrying audio over a
// custom digital radio port.
type LineSDRC struct {
	id   uint32
	port SerialPort
	log  *logx.Log

	destAddress  uint32
	sourceCallID uint32
	onMessage    func(message.Message)

	assembler delimiterAssembler
	opened    bool
}

// NewLineSDRC constructs a LineSDRC over the given serial transport.
func NewLineSDRC(id uint32, port SerialPort, log *logx.Log, onMessage func(message.Message)) *LineSDRC {
	return &LineSDRC{id: id, port: port, log: log, onMessage: onMessage}
}

func (l *LineSDRC) ID() uint32 { return l.id }

func (l *LineSDRC) Open() error {
	if err := l.port.Open(); err != nil {
		return errs.New(errs.DeviceBusy, err)
	}
	l.opened = true
	return nil
}

func (l *LineSDRC) Close() error {
	l.opened = false
	return l.port.Close()
}

// Send COBS-frames msg's payload and writes it to the serial port.
func (l *LineSDRC) Send(msg message.Message) {
	if !l.opened || msg.Type != message.TypeAudio || len(msg.Payload) == 0 {
		return
	}
	frame := cobs.EncodeFrame(msg.Payload)
	if _, err := l.port.Write(frame); err != nil {
		l.log.Warn("sdrc write failed", "line", l.id, "err", err)
	}
}

// Poll drains raw serial bytes, reassembles 0x00-delimited frames, and
// decodes each into an audio Message. A frame that fails to decode is
// dropped and reported as errs.DecodeFailure.
func (l *LineSDRC) Poll(nowMs uint32) {
	if !l.opened {
		return
	}
	raw := l.port.ReadAvailable()
	if len(raw) == 0 {
		return
	}
	for _, frame := range l.assembler.push(raw) {
		payload, _, err := cobs.DecodeFrame(frame)
		if err != nil {
			l.log.Debug("sdrc frame decode failed", "line", l.id, "err", err)
			continue
		}
		l.onMessage(message.NewAudioMessage(l.sourceCallID, l.destAddress, 0, nowMs, message.CodecPCM16, payload))
	}
}

func (l *LineSDRC) Tick(nowMs uint32) {}

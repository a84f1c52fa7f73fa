package line

import (
	"ampnode/errs"
	"ampnode/logx"
	"ampnode/message"
)

// IAX2Frame is the (payload, remoteTimeMs, codec) tuple the IAX2 wire
// protocol produces; it is treated entirely as an external collaborator.
// Signal, when non-nil, carries an opaque call-setup/teardown signal instead.
type IAX2Frame struct {
	Payload      []byte
	RemoteTimeMs uint32
	Codec        message.CodecTag
	Signal       *message.Signal
	SourceCallID uint32
}

// IAX2Transport is the out-of-core boundary: the IAX2 wire protocol itself,
// treated as a frame source/sink. LineIAX2 depends only on this interface,
// never on a concrete IAX2 stack.
type IAX2Transport interface {
	Open() error
	Close() error
	// RecvFrames drains any frames the transport has buffered since the
	// last call; it MUST return promptly (no blocking I/O), per the
	// EventLoop's poll contract.
	RecvFrames() []IAX2Frame
	SendAudio(destCallID uint32, codec message.CodecTag, payload []byte, sequence uint32) error
	SendSignal(destCallID uint32, sig message.Signal) error
}

// LineIAX2 is the network-facing Line variant: a thin adapter from an
// IAX2Transport onto the Line capability set, reporting inbound frames as
// Messages and forwarding outbound Messages to the transport.
type LineIAX2 struct {
	id        uint32
	transport IAX2Transport
	log       *logx.Log

	routeAddr uint32 // destAddress used for inbound Messages this Line originates
	onMessage func(message.Message)

	opened bool
}

// NewLineIAX2 constructs a LineIAX2 with the given route identity. onMessage
// is called for every Message the transport yields during Poll; it is
// typically the enclosing Bridge/Router's ingest function.
func NewLineIAX2(id uint32, transport IAX2Transport, log *logx.Log, onMessage func(message.Message)) *LineIAX2 {
	return &LineIAX2{id: id, transport: transport, log: log, onMessage: onMessage}
}

func (l *LineIAX2) ID() uint32 { return l.id }

func (l *LineIAX2) Open() error {
	if err := l.transport.Open(); err != nil {
		return errs.New(errs.NetworkUnavailable, err)
	}
	l.opened = true
	return nil
}

func (l *LineIAX2) Close() error {
	l.opened = false
	return l.transport.Close()
}

// Send forwards an outbound Message to the IAX2 transport.
func (l *LineIAX2) Send(msg message.Message) {
	if !l.opened {
		return
	}
	var err error
	switch msg.Type {
	case message.TypeAudio:
		err = l.transport.SendAudio(msg.DestAddress, msg.Codec, msg.Payload, msg.Sequence)
	case message.TypeSignal:
		err = l.transport.SendSignal(msg.DestAddress, msg.Signal)
	}
	if err != nil {
		l.log.Warn("iax2 send failed", "line", l.id, "err", err)
	}
}

// Poll drains the transport's inbound frame queue and reports each as a
// Message via onMessage. It must return promptly.
func (l *LineIAX2) Poll(nowMs uint32) {
	if !l.opened {
		return
	}
	for _, f := range l.transport.RecvFrames() {
		if f.Signal != nil {
			l.onMessage(message.NewSignalMessage(f.SourceCallID, l.routeAddr, f.RemoteTimeMs, *f.Signal))
			continue
		}
		l.onMessage(message.NewAudioMessage(f.SourceCallID, l.routeAddr, 0, f.RemoteTimeMs, f.Codec, f.Payload))
	}
}

// Tick is a no-op for LineIAX2: all of its time-sensitive work (jitter
// buffering) lives in the Bridge's per-call SequencingBuffer, not the Line.
func (l *LineIAX2) Tick(nowMs uint32) {}

package line

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ampnode/logx"
	"ampnode/message"
)

func TestAdaptorIdentityRoundTrip(t *testing.T) {
	a := NewAdaptor(8000, 8000)
	in := make([]int16, 160)
	for i := range in {
		in[i] = int16(i - 80)
	}
	internal := a.ToInternal(in)
	assert.Equal(t, in, internal)
	native := a.ToNative(internal)
	assert.Equal(t, in, native)
}

type fakeCOS struct{ active bool }

func (f fakeCOS) COSActive() bool { return f.active }

func TestChannelOpenSquelchSourceInvert(t *testing.T) {
	src := fakeCOS{active: true}
	normal := NewChannelOpenSquelchSource(src, false)
	inverted := NewChannelOpenSquelchSource(src, true)
	assert.True(t, normal.COSActive())
	assert.False(t, inverted.COSActive())
}

type fakeSerialPort struct {
	written [][]byte
	toRead  [][]byte
	opened  bool
}

func (p *fakeSerialPort) Open() error  { p.opened = true; return nil }
func (p *fakeSerialPort) Close() error { p.opened = false; return nil }
func (p *fakeSerialPort) Write(b []byte) (int, error) {
	cp := append([]byte(nil), b...)
	p.written = append(p.written, cp)
	return len(b), nil
}
func (p *fakeSerialPort) ReadAvailable() []byte {
	if len(p.toRead) == 0 {
		return nil
	}
	next := p.toRead[0]
	p.toRead = p.toRead[1:]
	return next
}

func TestLineSDRCSendThenPollRoundTrip(t *testing.T) {
	port := &fakeSerialPort{}
	var received []message.Message
	l := NewLineSDRC(7, port, logx.New(nil, nil), func(m message.Message) {
		received = append(received, m)
	})
	require.NoError(t, l.Open())

	payload := []byte{1, 2, 3, 4, 5, 0, 7, 8}
	l.Send(message.NewAudioMessage(0, 7, 0, 0, message.CodecPCM16, payload))
	require.Len(t, port.written, 1)

	// Feed the written frame straight back in as if it arrived on the wire.
	port.toRead = append(port.toRead, port.written[0])
	l.Poll(1000)

	require.Len(t, received, 1)
	assert.Equal(t, payload, received[0].Payload)
}

package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ampnode/message"
)

type fakeLine struct {
	id       uint32
	received []message.Message
	onSend   func(message.Message)
}

func (f *fakeLine) ID() uint32 { return f.id }
func (f *fakeLine) Send(msg message.Message) {
	f.received = append(f.received, msg)
	if f.onSend != nil {
		f.onSend(msg)
	}
}

func TestSendRoutesByDestAddress(t *testing.T) {
	r := New()
	a := &fakeLine{id: 1}
	b := &fakeLine{id: 2}
	r.AddRoute(a)
	r.AddRoute(b)

	r.Send(message.NewAudioMessage(1, 2, 0, 0, message.CodecPCM16, nil))
	assert.Len(t, b.received, 1)
	assert.Empty(t, a.received)
}

func TestSendWithNoMatchIsDroppedAndCounted(t *testing.T) {
	r := New()
	r.Send(message.NewAudioMessage(1, 99, 0, 0, message.CodecPCM16, nil))
	assert.Equal(t, uint64(1), r.DroppedCount())
}

func TestBroadcastReachesSubscribersAndObservers(t *testing.T) {
	r := New()
	a := &fakeLine{id: 1}
	b := &fakeLine{id: 2}
	obs := &fakeLine{id: 3}
	r.Subscribe(a)
	r.Subscribe(b)
	r.AddObserver(obs)

	msg := message.NewAudioMessage(1, message.BroadcastAddress, 0, 0, message.CodecPCM16, nil)
	r.Send(msg)

	assert.Len(t, a.received, 1)
	assert.Len(t, b.received, 1)
	assert.Len(t, obs.received, 1)
}

func TestBroadcastSubscriberNotReenteredFromOwnSend(t *testing.T) {
	r := New()
	reentered := false
	a := &fakeLine{id: 1}
	a.onSend = func(message.Message) {
		// A subscriber that tries to trigger another broadcast from
		// inside its own Send must not be re-entered.
		before := len(a.received)
		r.Send(message.NewAudioMessage(1, message.BroadcastAddress, 0, 0, message.CodecPCM16, nil))
		if len(a.received) > before {
			reentered = true
		}
	}
	r.Subscribe(a)

	r.Send(message.NewAudioMessage(1, message.BroadcastAddress, 0, 0, message.CodecPCM16, nil))
	assert.False(t, reentered)
}

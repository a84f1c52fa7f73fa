package svcthread

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ampnode/logx"
	"ampnode/message"
)

func TestLocalRegistryStdAlwaysMisses(t *testing.T) {
	var r LocalRegistryStd
	_, ok := r.Lookup("101")
	assert.False(t, ok)
}

func TestEnqueueDropsRatherThanBlocksWhenFull(t *testing.T) {
	out := make(chan message.Message, 1)
	th := New("", "101", LocalRegistryStd{}, out, func() Stats { return Stats{} }, logx.New(nil, nil))

	th.Enqueue(message.NewSignalMessage(0, 0, 0, message.Signal{Kind: message.SignalCallStart}))
	th.Enqueue(message.NewSignalMessage(0, 0, 0, message.Signal{Kind: message.SignalCallEnd})) // must not block

	assert.Len(t, out, 1)
}

package eventloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingRunnable struct {
	polls int
	ticks int
}

func (r *countingRunnable) Poll(nowMs uint32) { r.polls++ }
func (r *countingRunnable) Tick(nowMs uint32) { r.ticks++ }

type pollOnlyRunnable struct {
	polls int
}

func (r *pollOnlyRunnable) Poll(nowMs uint32) { r.polls++ }

func TestRunOnceTicksAtTickBoundary(t *testing.T) {
	now := uint32(0)
	ticker := &countingRunnable{}
	pollOnly := &pollOnlyRunnable{}
	loop := New(func() uint32 { return now }, ticker, pollOnly)

	loop.RunOnce() // first iteration always ticks once
	assert.Equal(t, 1, ticker.ticks)
	assert.Equal(t, 1, ticker.polls)
	assert.Equal(t, 1, pollOnly.polls)

	now = 10
	loop.RunOnce() // not yet a full tick interval
	assert.Equal(t, 1, ticker.ticks)
	assert.Equal(t, 2, ticker.polls)

	now = 20
	loop.RunOnce() // exactly one tick interval elapsed
	assert.Equal(t, 2, ticker.ticks)
}

func TestRunUntilStoppedRespectsStop(t *testing.T) {
	now := uint32(0)
	r := &countingRunnable{}
	loop := New(func() uint32 { now += TickIntervalMs; return now }, r)

	iterations := 0
	loop.RunUntilStopped(func() {
		iterations++
		if iterations >= 5 {
			loop.Stop()
		}
	})
	assert.Equal(t, 5, iterations)
	assert.Equal(t, 5, r.polls)
}

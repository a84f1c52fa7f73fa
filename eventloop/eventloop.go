// Package eventloop implements the cooperative tick-driven scheduler: a
// single-threaded loop over a fixed array of Runnables that enforces the
// 20ms audio tick and never allocates in steady state.
package eventloop

import "ampnode/seqbuf"

// TickIntervalMs is the fixed audio tick the loop enforces.
const TickIntervalMs = seqbuf.Tick

// Runnable is anything the EventLoop cooperatively drives. Poll is called
// every iteration and must return promptly; Tick is called once per
// TickIntervalMs for Runnables that need the audio tick.
type Runnable interface {
	Poll(nowMs uint32)
}

// Ticker is implemented by Runnables that also need the 20ms tick
// boundary, as opposed to pure event-driven Runnables that only need Poll.
type Ticker interface {
	Runnable
	Tick(nowMs uint32)
}

// NowFunc supplies the current monotonic millisecond time; normally
// clock.Source.NowMs, injected so the loop can be driven deterministically
// in tests.
type NowFunc func() uint32

// EventLoop drives a fixed set of Runnables, registered once at
// construction: no allocation happens in RunOnce's steady-state loop body.
type EventLoop struct {
	runnables []Runnable
	tickers   []Ticker
	now       NowFunc

	lastTickMs uint32
	hasTicked  bool

	stopped bool
}

// New constructs an EventLoop over runnables, using now to read the clock
// each iteration. Any runnable that also implements Ticker is additionally
// driven on the tick boundary.
func New(now NowFunc, runnables ...Runnable) *EventLoop {
	l := &EventLoop{runnables: runnables, now: now}
	for _, r := range runnables {
		if t, ok := r.(Ticker); ok {
			l.tickers = append(l.tickers, t)
		}
	}
	return l
}

// Stop requests RunUntilStopped return after the current iteration.
func (l *EventLoop) Stop() { l.stopped = true }

// RunOnce performs exactly one scheduling iteration: poll every Runnable,
// and if a full tick interval has elapsed since the last tick, drive every
// Ticker exactly once. It is the unit RunUntilStopped repeats and is the
// entry point tests drive directly for deterministic iteration counts.
func (l *EventLoop) RunOnce() {
	nowMs := l.now()
	for _, r := range l.runnables {
		r.Poll(nowMs)
	}
	if !l.hasTicked {
		l.hasTicked = true
		l.lastTickMs = nowMs
		for _, t := range l.tickers {
			t.Tick(nowMs)
		}
		return
	}
	if nowMs-l.lastTickMs >= TickIntervalMs {
		l.lastTickMs += TickIntervalMs
		for _, t := range l.tickers {
			t.Tick(l.lastTickMs)
		}
	}
}

// RunUntilStopped calls RunOnce repeatedly until Stop is called. spin is
// invoked between iterations (e.g. a short sleep or busy-poll backoff) and
// must not block indefinitely, preserving the no-suspension-point rule for
// the primary thread.
func (l *EventLoop) RunUntilStopped(spin func()) {
	l.stopped = false
	for !l.stopped {
		l.RunOnce()
		if spin != nil {
			spin()
		}
	}
}

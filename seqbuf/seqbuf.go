// Package seqbuf implements the adaptive jitter buffer: a Ramjee Algorithm 1
// delay estimator driving per-talkspurt origin-cursor placement, with
// mid-talkspurt slow-down, late-frame discard and lost-frame interpolation.
package seqbuf

import "ampnode/collections"

const (
	// Tick is the fixed audio tick PlayOut's contract is built around;
	// callers must invoke PlayOut exactly once per Tick of monotonically
	// increasing localTimeMs.
	Tick = 20

	// Capacity is the fixed slot-storage bound.
	Capacity = 64

	// midTsAdjustMax bounds how far the origin cursor may slow down
	// mid-talkspurt before a frame is declared hopelessly late instead.
	midTsAdjustMax = 40

	alpha = 0.998002
	beta  = 5.0

	defaultTalkspurtTimeout = 60
)

// Sink receives the frames/events a SequencingBuffer plays out.
type Sink interface {
	PlayVoice(payload []byte, localTimeMs uint32)
	PlaySignal(payload any, localTimeMs uint32)
	InterpolateVoice(localTimeMs uint32, durationMs uint32)
}

type slot struct {
	isVoice      bool
	remoteTimeMs uint32
	localTimeMs  uint32
	voicePayload []byte
	sigPayload   any
}

// Diagnostics holds the SequencingBuffer's running counters.
type Diagnostics struct {
	LateVoiceFrameCount     uint64
	InterpolatedVoiceCount  uint64
	OverflowCount           uint64
	MaxBufferDepth          int
	TalkSpurtCount          uint64
	VoicePlayoutCount       uint64
	VoiceConsumedCount      uint64
	WorstMargin             int64
	TotalMargin             int64
	TalkspurtFrameCount     uint64
}

// SequencingBuffer is the per-call adaptive jitter buffer. It owns its slot
// storage inline via a SortedFixedList and must be driven by exactly one
// caller: the primary tick loop.
type SequencingBuffer struct {
	slots *collections.SortedFixedList[slot]

	initialMarginMs     uint32
	talkspurtTimeoutMs  uint32
	delayLocked         bool

	di, di1 float64
	vi, vi1 float64

	inTalkspurtFlag   bool
	originCursor      uint32
	lastPlayedOrigin  int64 // -1 sentinel: no voice frame played yet this call
	lastPlayedLocal   uint32
	talkspurtFirstOrg uint32

	diag Diagnostics
}

// New constructs a SequencingBuffer with default talkspurt timeout (60ms)
// and no initial margin; callers should call SetInitialMargin before the
// first PlayOut.
func New() *SequencingBuffer {
	b := &SequencingBuffer{
		slots:              collections.NewSortedFixedList[slot](Capacity),
		talkspurtTimeoutMs: defaultTalkspurtTimeout,
		lastPlayedOrigin:   -1,
	}
	return b
}

// Reset clears the buffer and all statistics; ideal-delay estimators zeroed.
func (b *SequencingBuffer) Reset() {
	b.slots.Reset()
	b.di, b.di1, b.vi, b.vi1 = 0, 0, 0, 0
	b.inTalkspurtFlag = false
	b.originCursor = 0
	b.lastPlayedOrigin = -1
	b.lastPlayedLocal = 0
	b.talkspurtFirstOrg = 0
	b.diag = Diagnostics{}
}

// SetInitialMargin seeds the delay estimator: di = di_1 = ms, vi = vi_1 = 0.
func (b *SequencingBuffer) SetInitialMargin(ms uint32) {
	b.initialMarginMs = ms
	b.di = float64(ms)
	b.di1 = float64(ms)
	b.vi = 0
	b.vi1 = 0
}

// LockDelay freezes delay adaptation; UnlockDelay resumes it.
func (b *SequencingBuffer) LockDelay()   { b.delayLocked = true }
func (b *SequencingBuffer) UnlockDelay() { b.delayLocked = false }

// SetTalkspurtTimeout sets the silence duration that ends a talkspurt.
func (b *SequencingBuffer) SetTalkspurtTimeout(ms uint32) { b.talkspurtTimeoutMs = ms }

// InTalkspurt reports whether the buffer currently believes it is mid
// talkspurt.
func (b *SequencingBuffer) InTalkspurt() bool { return b.inTalkspurtFlag }

// Diag returns a snapshot of the running diagnostic counters.
func (b *SequencingBuffer) Diag() Diagnostics { return b.diag }

// ConsumeSignal inserts a signal slot, sorted by remoteTimeMs. It returns
// false (and drops the slot) if the buffer is at capacity.
func (b *SequencingBuffer) ConsumeSignal(payload any, remoteTimeMs, localTimeMs uint32) bool {
	ok := b.slots.Insert(remoteTimeMs, slot{
		isVoice:      false,
		remoteTimeMs: remoteTimeMs,
		localTimeMs:  localTimeMs,
		sigPayload:   payload,
	})
	if !ok {
		b.diag.OverflowCount++
	}
	return ok
}

// ConsumeVoice inserts a voice slot, sorted by remoteTimeMs, and updates the
// Ramjee Algorithm 1 delay estimator. It returns false (and drops the slot)
// if the buffer is at capacity.
func (b *SequencingBuffer) ConsumeVoice(payload []byte, remoteTimeMs, localTimeMs uint32) bool {
	ok := b.slots.Insert(remoteTimeMs, slot{
		isVoice:      true,
		remoteTimeMs: remoteTimeMs,
		localTimeMs:  localTimeMs,
		voicePayload: payload,
	})
	if !ok {
		b.diag.OverflowCount++
		return false
	}

	if !b.delayLocked {
		ni := float64(int64(localTimeMs) - int64(remoteTimeMs))
		if b.diag.VoiceConsumedCount == 0 {
			b.di = ni
			b.di1 = ni
			b.vi = 0
			b.vi1 = 0
		} else {
			b.di = alpha*b.di1 + (1-alpha)*ni
			b.vi = alpha*b.vi1 + (1-alpha)*abs64(b.di-ni)
			b.di1 = b.di
			b.vi1 = b.vi
		}
	}
	b.diag.VoiceConsumedCount++
	return true
}

func abs64(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func (b *SequencingBuffer) idealDelay() float64 {
	return b.di + beta*b.vi
}

// roundToTick rounds v to the nearest multiple of tick, used at
// talkspurt-start origin placement.
func roundToTick(v int64, tick int64) uint32 {
	if v < 0 {
		// Round to the nearest tick (halves away from zero), then clamp to
		// 0; a negative origin cursor is not meaningful on the wire clock.
		q := v - tick/2
		r := (q / tick) * tick
		if r < 0 {
			return 0
		}
		return uint32(r)
	}
	r := ((v + tick/2) / tick) * tick
	return uint32(r)
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

// PlayOut runs the core state machine once for localTimeMs. It MUST be
// called exactly once per Tick with monotonically increasing, tick-aligned
// localTimeMs.
func (b *SequencingBuffer) PlayOut(localTimeMs uint32, sink Sink) {
	if b.slots.Len() > b.diag.MaxBufferDepth {
		b.diag.MaxBufferDepth = b.slots.Len()
	}

	voiceFramePlayed := false

headLoop:
	for {
		key, s, ok := b.slots.Front()
		if !ok {
			break
		}

		if !s.isVoice {
			sink.PlaySignal(s.sigPayload, localTimeMs)
			b.slots.PopFront()
			continue
		}

		if int64(key) <= b.lastPlayedOrigin {
			b.diag.LateVoiceFrameCount++
			b.slots.PopFront()
			continue
		}

		if !b.inTalkspurtFlag {
			if b.diag.VoicePlayoutCount == 0 {
				b.originCursor = roundToTick(int64(key)-int64(b.initialMarginMs), Tick)
			} else {
				idealOriginCursor := roundToTick(int64(localTimeMs)-int64(b.idealDelay()), Tick)
				if idealOriginCursor < b.originCursor {
					floor := uint32(0)
					if b.lastPlayedOrigin > 0 {
						floor = uint32(b.lastPlayedOrigin)
					}
					b.originCursor = maxU32(idealOriginCursor, floor)
				}
				if idealOriginCursor > b.originCursor {
					b.originCursor = minU32(idealOriginCursor, key)
				}
			}
			b.inTalkspurtFlag = true
			b.diag.TalkspurtFrameCount = 0
			b.talkspurtFirstOrg = key
			b.lastPlayedOrigin = 0
			b.lastPlayedLocal = 0
		}

		if key < b.originCursor {
			if b.originCursor-key <= midTsAdjustMax {
				b.originCursor = key
				continue headLoop
			}
			b.diag.LateVoiceFrameCount++
			b.slots.PopFront()
			continue
		}

		if key == b.originCursor {
			sink.PlayVoice(s.voicePayload, localTimeMs)
			voiceFramePlayed = true
			b.lastPlayedLocal = localTimeMs
			b.lastPlayedOrigin = int64(key)
			b.diag.VoicePlayoutCount++

			margin := int64(localTimeMs) - int64(key)
			if b.diag.TalkspurtFrameCount == 0 || margin < b.diag.WorstMargin {
				b.diag.WorstMargin = margin
			}
			b.diag.TotalMargin += margin
			b.diag.TalkspurtFrameCount++

			b.slots.PopFront()
			break
		}

		// key > originCursor: future frame, not due yet.
		break
	}

	if b.inTalkspurtFlag && b.diag.TalkspurtFrameCount > 0 {
		if !voiceFramePlayed {
			sink.InterpolateVoice(localTimeMs, Tick)
			b.diag.InterpolatedVoiceCount++
		}
		if localTimeMs > b.lastPlayedLocal+b.talkspurtTimeoutMs {
			b.inTalkspurtFlag = false
			b.diag.TalkSpurtCount++
		}
	}

	b.originCursor += Tick
}

// ExtendTime promotes a 16-bit mini-frame remoteTime field to a full 32-bit
// value by selecting the half-window of localTimeMs nearest remoteTime16.
func ExtendTime(remoteTime16 uint16, localTimeMs uint32) uint32 {
	const window = uint32(1) << 16
	base := localTimeMs - (localTimeMs % window)
	candidates := [3]uint32{
		base - window + uint32(remoteTime16),
		base + uint32(remoteTime16),
		base + window + uint32(remoteTime16),
	}
	best := candidates[0]
	bestDist := absDiffU32(best, localTimeMs)
	for _, c := range candidates[1:] {
		if d := absDiffU32(c, localTimeMs); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func absDiffU32(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}

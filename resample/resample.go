// Package resample implements the fixed-rate PCM16 sample-rate converter:
// zero-order-hold upsampling plus an anti-aliasing low-pass FIR, or the same
// LPF followed by decimation, for every supported pair among
// {8000, 16000, 48000} Hz.
package resample

import "ampnode/errs"

const (
	Rate8k  = 8000
	Rate16k = 16000
	Rate48k = 48000

	blockSize8k  = 160
	blockSize16k = 320
	blockSize48k = 960

	tapCount = 31
)

// coeffs31 returns the symmetric 31-tap Q15 low-pass filter for the pair
// (inRate, outRate), the original's own-order-doesn't-matter convention
// (the table is a palindrome, so forward vs reverse tap order is
// indistinguishable). F1/F2 are the 8k<->48k filter hard-coded in the
// original amp-server Resampler; F16 is the analogous 16k<->48k filter
// (the original declares but never defines this one, so its coefficients
// are authored here as a Hamming-windowed-sinc low-pass at the 16k Nyquist,
// scaled to the same total Q15 gain as F1/F2).
var (
	f1Coeffs = [tapCount]int16{
		103, 136, 148, 74, -113, -395, -694,
		-881, -801, -331, 573, 1836, 3265, 4589, 5525, 5864, 5525,
		4589, 3265, 1836, 573, -331, -801, -881, -694, -395, -113,
		74, 148, 136, 103,
	}
	f2Coeffs = f1Coeffs

	f16Coeffs = [tapCount]int16{
		0, 56, 81, 0, -185, -272, 0, 540, 738, 0,
		-1353, -1862, 0, 4217, 8695, 10621, 8695, 4217, 0,
		-1862, -1353, 0, 738, 540, 0, -272, -185, 0, 81, 56, 0,
	}
)

func blockSizeFor(rateHz int) int {
	switch rateHz {
	case Rate8k:
		return blockSize8k
	case Rate16k:
		return blockSize16k
	case Rate48k:
		return blockSize48k
	default:
		errs.Fatal("resample: unsupported sample rate")
		return 0
	}
}

// fir is a Q15 direct-form FIR filter with its own persistent delay line,
// so state never leaks across streams.
type fir struct {
	coeffs [tapCount]int16
	delay  [tapCount]int32
}

func newFIR(coeffs [tapCount]int16) *fir {
	return &fir{coeffs: coeffs}
}

func (f *fir) reset() {
	f.delay = [tapCount]int32{}
}

// apply filters in-place into out, which must be the same length as in.
func (f *fir) apply(in []int16, out []int16) {
	for i, x := range in {
		copy(f.delay[1:], f.delay[:tapCount-1])
		f.delay[0] = int32(x)
		var acc int64
		for j := 0; j < tapCount; j++ {
			acc += int64(f.delay[j]) * int64(f.coeffs[j])
		}
		// Q15 coefficients: shift back down after the fixed-point multiply.
		v := acc >> 15
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		out[i] = int16(v)
	}
}

// Resampler converts fixed 20ms PCM16 blocks between a single (inRate,
// outRate) pair. It is stateful (the FIR delay line persists across calls)
// and must not be shared across independent audio streams.
type Resampler struct {
	inRate, outRate int
	inBlockSize     int
	outBlockSize    int
	lpf             *fir // nil when inRate == outRate (identity pass-through)
	upsample        bool
}

// New constructs a Resampler for the given rate pair. It panics (via
// errs.Fatal, a captured-backtrace fatal) for any pair other than identity,
// {8k,48k}, or {16k,48k} in either direction: an unsupported pair is a
// programmer error, not a runtime condition to recover from.
func New(inRate, outRate int) *Resampler {
	r := &Resampler{
		inRate:       inRate,
		outRate:      outRate,
		inBlockSize:  blockSizeFor(inRate),
		outBlockSize: blockSizeFor(outRate),
	}
	switch {
	case inRate == outRate:
		// identity pass-through, no filter needed
	case inRate == Rate8k && outRate == Rate48k:
		r.lpf = newFIR(f1Coeffs)
		r.upsample = true
	case inRate == Rate48k && outRate == Rate8k:
		r.lpf = newFIR(f2Coeffs)
		r.upsample = false
	case inRate == Rate16k && outRate == Rate48k:
		r.lpf = newFIR(f16Coeffs)
		r.upsample = true
	case inRate == Rate48k && outRate == Rate16k:
		r.lpf = newFIR(f16Coeffs)
		r.upsample = false
	default:
		errs.Fatal("resample: unsupported rate pair")
	}
	return r
}

// Reset clears filter state, e.g. when a Line reattaches to a fresh stream.
func (r *Resampler) Reset() {
	if r.lpf != nil {
		r.lpf.reset()
	}
}

// InBlockSize is the expected length of the in slice passed to Resample.
func (r *Resampler) InBlockSize() int { return r.inBlockSize }

// OutBlockSize is the length Resample writes into out.
func (r *Resampler) OutBlockSize() int { return r.outBlockSize }

// Resample converts one fixed 20ms block. in must have length
// InBlockSize(); out must have length OutBlockSize().
func (r *Resampler) Resample(in, out []int16) {
	errs.Assert(len(in) == r.inBlockSize, "resample: input block size mismatch")
	errs.Assert(len(out) == r.outBlockSize, "resample: output block size mismatch")

	if r.lpf == nil {
		copy(out, in)
		return
	}

	ratio := r.outBlockSize / r.inBlockSize
	if ratio == 0 {
		ratio = 1
	}

	if r.upsample {
		expanded := make([]int16, r.outBlockSize)
		for i, x := range in {
			base := i * ratio
			for j := 0; j < ratio; j++ {
				expanded[base+j] = x
			}
		}
		r.lpf.apply(expanded, out)
		return
	}

	filtered := make([]int16, r.inBlockSize)
	r.lpf.apply(in, filtered)
	decimateRatio := r.inBlockSize / r.outBlockSize
	if decimateRatio == 0 {
		decimateRatio = 1
	}
	for i := range out {
		out[i] = filtered[i*decimateRatio]
	}
}

package dsp

import "fmt"

// MinAcceptableRatio and MaxAcceptableRatio bound a legal resample ratio;
// a ratio outside this range is a configuration error (spec.md §7).
const (
	MinAcceptableRatio = 1.0 / 64
	MaxAcceptableRatio = 64.0
)

// Resampler converts between sample rates by a rational ratio
// (outputRate/inputRate) using linear interpolation between neighbouring
// input samples at every ratio; it has no separate integer-decimation step
// and applies no anti-alias filter. This is the simplification SPEC_FULL §4
// and spec.md §9's "polyphase filter bank" open question call for: a
// drop-in replacement only needs to satisfy the same Process contract.
type Resampler struct {
	ratio float64 // outputRate / inputRate

	// phase is the fractional read position into the input stream, carried
	// across Process calls so consecutive blocks interpolate seamlessly.
	phase float64

	// prevTail is the last input sample of the previous call, needed so
	// the first output sample of a new block can interpolate against it.
	prevTail complex64
	havePrev bool
}

// NewResampler constructs a Resampler for the given ratio (outputRate /
// inputRate). Returns an error if ratio falls outside
// [MinAcceptableRatio, MaxAcceptableRatio].
func NewResampler(ratio float64) (*Resampler, error) {
	if ratio < MinAcceptableRatio || ratio > MaxAcceptableRatio {
		return nil, fmt.Errorf("dsp: NewResampler: ratio %f outside [%f, %f]", ratio, MinAcceptableRatio, MaxAcceptableRatio)
	}
	return &Resampler{ratio: ratio}, nil
}

// Reset implements Stage, clearing interpolation phase and history so the
// next Process call behaves as if starting a fresh stream.
func (r *Resampler) Reset() {
	r.phase = 0
	r.prevTail = 0
	r.havePrev = false
}

// MaxOutputLen returns the largest number of output frames Process could
// produce for an input block of inLen frames, for sizing the destination
// buffer.
func (r *Resampler) MaxOutputLen(inLen int) int {
	return int(float64(inLen)*r.ratio) + 2
}

// Process resamples in into out (which must be at least
// MaxOutputLen(len(in)) long) and returns the number of output frames
// written. Interpolation carries continuity across calls via the stored
// phase and previous-tail sample; Reset clears that continuity.
func (r *Resampler) Process(in []complex64, out []complex64) int {
	if len(in) == 0 {
		return 0
	}

	step := 1.0 / r.ratio
	n := 0

	// extended prepends the carried-over previous sample so position 0 in
	// "extended index space" lines up with prevTail, position 1 with in[0].
	get := func(idx int) complex64 {
		if idx < 0 {
			if r.havePrev {
				return r.prevTail
			}
			return in[0]
		}
		if idx >= len(in) {
			return in[len(in)-1]
		}
		return in[idx]
	}

	pos := r.phase
	for pos < float64(len(in)) && n < len(out) {
		i0 := int(pos)
		frac := pos - float64(i0)
		a := get(i0 - 1)
		b := get(i0)
		out[n] = complex(
			real(a)+float32(frac)*(real(b)-real(a)),
			imag(a)+float32(frac)*(imag(b)-imag(a)),
		)
		n++
		pos += step
	}

	r.phase = pos - float64(len(in))
	r.prevTail = in[len(in)-1]
	r.havePrev = true

	return n
}

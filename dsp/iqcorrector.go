package dsp

import (
	"math"
	"math/cmplx"
	"sync"
	"sync/atomic"
)

// IQCoefficient is the (gain, phase) correction pair the IQOptimizer worker
// publishes and the IQCorrector applies. It is safe to read and write
// concurrently via IQCoefficientStore.
type IQCoefficient struct {
	GainRatio float32 // Q-channel amplitude scale relative to I
	PhaseSkew float32 // radians of Q-channel phase de-skew
}

// IQCoefficientStore publishes an IQCoefficient between the optimizer
// worker (writer) and the pre-processor worker (reader) without requiring
// either side to block on the other, matching spec.md §5's "coherently
// readable" requirement for this piece of shared mutable state. Grounded
// on stream/multiply.go's lookup-table-refresh discipline: a correction
// value is computed off the critical path and swapped into place.
type IQCoefficientStore struct {
	mu    sync.Mutex
	value atomic.Value // IQCoefficient
}

// NewIQCoefficientStore returns a store initialized to the identity
// correction (no gain or phase adjustment).
func NewIQCoefficientStore() *IQCoefficientStore {
	s := &IQCoefficientStore{}
	s.value.Store(IQCoefficient{GainRatio: 1})
	return s
}

// Load returns the most recently published coefficient.
func (s *IQCoefficientStore) Load() IQCoefficient {
	return s.value.Load().(IQCoefficient)
}

// Store publishes a new coefficient. Safe for concurrent use with Load and
// other Stores.
func (s *IQCoefficientStore) Store(c IQCoefficient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value.Store(c)
}

// IQCorrector applies the shared coefficient to a block of samples, the
// same per-sample complex-multiply shape as stream.Multiply's C64 path,
// except the multiplier is derived from (gain, phase) rather than supplied
// directly.
type IQCorrector struct {
	store *IQCoefficientStore
}

// NewIQCorrector constructs an IQCorrector reading from store.
func NewIQCorrector(store *IQCoefficientStore) *IQCorrector {
	return &IQCorrector{store: store}
}

// Reset implements Stage. IQCorrector itself carries no per-stream state;
// the shared coefficient survives a discontinuity since it reflects a
// slowly-adapting hardware property, not stream content.
func (c *IQCorrector) Reset() {}

// Process applies the coefficient to buf in place: Q is scaled by GainRatio,
// then the whole sample (I and Q together) is rotated by -PhaseSkew radians.
func (c *IQCorrector) Process(buf []complex64) {
	coef := c.store.Load()
	if coef.GainRatio == 1 && coef.PhaseSkew == 0 {
		return
	}
	skew := complex64(cmplx.Exp(complex(0, -float64(coef.PhaseSkew))))
	for i, x := range buf {
		q := imag(x) * coef.GainRatio
		corrected := complex(real(x), q) * skew
		buf[i] = corrected
	}
}

// IQOptimizer measures the mean I*Q cross-correlation and the I/Q RMS ratio
// over a block of samples and nudges the shared IQCoefficient toward the
// value that zeroes them — the "opaque refinement algorithm" spec.md §4.10
// treats as a black box, given a concrete (if simplified) implementation
// here per SPEC_FULL's Open Question resolution.
type IQOptimizer struct {
	store    *IQCoefficientStore
	stepSize float32
}

// NewIQOptimizer constructs an IQOptimizer publishing corrections to store.
// stepSize controls how aggressively each measurement nudges the published
// coefficient (0 disables adaptation).
func NewIQOptimizer(store *IQCoefficientStore, stepSize float32) *IQOptimizer {
	return &IQOptimizer{store: store, stepSize: stepSize}
}

// Measure runs one refinement pass over buf, updating the shared
// coefficient. buf is typically the first IQ_CORRECTION_FFT_SIZE samples of
// a chunk, copied out by the pre-processor worker before this runs
// off-critical-path.
func (o *IQOptimizer) Measure(buf []complex64) {
	if len(buf) == 0 {
		return
	}
	var (
		sumIQ float64
		sumI2 float64
		sumQ2 float64
	)
	for _, x := range buf {
		i, q := float64(real(x)), float64(imag(x))
		sumIQ += i * q
		sumI2 += i * i
		sumQ2 += q * q
	}
	n := float64(len(buf))
	meanIQ := sumIQ / n
	rmsI := math.Sqrt(sumI2 / n)
	rmsQ := math.Sqrt(sumQ2 / n)
	if rmsI == 0 || rmsQ == 0 {
		return
	}

	cur := o.store.Load()

	// Phase skew is proportional to the normalized cross-correlation; gain
	// ratio is nudged toward the measured I/Q RMS ratio.
	phaseErr := float32(meanIQ / (rmsI * rmsQ))
	gainErr := float32(rmsI/rmsQ) - cur.GainRatio

	next := IQCoefficient{
		GainRatio: cur.GainRatio + o.stepSize*gainErr,
		PhaseSkew: cur.PhaseSkew + o.stepSize*phaseErr,
	}
	o.store.Store(next)
}

package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rf-tools/iqpipe/dsp"
	"github.com/rf-tools/iqpipe/iqfmt"
)

// PipelineMode selects the source/sink coupling spec.md §4.5 describes.
type PipelineMode int

const (
	// RealtimeSDR is SDR -> byte-stream sink: the source enqueues chunks
	// directly, and the writer consumes chunks directly (no sink ring).
	RealtimeSDR PipelineMode = iota
	// BufferedSDR is SDR -> file: the source serializes framed packets
	// into the source-side ring; the reader worker deframes them.
	BufferedSDR
	// FileProcessing is file -> anywhere: the source module's StartStream
	// runs inline in the reader worker.
	FileProcessing
)

func (m PipelineMode) String() string {
	switch m {
	case RealtimeSDR:
		return "realtime-sdr"
	case BufferedSDR:
		return "buffered-sdr"
	case FileProcessing:
		return "file-processing"
	default:
		return "unknown"
	}
}

// FilterRequest mirrors one entry of the configuration surface's
// filter_requests[], spec.md §6.
type FilterRequest struct {
	Kind       dsp.FilterKind
	Hint       dsp.FilterHint
	NumTaps    int
	CutoffLow  float64
	CutoffHigh float64
	// PostResample selects whether this filter runs in the pre-processor
	// (before resampling) or the post-processor (after), per
	// freq_shift_hz_arg/shift_after_resample's sibling knob for filters.
	PostResample bool
}

// Config is the pipeline's configuration surface, spec.md §6.
type Config struct {
	Mode PipelineMode

	Source SourceModule
	Sink   SinkModule

	InputFormat  iqfmt.Format
	OutputFormat iqfmt.Format

	// TargetRate is the desired output sample rate in Hz; 0 means "take
	// the source's rate" (spec.md §6).
	TargetRate uint
	NoResample bool

	Gain float32

	FreqShiftHz        float64
	ShiftAfterResample bool

	DCBlockEnable      bool
	IQCorrectionEnable bool
	IQOptimizerStep    float32 // 0 defaults to 0.05

	AGCEnable     bool
	AGCTargetRMS  float32
	AGCAttack     float32
	AGCRelease    float32

	FilterRequests []FilterRequest

	RawPassthrough bool

	// WatchdogThreshold bounds how long an SDR source may go without a
	// heartbeat before the watchdog declares it hung. Only meaningful for
	// RealtimeSDR/BufferedSDR modes.
	WatchdogThreshold time.Duration

	Logger *zap.Logger
}

// Validate checks the configuration-error class spec.md §7 enumerates:
// resample ratio out of bounds, passthrough with mismatched formats, and
// an obviously-unusable filter edge. It does not attempt to re-derive the
// source's sample rate (that requires Initialize to have already run).
func (c *Config) Validate(sourceRate uint) error {
	if c.RawPassthrough && c.InputFormat != c.OutputFormat {
		return fmt.Errorf("pipeline: raw_passthrough requires input format == output format (got %s != %s)", c.InputFormat, c.OutputFormat)
	}
	if !c.NoResample && c.TargetRate != 0 && sourceRate != 0 {
		ratio := float64(c.TargetRate) / float64(sourceRate)
		if ratio < dsp.MinAcceptableRatio || ratio > dsp.MaxAcceptableRatio {
			return fmt.Errorf("pipeline: resample ratio %f outside [%f, %f]", ratio, dsp.MinAcceptableRatio, dsp.MaxAcceptableRatio)
		}
	}
	for _, fr := range c.FilterRequests {
		if fr.CutoffLow <= 0 || fr.CutoffLow >= 0.5 {
			return fmt.Errorf("pipeline: filter cutoff_low %f cycles/sample outside (0, 0.5) Nyquist bound", fr.CutoffLow)
		}
		if fr.CutoffHigh != 0 && fr.CutoffHigh >= 0.5 {
			return fmt.Errorf("pipeline: filter cutoff_high %f cycles/sample outside (0, 0.5) Nyquist bound", fr.CutoffHigh)
		}
	}
	return nil
}

// lifecycleState records how far pipeline construction has proceeded. Run
// sets it as each step completes, but nothing reads it back: Run's error
// paths release what was built with explicit cleanup calls instead.
type lifecycleState int

const (
	lifecycleNone lifecycleState = iota
	lifecycleDSP
	lifecyclePool
	lifecycleQueues
	lifecycleRings
	lifecycleSourceInit
	lifecycleSinkOpen
	lifecycleWorkers
)

// Resources is the shared state every worker reads and/or writes: the
// chunk pool, the DSP component handles, progress counters, and the single
// cancellation entry point. It plays the role of spec.md §3's "Pipeline
// resources", rendered per DESIGN NOTES §9 as one owning struct handing
// out narrow references rather than a web of back-pointers.
type Resources struct {
	Config Config

	Pool *ChunkPool

	ctx    context.Context
	cancel context.CancelCauseFunc

	state    lifecycleState
	stateMu  sync.Mutex

	progressMu       sync.Mutex
	framesProcessed  int64
	totalFrames      int64 // -1 if unknown
	bytesWritten     int64
	ProgressCallback func(framesDone int64, framesTotal int64, bytesDone int64)

	heartbeatMu sync.Mutex
	heartbeat   time.Time

	metrics *Metrics
}

// NewResources constructs the shared pipeline state for cfg. ctx governs
// the whole run; cancel may be invoked many times (once per Shutdown call),
// and only the first cause sticks: the first error recorded, or
// context.Canceled on a clean shutdown request.
func NewResources(parent context.Context, cfg Config) *Resources {
	ctx, cancel := context.WithCancelCause(parent)
	return &Resources{
		Config:      cfg,
		ctx:         ctx,
		cancel:      cancel,
		totalFrames: -1,
		heartbeat:   time.Now(),
		metrics:     newMetrics(),
	}
}

// Context returns the run-scoped context every worker should select on
// alongside its queues and rings.
func (r *Resources) Context() context.Context {
	return r.ctx
}

// Shutdown is the single cancellation entry point spec.md §9's
// "CancellationToken" redesign note calls for: the signal handler, a
// fatal-error worker, and a clean end-of-stream all route through here.
// err == nil means an orderly shutdown request (not itself an error); a
// non-nil err marks a fatal error (spec.md §7's error_occurred flag).
func (r *Resources) Shutdown(err error) {
	if err == nil {
		err = context.Canceled
	}
	r.cancel(err)
}

// Err reports the fatal error that caused shutdown, or nil if the run
// completed normally or was cancelled without an error (context.Canceled
// does not count as a fatal error, spec.md §7).
func (r *Resources) Err() error {
	cause := context.Cause(r.ctx)
	if cause == nil || cause == context.Canceled {
		return nil
	}
	return cause
}

// ShuttingDown reports whether Shutdown has been called for any reason.
func (r *Resources) ShuttingDown() bool {
	select {
	case <-r.ctx.Done():
		return true
	default:
		return false
	}
}

// Heartbeat records that an SDR capture callback/read just completed, for
// the watchdog worker to compare against (spec.md §4.11).
func (r *Resources) Heartbeat() {
	r.heartbeatMu.Lock()
	r.heartbeat = time.Now()
	r.heartbeatMu.Unlock()
}

// LastHeartbeat returns the timestamp of the most recent Heartbeat call.
func (r *Resources) LastHeartbeat() time.Time {
	r.heartbeatMu.Lock()
	defer r.heartbeatMu.Unlock()
	return r.heartbeat
}

// SetTotalFrames records a source's known total frame count (-1 if
// unknown), for progress reporting.
func (r *Resources) SetTotalFrames(n int64) {
	r.progressMu.Lock()
	r.totalFrames = n
	r.progressMu.Unlock()
}

// ReportProgress accumulates framesDone/bytesDone and invokes
// ProgressCallback if set, guarded by the progress mutex spec.md §5(b)
// requires.
func (r *Resources) ReportProgress(framesDone, bytesDone int64) {
	r.progressMu.Lock()
	r.framesProcessed += framesDone
	r.bytesWritten += bytesDone
	frames, total, bytes := r.framesProcessed, r.totalFrames, r.bytesWritten
	cb := r.ProgressCallback
	r.progressMu.Unlock()

	r.metrics.framesProcessed.Add(float64(framesDone))
	r.metrics.bytesWritten.Add(float64(bytesDone))

	if cb != nil {
		cb(frames, total, bytes)
	}
}

func (r *Resources) setState(s lifecycleState) {
	r.stateMu.Lock()
	r.state = s
	r.stateMu.Unlock()
}

func (r *Resources) loadState() lifecycleState {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return r.state
}

func (r *Resources) logger() *zap.Logger {
	if r.Config.Logger != nil {
		return r.Config.Logger
	}
	return zap.NewNop()
}

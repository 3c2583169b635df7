package pipeline

import "context"

// SummaryInfo describes the properties of a source stream once it has been
// initialized: the sample rate it will deliver at, and, for sources with a
// known length (files), the total frame count.
type SummaryInfo struct {
	SampleRate uint
	// TotalFrames is the number of frames the source will yield, or -1 if
	// unknown (live SDR sources).
	TotalFrames int64
}

// SourceModule is the input-source vtable spec.md §6 describes. It
// collapses spec.md's start_stream (a whole blocking read loop a concrete
// module would otherwise have to reimplement the free-queue/enqueue
// plumbing inside of) down to ReadBlock, a single pull of the next block
// of raw wire-format bytes — the DESIGN NOTES §9 "collapses to method
// receivers" simplification. The pipeline's reader/capture-worker drivers
// own the loop, the queue plumbing, and (for SDR modes) the heartbeat and
// framed-packet serialization; ReadBlock only has to know how to produce
// bytes.
type SourceModule interface {
	// Initialize prepares the source (opens a file, connects to a
	// device). Called under the orchestrator's SDRInitializeTimeout guard.
	Initialize(ctx context.Context) error

	// ReadBlock reads up to maxFrames frames of raw wire-format bytes into
	// buf (which is at least maxFrames*Format.BytesPerPair() long) and
	// returns the frame count read. It returns io.EOF once the source is
	// exhausted (file sources) or never, for live sources that only stop
	// via StopStream/context cancellation. For live sources this call
	// blocks for the device's next burst.
	ReadBlock(buf []byte, maxFrames int) (int, error)

	// StopStream unblocks a ReadBlock call parked in a foreign blocking
	// read (spec.md §5's synchronous-read driver case). Safe to call even
	// if no ReadBlock call is in flight.
	StopStream()

	// Cleanup releases any resources Initialize acquired.
	Cleanup() error

	// GetSummaryInfo reports the stream's sample rate and known length.
	// Only valid after Initialize succeeds.
	GetSummaryInfo() SummaryInfo

	// HasKnownLength reports whether GetSummaryInfo's TotalFrames is
	// meaningful: true for file sources, false for live SDRs.
	HasKnownLength() bool
}

// IQPreCorrector is an optional SourceModule extension: a source that can
// run a one-shot I/Q correction pass before streaming starts (spec.md §6's
// "Optional pre_stream_iq_correction").
type IQPreCorrector interface {
	PreStreamIQCorrection(ctx context.Context) error
}

// StreamResetSignaler is an optional SourceModule extension for BufferedSDR
// mode: a source that can detect its own stream discontinuities (a dropped
// sample run, a retune) reports one by returning true the next time
// PollStreamReset is called. runBufferedCapture polls this once per
// ReadBlock and, on true, serializes a STREAM_RESET packet onto the
// source-side ring right after that read's data (spec.md §7's "SDR driver
// signals reset").
type StreamResetSignaler interface {
	PollStreamReset() bool
}

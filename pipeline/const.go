// Package pipeline implements the concurrent streaming DSP worker graph:
// chunks of I/Q samples move from a source, through optional DSP stages, to
// a sink, over bounded queues and, at two boundaries, byte-level ring
// buffers. See DESIGN.md for the component-by-component grounding of this
// package against the teacher repo's stream/ package.
package pipeline

import (
	"time"

	"github.com/rf-tools/iqpipe/dsp"
)

// Sizing constants. Values are chosen within the qualitative ranges
// spec.md §6 gives ("PIPELINE_CHUNK_BASE_SAMPLES in the 16k-256k range",
// "IO_SDR_INPUT_BUFFER_BYTES large (hundreds of MiB acceptable)", etc) —
// an Open Question the spec explicitly leaves to the implementer.
const (
	// PipelineNumChunks is the fixed size of the chunk pool.
	PipelineNumChunks = 8

	// PipelineChunkBaseSamples is the nominal number of frames a chunk
	// carries end to end absent resampling or FFT-block growth.
	PipelineChunkBaseSamples = 65536

	// MaxAllowedFFTBlockSize bounds max_out_samples; exceeding it during
	// chunk pool sizing is a fatal configuration error.
	MaxAllowedFFTBlockSize = 1 << 20

	// IOSDRInputBufferBytes sizes the source-side ring buffer used in
	// BUFFERED_SDR mode.
	IOSDRInputBufferBytes = 256 << 20

	// IOOutputWriterBufferBytes sizes the sink-side ring buffer used when
	// pacing is required.
	IOOutputWriterBufferBytes = 1 << 30

	// IOOutputWriterChunkSize is how much the paced writer reads from the
	// sink-side ring buffer per iteration.
	IOOutputWriterChunkSize = 4 << 20

	// SDRInitializeTimeout bounds how long the orchestrator waits for a
	// source module's Initialize before treating the driver as hung.
	SDRInitializeTimeout = 5 * time.Second

	// IQCorrectionFFTSize is the number of leading complex samples a chunk
	// must carry for the pre-processor to schedule an I/Q optimizer pass.
	IQCorrectionFFTSize = 4096

	// MinAcceptableRatio and MaxAcceptableRatio bound a legal resample
	// ratio; configuring one outside this range is a configuration error.
	MinAcceptableRatio = dsp.MinAcceptableRatio
	MaxAcceptableRatio = dsp.MaxAcceptableRatio
)

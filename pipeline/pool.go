package pipeline

import (
	"fmt"

	"github.com/rf-tools/iqpipe/iqfmt"
)

// PoolConfig describes the sizing inputs the chunk pool needs at
// construction time.
type PoolConfig struct {
	// InputFormat is the wire format of source-side raw bytes.
	InputFormat iqfmt.Format
	// OutputFormat is the wire format of the final output bytes.
	OutputFormat iqfmt.Format

	// ResampleRatio is outputRate/inputRate (1.0 if resampling is
	// disabled).
	ResampleRatio float64

	// FilterBlockSize is the largest FFT-based filter block size enabled
	// anywhere in the chain, or 0 if no FFT filter is in use.
	FilterBlockSize int
}

// maxOutSamples computes the per-chunk complex-buffer capacity: the
// maximum of the base chunk size, any enabled FFT filter's block size, and
// (if upsampling) the base size scaled by the ratio plus a safety margin.
// Exceeding MaxAllowedFFTBlockSize is a fatal configuration error (spec.md
// §4.1).
func maxOutSamples(cfg PoolConfig) (int, error) {
	n := PipelineChunkBaseSamples
	if cfg.FilterBlockSize > n {
		n = cfg.FilterBlockSize
	}
	if cfg.ResampleRatio > 1 {
		const safetyMargin = 1024
		scaled := int(float64(PipelineChunkBaseSamples)*cfg.ResampleRatio) + safetyMargin
		if scaled > n {
			n = scaled
		}
	}
	if n > MaxAllowedFFTBlockSize {
		return 0, fmt.Errorf("pipeline: chunk capacity %d exceeds MaxAllowedFFTBlockSize %d", n, MaxAllowedFFTBlockSize)
	}
	return n, nil
}

// ChunkPool is a fixed-size pool of reusable Chunks. Each buffer kind (raw
// input, complex A, complex B, final output) is sliced out of its own
// contiguous backing allocation, one per kind; the four kinds do not share
// a single region.
type ChunkPool struct {
	chunks       []*Chunk
	maxOutSample int
}

// NewChunkPool allocates PipelineNumChunks chunks sized per cfg.
func NewChunkPool(cfg PoolConfig) (*ChunkPool, error) {
	maxOut, err := maxOutSamples(cfg)
	if err != nil {
		return nil, err
	}

	rawBytesPerChunk := PipelineChunkBaseSamples * cfg.InputFormat.BytesPerPair()
	finalBytesPerChunk := maxOut * cfg.OutputFormat.BytesPerPair()

	rawBacking := make([]byte, PipelineNumChunks*rawBytesPerChunk)
	complexABacking := make([]complex64, PipelineNumChunks*maxOut)
	complexBBacking := make([]complex64, PipelineNumChunks*maxOut)
	finalBacking := make([]byte, PipelineNumChunks*finalBytesPerChunk)

	chunks := make([]*Chunk, PipelineNumChunks)
	for i := 0; i < PipelineNumChunks; i++ {
		c := &Chunk{
			RawInput:           rawBacking[i*rawBytesPerChunk : (i+1)*rawBytesPerChunk],
			ComplexA:           complexABacking[i*maxOut : (i+1)*maxOut],
			ComplexB:           complexBBacking[i*maxOut : (i+1)*maxOut],
			FinalOutput:        finalBacking[i*finalBytesPerChunk : (i+1)*finalBytesPerChunk],
			PacketSampleFormat: cfg.InputFormat,
		}
		c.CurrentIn = c.ComplexA
		c.CurrentOut = c.ComplexB
		chunks[i] = c
	}

	return &ChunkPool{chunks: chunks, maxOutSample: maxOut}, nil
}

// MaxOutSamples returns the per-chunk complex-buffer capacity this pool
// was sized for.
func (p *ChunkPool) MaxOutSamples() int {
	return p.maxOutSample
}

// Chunks returns every chunk in the pool, for seeding the free queue at
// startup.
func (p *ChunkPool) Chunks() []*Chunk {
	return p.chunks
}

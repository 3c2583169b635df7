package pipeline

import "github.com/rf-tools/iqpipe/iqfmt"

// Chunk is the reusable unit that carries one block of samples through the
// worker graph. A chunk's identity is recycled for the lifetime of a run:
// at any moment it belongs to exactly one owner — the free queue, an
// inter-stage queue, or a stage's local variable.
type Chunk struct {
	// RawInput holds bytes in PacketSampleFormat, as read from the source.
	RawInput []byte

	// ComplexA and ComplexB are the ping-pong complex-float buffers DSP
	// stages read from and write to. Both are always addressable for the
	// full capacity; CurrentIn/CurrentOut select which is which.
	ComplexA []complex64
	ComplexB []complex64

	// CurrentIn and CurrentOut point at one of ComplexA/ComplexB each;
	// they are never equal. Swap exchanges them after a stage has written
	// its output, so the next stage reads from CurrentIn.
	CurrentIn  []complex64
	CurrentOut []complex64

	// FinalOutput holds bytes in the output sample format, written by the
	// post-processor's final conversion.
	FinalOutput []byte

	// FramesRead is the number of valid input frames in RawInput/CurrentIn.
	FramesRead int

	// FramesToWrite is the number of valid output frames after DSP, i.e.
	// how much of FinalOutput (or CurrentOut, mid-pipeline) is valid.
	FramesToWrite int

	// PacketSampleFormat is the wire format of the bytes in RawInput.
	PacketSampleFormat iqfmt.Format

	// IsLastChunk marks the terminator sentinel: exactly one flows through
	// each non-shortcut edge per stream.
	IsLastChunk bool

	// StreamDiscontinuityEvent marks a reset marker. Such chunks carry no
	// data (FramesRead == 0) and are passed through DSP stages after each
	// stage resets its internal state.
	StreamDiscontinuityEvent bool
}

// InputBytesPerSamplePair returns the byte stride of one frame of
// RawInput, derived from PacketSampleFormat.
func (c *Chunk) InputBytesPerSamplePair() int {
	return c.PacketSampleFormat.BytesPerPair()
}

// Swap exchanges CurrentIn and CurrentOut, so the buffer a stage just
// wrote into becomes the input for the next stage.
func (c *Chunk) Swap() {
	c.CurrentIn, c.CurrentOut = c.CurrentOut, c.CurrentIn
}

// Reset clears the per-stream bookkeeping fields (but not the underlying
// buffers, which are reused in place) so the chunk can be handed back to
// the free queue.
func (c *Chunk) Reset() {
	c.FramesRead = 0
	c.FramesToWrite = 0
	c.IsLastChunk = false
	c.StreamDiscontinuityEvent = false
	c.CurrentIn = c.ComplexA
	c.CurrentOut = c.ComplexB
}

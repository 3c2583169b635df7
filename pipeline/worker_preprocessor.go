package pipeline

import (
	"github.com/rf-tools/iqpipe/iqfmt"
)

// runPreProcessor implements spec.md §4.6: raw->complex conversion (with
// gain applied in the same pass), DC block, I/Q correction, pre-shift,
// pre-resample filter, and optional scheduling of an I/Q optimizer pass.
// It reads from in, writes to out, and returns chunks it fully consumes
// (reset markers aside) to free.
func runPreProcessor(res *Resources, stages *dspStages, gain float32, in, out, free, iqOpt *ChunkQueue) error {
	logger := res.logger().Named("preprocessor")

	for {
		chunk, ok := in.Dequeue()
		if !ok {
			return nil
		}

		if chunk.IsLastChunk {
			if iqOpt != nil {
				iqOpt.SignalShutdown()
			}
			out.Enqueue(chunk)
			return nil
		}

		if chunk.StreamDiscontinuityEvent {
			stages.resetPreProcessorState()
			out.Enqueue(chunk)
			continue
		}

		buf := chunk.CurrentIn[:chunk.FramesRead]
		if err := iqfmt.ToComplex64(chunk.PacketSampleFormat, chunk.RawInput, buf, chunk.FramesRead); err != nil {
			res.Shutdown(err)
			return err
		}
		if gain != 1 {
			for i, x := range buf {
				buf[i] = complex(real(x)*gain, imag(x)*gain)
			}
		}

		if stages.dcBlock != nil {
			stages.dcBlock.Process(buf)
		}
		if stages.iqCorrector != nil {
			stages.iqCorrector.Process(buf)
		}
		if stages.preShift != nil {
			stages.preShift.Process(buf)
		}
		for _, f := range stages.preFilters {
			n := f.Process(buf)
			buf = buf[:n]
			chunk.FramesRead = n
		}

		if iqOpt != nil && chunk.FramesRead >= IQCorrectionFFTSize {
			if optChunk, ok := free.TryDequeue(); ok {
				copy(optChunk.ComplexA[:IQCorrectionFFTSize], buf[:IQCorrectionFFTSize])
				optChunk.FramesRead = IQCorrectionFFTSize
				if !iqOpt.Enqueue(optChunk) {
					free.Enqueue(optChunk)
				}
			}
		}

		if chunk.FramesRead > 0 {
			if stages.resampler == nil {
				// No resampler worker runs in this configuration (either
				// no_resample or an already-1:1 rate), so nobody else will
				// ever set FramesToWrite or perform the ping-pong swap the
				// post-processor expects its input buffer to have been
				// through; do both here with a plain copy into ComplexB.
				n := copy(chunk.ComplexB, buf)
				chunk.FramesToWrite = n
				chunk.CurrentIn, chunk.CurrentOut = chunk.ComplexB, chunk.ComplexA
			}
			out.Enqueue(chunk)
		} else {
			logger.Debug("chunk filtered away entirely, returning to free queue")
			free.Enqueue(chunk)
		}
	}
}

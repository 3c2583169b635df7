package pipeline

import "github.com/rf-tools/iqpipe/iqfmt"

// runPostProcessor implements spec.md §4.8: post-resample filter,
// post-shift, AGC, and the final complex->output-format conversion, then
// routes the chunk per whether a sink-side ring is in play (paced mode) or
// not (chunk-direct mode to the writer worker).
func runPostProcessor(res *Resources, stages *dspStages, outFormat iqfmt.Format, in, writerQueue, free *ChunkQueue, sinkRing *RingBuffer) error {
	for {
		chunk, ok := in.Dequeue()
		if !ok {
			return nil
		}

		if chunk.IsLastChunk {
			if sinkRing != nil {
				sinkRing.SignalEndOfStream()
				free.Enqueue(chunk)
			} else {
				writerQueue.Enqueue(chunk)
			}
			return nil
		}

		if chunk.StreamDiscontinuityEvent {
			stages.resetPostProcessorState()
			if sinkRing != nil {
				free.Enqueue(chunk)
			} else {
				writerQueue.Enqueue(chunk)
			}
			continue
		}

		buf := chunk.CurrentIn[:chunk.FramesToWrite]
		for _, f := range stages.postFilters {
			n := f.Process(buf)
			buf = buf[:n]
			chunk.FramesToWrite = n
		}
		if stages.postShift != nil {
			stages.postShift.Process(buf)
		}
		if stages.agc != nil {
			stages.agc.Process(buf)
		}

		if err := iqfmt.FromComplex64(outFormat, buf, chunk.FramesToWrite, chunk.FinalOutput); err != nil {
			chunk.FramesToWrite = 0
			res.Shutdown(err)
			return err
		}

		switch {
		case chunk.FramesToWrite == 0:
			free.Enqueue(chunk)
		case sinkRing != nil:
			n := chunk.FramesToWrite * outFormat.BytesPerPair()
			if written := sinkRing.Write(chunk.FinalOutput[:n]); written != n {
				res.metrics.recordOverrun()
				res.logger().Named("postprocessor").Warn("sink ring overrun, output bytes dropped")
			}
			free.Enqueue(chunk)
		default:
			writerQueue.Enqueue(chunk)
		}
	}
}

package pipeline

import (
	"context"
	"errors"
	"io"

	"github.com/rf-tools/iqpipe/iqfmt"
)

// ensureTerminator guarantees exactly one is_last_chunk chunk reaches out,
// per spec.md §4.5: on source exhaustion or shutdown it tries once,
// non-blocking, to obtain a free chunk to carry the marker; if none is
// available it signals out shut down directly, so downstream stages still
// detect termination via queue-shutdown broadcast.
func ensureTerminator(free, out *ChunkQueue) {
	if chunk, ok := free.TryDequeue(); ok {
		chunk.Reset()
		chunk.IsLastChunk = true
		out.Enqueue(chunk)
		return
	}
	out.SignalShutdown()
}

// runFileProcessingSource drives spec.md §4.5's FILE_PROCESSING mode: the
// source module's ReadBlock call runs inline, gated by blocking free-queue
// dequeues so a slow downstream naturally throttles the read rate.
func runFileProcessingSource(res *Resources, source SourceModule, free, out *ChunkQueue, sinkRing *RingBuffer, rawPassthrough bool, inputFormat iqfmt.Format) error {
	logger := res.logger().Named("source")

	for {
		chunk, ok := free.Dequeue()
		if !ok {
			return nil
		}

		target := chunk.RawInput
		if rawPassthrough {
			target = chunk.FinalOutput
		}

		n, err := source.ReadBlock(target, PipelineChunkBaseSamples)
		if n > 0 {
			chunk.FramesRead = n
			chunk.PacketSampleFormat = inputFormat
			if rawPassthrough {
				nBytes := n * inputFormat.BytesPerPair()
				if written := sinkRing.Write(chunk.FinalOutput[:nBytes]); written != nBytes {
					res.metrics.recordOverrun()
					logger.Warn("sink ring overrun in passthrough mode")
				}
				free.Enqueue(chunk)
			} else {
				out.Enqueue(chunk)
			}
		} else {
			free.Enqueue(chunk)
		}

		if errors.Is(err, io.EOF) {
			if rawPassthrough {
				sinkRing.SignalEndOfStream()
			} else {
				ensureTerminator(free, out)
			}
			return nil
		}
		if err != nil {
			res.Shutdown(err)
			return err
		}
	}
}

// runRealtimeSource drives spec.md §4.5's REALTIME_SDR mode: bursts are
// chunked non-blocking against the free queue (an empty free queue drops
// the burst with a warning, "pipeline stalled"), and the heartbeat is
// updated on every ReadBlock call that returns.
func runRealtimeSource(ctx context.Context, res *Resources, source SourceModule, free, out *ChunkQueue, sinkRing *RingBuffer, rawPassthrough bool, inputFormat iqfmt.Format) error {
	logger := res.logger().Named("source")
	scratch := make([]byte, PipelineChunkBaseSamples*inputFormat.BytesPerPair())

	for {
		select {
		case <-ctx.Done():
			if !rawPassthrough {
				ensureTerminator(free, out)
			}
			return nil
		default:
		}

		chunk, haveChunk := free.TryDequeue()

		var (
			target []byte
			max    int
		)
		if haveChunk {
			if rawPassthrough {
				target, max = chunk.FinalOutput, PipelineChunkBaseSamples
			} else {
				target, max = chunk.RawInput, PipelineChunkBaseSamples
			}
		} else {
			target, max = scratch, PipelineChunkBaseSamples
		}

		n, err := source.ReadBlock(target, max)
		res.Heartbeat()

		if !haveChunk {
			if n > 0 {
				res.metrics.recordOverrun()
				logger.Warn("pipeline stalled: free queue empty, burst dropped")
			}
		} else if n > 0 {
			chunk.FramesRead = n
			chunk.PacketSampleFormat = inputFormat
			if rawPassthrough {
				nBytes := n * inputFormat.BytesPerPair()
				if written := sinkRing.Write(chunk.FinalOutput[:nBytes]); written != nBytes {
					res.metrics.recordOverrun()
					logger.Warn("sink ring overrun in passthrough mode")
				}
				free.Enqueue(chunk)
			} else {
				out.Enqueue(chunk)
			}
		} else {
			free.Enqueue(chunk)
		}

		if errors.Is(err, io.EOF) {
			if rawPassthrough {
				sinkRing.SignalEndOfStream()
			} else {
				ensureTerminator(free, out)
			}
			return nil
		}
		if err != nil {
			res.Shutdown(err)
			return err
		}
	}
}

// runBufferedCapture drives spec.md §4.5's BUFFERED_SDR capture half: each
// burst is serialized as a framed data packet onto sourceRing,
// non-blocking; an overrun is logged and the burst dropped.
func runBufferedCapture(ctx context.Context, res *Resources, source SourceModule, sourceRing *RingBuffer, inputFormat iqfmt.Format) error {
	logger := res.logger().Named("source")
	scratch := make([]byte, PipelineChunkBaseSamples*inputFormat.BytesPerPair())

	for {
		select {
		case <-ctx.Done():
			sourceRing.SignalShutdown()
			return nil
		default:
		}

		n, err := source.ReadBlock(scratch, PipelineChunkBaseSamples)
		res.Heartbeat()

		if n > 0 {
			payload := scratch[:n*inputFormat.BytesPerPair()]
			if !WriteDataPacket(sourceRing, inputFormat, uint32(n), payload) {
				res.metrics.recordOverrun()
				logger.Warn("source ring overrun, burst dropped")
			}
		}

		if resetter, ok := source.(StreamResetSignaler); ok && resetter.PollStreamReset() {
			if !WriteResetPacket(sourceRing) {
				res.metrics.recordOverrun()
				logger.Warn("source ring overrun, reset marker dropped")
			}
		}

		if errors.Is(err, io.EOF) {
			sourceRing.SignalEndOfStream()
			return nil
		}
		if err != nil {
			res.Shutdown(err)
			return err
		}
	}
}

// runBufferedReader drives spec.md §4.5's BUFFERED_SDR reader half: it
// deframes sourceRing back into chunks, classifying each packet as a
// discontinuity event, a clean end, a fatal parse error, or ordinary data.
func runBufferedReader(res *Resources, sourceRing *RingBuffer, free, out *ChunkQueue) error {
	logger := res.logger().Named("reader")
	temp := make([]byte, 2*PipelineChunkBaseSamples*2)

	for {
		chunk, ok := free.Dequeue()
		if !ok {
			return nil
		}

		frames, isReset, err := ReadPacket(sourceRing, chunk, temp, logger)
		if err != nil {
			free.Enqueue(chunk)
			res.Shutdown(err)
			return err
		}

		if isReset {
			chunk.Reset()
			chunk.StreamDiscontinuityEvent = true
			out.Enqueue(chunk)
			continue
		}

		if frames == 0 {
			chunk.Reset()
			chunk.IsLastChunk = true
			out.Enqueue(chunk)
			return nil
		}

		out.Enqueue(chunk)
	}
}

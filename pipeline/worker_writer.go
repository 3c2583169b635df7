package pipeline

import (
	"fmt"

	"go.uber.org/zap"
)

// ErrShortWrite is returned by the paced writer when the sink accepts
// fewer bytes than handed to it — a fatal external I/O failure in paced
// mode (spec.md §7).
var ErrShortWrite = fmt.Errorf("pipeline: short write to sink")

// runPacedWriter implements the paced half of spec.md §4.9: it drains the
// sink-side ring IOOutputWriterChunkSize bytes at a time and hands them to
// sink.Write, reporting progress on each non-empty read, until the ring
// reports end-of-stream/shutdown.
func runPacedWriter(res *Resources, sink SinkModule, ring *RingBuffer) error {
	logger := res.logger().Named("writer")
	buf := make([]byte, IOOutputWriterChunkSize)

	for {
		n := ring.Read(buf)
		if n == 0 {
			return nil
		}

		written, err := sink.Write(buf[:n])
		if err != nil {
			logger.Error("sink write failed", zap.Error(err))
			res.Shutdown(err)
			return err
		}
		if written != n {
			logger.Error("short write to sink", zap.Int("wanted", n), zap.Int("wrote", written))
			res.Shutdown(ErrShortWrite)
			return ErrShortWrite
		}

		res.ReportProgress(0, int64(written))
	}
}

// runChunkDirectWriter implements the chunk-direct half of spec.md §4.9:
// it dequeues chunks from in, writes their final_output bytes to sink,
// and returns every chunk to free. A short write is treated as an orderly
// shutdown (spec.md §7's "the stdout reader closed the pipe"), not an
// error.
func runChunkDirectWriter(res *Resources, sink SinkModule, outFormat int, in, free *ChunkQueue) error {
	logger := res.logger().Named("writer")

	for {
		chunk, ok := in.Dequeue()
		if !ok {
			return nil
		}

		if chunk.StreamDiscontinuityEvent {
			free.Enqueue(chunk)
			continue
		}
		if chunk.IsLastChunk {
			free.Enqueue(chunk)
			return nil
		}

		n := chunk.FramesToWrite * outFormat
		written, err := sink.Write(chunk.FinalOutput[:n])
		free.Enqueue(chunk)
		if err != nil {
			logger.Error("sink write failed", zap.Error(err))
			res.Shutdown(err)
			return err
		}
		if written != n {
			logger.Info("short write, treating as orderly shutdown")
			res.Shutdown(nil)
			return nil
		}

		res.ReportProgress(int64(chunk.FramesToWrite), int64(written))
	}
}

package pipeline

import "github.com/rf-tools/iqpipe/dsp"

// runIQOptimizer implements spec.md §4.10: it dequeues sample-copy chunks
// the pre-processor scheduled, runs one refinement pass over them, and
// returns them to the free queue. It exits when in shuts down.
func runIQOptimizer(optimizer *dsp.IQOptimizer, in, free *ChunkQueue) error {
	for {
		chunk, ok := in.Dequeue()
		if !ok {
			return nil
		}
		optimizer.Measure(chunk.ComplexA[:chunk.FramesRead])
		free.Enqueue(chunk)
	}
}

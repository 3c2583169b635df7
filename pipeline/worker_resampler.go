package pipeline

// runResampler implements spec.md §4.7: the configured ratio conversion,
// then the ping-pong swap so the next stage reads CurrentIn. It only runs
// when a resampler is configured; with no resampler the pre-processor does
// the copy and swap itself.
func runResampler(stages *dspStages, in, out *ChunkQueue) error {
	for {
		chunk, ok := in.Dequeue()
		if !ok {
			return nil
		}

		if chunk.IsLastChunk {
			out.Enqueue(chunk)
			return nil
		}

		if chunk.StreamDiscontinuityEvent {
			stages.resetResamplerState()
			out.Enqueue(chunk)
			continue
		}

		chunk.CurrentIn = chunk.ComplexA
		chunk.CurrentOut = chunk.ComplexB

		// This worker only ever runs when stages.resampler != nil (see
		// orchestrator.go); the no-resample case is handled directly in
		// the pre-processor instead, since no resampler worker exists to
		// do it here.
		n := stages.resampler.Process(chunk.CurrentIn[:chunk.FramesRead], chunk.CurrentOut)
		chunk.FramesToWrite = n

		chunk.CurrentIn, chunk.CurrentOut = chunk.ComplexB, chunk.ComplexA

		out.Enqueue(chunk)
	}
}

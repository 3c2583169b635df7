package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Run builds the worker graph for cfg, runs it to completion, and tears
// down in reverse order — spec.md §4.12's single `run(context) -> success`
// orchestrator operation.
func Run(ctx context.Context, cfg Config) error {
	res := NewResources(ctx, cfg)
	logger := res.logger().Named("orchestrator")

	summary, err := initializeSource(res.Context(), cfg.Source)
	if err != nil {
		logger.Error("source initialize failed", zap.Error(err))
		return err
	}
	res.setState(lifecycleSourceInit)
	res.SetTotalFrames(summary.TotalFrames)

	sourceRate := summary.SampleRate
	targetRate := sourceRate
	if !cfg.NoResample && cfg.TargetRate != 0 {
		targetRate = cfg.TargetRate
	}

	if err := cfg.Validate(sourceRate); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		cfg.Source.Cleanup()
		return err
	}

	stages, err := buildDSPStages(cfg, sourceRate, targetRate)
	if err != nil {
		logger.Error("failed to build DSP stages", zap.Error(err))
		cfg.Source.Cleanup()
		return err
	}
	res.setState(lifecycleDSP)

	ratio := 1.0
	if sourceRate != 0 {
		ratio = float64(targetRate) / float64(sourceRate)
	}
	pool, err := NewChunkPool(PoolConfig{
		InputFormat:     cfg.InputFormat,
		OutputFormat:    cfg.OutputFormat,
		ResampleRatio:   ratio,
		FilterBlockSize: stages.largestFilterBlockSize(),
	})
	if err != nil {
		logger.Error("failed to allocate chunk pool", zap.Error(err))
		cfg.Source.Cleanup()
		return err
	}
	res.Pool = pool
	res.setState(lifecyclePool)

	runCtx := res.Context()

	free := NewChunkQueue(runCtx, PipelineNumChunks)
	for _, c := range pool.Chunks() {
		free.Enqueue(c)
	}
	qReaderOut := NewChunkQueue(runCtx, PipelineNumChunks)
	qPreOut := NewChunkQueue(runCtx, PipelineNumChunks)
	qResamplerOut := NewChunkQueue(runCtx, PipelineNumChunks)
	qWriterIn := NewChunkQueue(runCtx, PipelineNumChunks)
	var qIQOpt *ChunkQueue
	if cfg.IQCorrectionEnable && !cfg.RawPassthrough {
		qIQOpt = NewChunkQueue(runCtx, PipelineNumChunks)
	}
	res.setState(lifecycleQueues)

	var sourceRing *RingBuffer
	if cfg.Mode == BufferedSDR {
		sourceRing = NewRingBuffer(IOSDRInputBufferBytes)
	}
	pacingRequired := cfg.RawPassthrough || cfg.Sink.PacingRequired()
	var sinkRing *RingBuffer
	if pacingRequired {
		sinkRing = NewRingBuffer(IOOutputWriterBufferBytes)
	}
	res.setState(lifecycleRings)

	if err := cfg.Sink.Open(runCtx, res); err != nil {
		logger.Error("failed to open sink", zap.Error(err))
		cfg.Source.Cleanup()
		return err
	}
	res.setState(lifecycleSinkOpen)

	group, groupCtx := errgroup.WithContext(runCtx)

	switch cfg.Mode {
	case FileProcessing:
		group.Go(func() error {
			return runFileProcessingSource(res, cfg.Source, free, qReaderOut, sinkRing, cfg.RawPassthrough, cfg.InputFormat)
		})
	case RealtimeSDR:
		group.Go(func() error {
			return runRealtimeSource(groupCtx, res, cfg.Source, free, qReaderOut, sinkRing, cfg.RawPassthrough, cfg.InputFormat)
		})
	case BufferedSDR:
		group.Go(func() error {
			return runBufferedCapture(groupCtx, res, cfg.Source, sourceRing, cfg.InputFormat)
		})
		group.Go(func() error {
			return runBufferedReader(res, sourceRing, free, qReaderOut)
		})
	}

	if cfg.Mode == RealtimeSDR || cfg.Mode == BufferedSDR {
		group.Go(func() error {
			return runWatchdog(groupCtx, res, cfg.WatchdogThreshold)
		})

		// A source parked in a genuinely blocking ReadBlock call (the
		// synchronous-read driver case, spec.md §5) would otherwise never
		// notice groupCtx was cancelled; StopStream is the one hook that
		// can reach in and interrupt it. Safe to call redundantly once the
		// source has already returned on its own.
		go func() {
			<-groupCtx.Done()
			cfg.Source.StopStream()
		}()
	}

	if !cfg.RawPassthrough {
		if qIQOpt != nil {
			group.Go(func() error {
				return runIQOptimizer(stages.iqOptimizer, qIQOpt, free)
			})
		}

		group.Go(func() error {
			return runPreProcessor(res, stages, cfg.Gain, qReaderOut, qPreOut, free, qIQOpt)
		})

		postIn := qPreOut
		if stages.resampler != nil {
			group.Go(func() error {
				return runResampler(stages, qPreOut, qResamplerOut)
			})
			postIn = qResamplerOut
		}

		group.Go(func() error {
			return runPostProcessor(res, stages, cfg.OutputFormat, postIn, qWriterIn, free, sinkRing)
		})
	}

	if sinkRing != nil {
		group.Go(func() error {
			return runPacedWriter(res, cfg.Sink, sinkRing)
		})
	} else {
		group.Go(func() error {
			return runChunkDirectWriter(res, cfg.Sink, cfg.OutputFormat.BytesPerPair(), qWriterIn, free)
		})
	}

	res.setState(lifecycleWorkers)

	waitErr := group.Wait()

	sinkCloseErr := cfg.Sink.Close()
	sourceCleanupErr := cfg.Source.Cleanup()
	if sinkCloseErr != nil {
		logger.Warn("error closing sink", zap.Error(sinkCloseErr))
	}
	if sourceCleanupErr != nil {
		logger.Warn("error cleaning up source", zap.Error(sourceCleanupErr))
	}

	if waitErr != nil && !errors.Is(waitErr, context.Canceled) {
		return waitErr
	}
	// spec.md §7: success is reported when either end-of-stream fully
	// drained or shutdown was requested without error_occurred being set.
	return res.Err()
}

// initializeSource calls source.Initialize bounded by SDRInitializeTimeout
// (spec.md §5: "a hung driver cannot stall startup indefinitely").
func initializeSource(ctx context.Context, source SourceModule) (SummaryInfo, error) {
	initCtx, cancel := context.WithTimeout(ctx, SDRInitializeTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- source.Initialize(initCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			return SummaryInfo{}, err
		}
		return source.GetSummaryInfo(), nil
	case <-initCtx.Done():
		return SummaryInfo{}, ErrInitializeTimeout
	}
}

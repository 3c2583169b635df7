package pipeline

import (
	"fmt"

	"hz.tools/rf"

	"github.com/rf-tools/iqpipe/dsp"
)

// dspStages bundles every DSP component handle a run needs, constructed
// once by the orchestrator during lifecycleDSP and shared by exactly one
// owning worker each (the pre-processor owns preShift/preFilters/dcBlock/
// iqCorrector, the resampler worker owns resampler, the post-processor
// owns postShift/postFilters/agc). The one exception is iqCoeffStore,
// which IQCorrector (read) and IQOptimizer (write) share by design
// (spec.md §5(a)).
type dspStages struct {
	dcBlock  *dsp.DCBlock
	iqCoeffStore *dsp.IQCoefficientStore
	iqCorrector  *dsp.IQCorrector
	iqOptimizer  *dsp.IQOptimizer

	preShift  *dsp.Shifter
	postShift *dsp.Shifter

	preFilters  []*dsp.Filter
	postFilters []*dsp.Filter

	resampler *dsp.Resampler

	agc *dsp.AGC
}

// buildDSPStages constructs every DSP component cfg's knobs call for.
// sourceRate/targetRate are already resolved (targetRate == sourceRate
// when resampling is disabled).
func buildDSPStages(cfg Config, sourceRate, targetRate uint) (*dspStages, error) {
	s := &dspStages{}

	if cfg.DCBlockEnable {
		s.dcBlock = dsp.NewDCBlock(0.9999)
	}

	if cfg.IQCorrectionEnable {
		s.iqCoeffStore = dsp.NewIQCoefficientStore()
		s.iqCorrector = dsp.NewIQCorrector(s.iqCoeffStore)
		step := cfg.IQOptimizerStep
		if step == 0 {
			step = 0.05
		}
		s.iqOptimizer = dsp.NewIQOptimizer(s.iqCoeffStore, step)
	}

	if cfg.FreqShiftHz != 0 {
		rate := sourceRate
		if cfg.ShiftAfterResample {
			rate = targetRate
		}
		shifter := dsp.NewShifter(rf.Hz(cfg.FreqShiftHz), rate)
		if cfg.ShiftAfterResample {
			s.postShift = shifter
		} else {
			s.preShift = shifter
		}
	}

	for _, fr := range cfg.FilterRequests {
		f, err := dsp.NewFilter(fr.Kind, fr.Hint, fr.NumTaps, fr.CutoffLow, fr.CutoffHigh)
		if err != nil {
			return nil, fmt.Errorf("pipeline: building filter: %w", err)
		}
		if fr.PostResample {
			s.postFilters = append(s.postFilters, f)
		} else {
			s.preFilters = append(s.preFilters, f)
		}
	}

	if !cfg.NoResample && targetRate != sourceRate && sourceRate != 0 {
		ratio := float64(targetRate) / float64(sourceRate)
		r, err := dsp.NewResampler(ratio)
		if err != nil {
			return nil, err
		}
		s.resampler = r
	}

	if cfg.AGCEnable {
		target := cfg.AGCTargetRMS
		if target == 0 {
			target = 0.5
		}
		attack := cfg.AGCAttack
		if attack == 0 {
			attack = 0.2
		}
		release := cfg.AGCRelease
		if release == 0 {
			release = 0.01
		}
		s.agc = dsp.NewAGC(target, attack, release)
	}

	return s, nil
}

// largestFilterBlockSize returns the block size of the largest FFT-backed
// filter among pre and post filters, or 0 if none is FFT-backed — the
// input to ChunkPool sizing (spec.md §4.1).
func (s *dspStages) largestFilterBlockSize() int {
	max := 0
	for _, f := range append(append([]*dsp.Filter{}, s.preFilters...), s.postFilters...) {
		if !f.IsFFT() {
			continue
		}
		if n := f.NumTaps(); n > max {
			max = n
		}
	}
	return max
}

func (s *dspStages) resetPreProcessorState() {
	if s.dcBlock != nil {
		s.dcBlock.Reset()
	}
	if s.preShift != nil {
		s.preShift.Reset()
	}
	for _, f := range s.preFilters {
		f.Reset()
	}
}

func (s *dspStages) resetResamplerState() {
	if s.resampler != nil {
		s.resampler.Reset()
	}
}

func (s *dspStages) resetPostProcessorState() {
	for _, f := range s.postFilters {
		f.Reset()
	}
	if s.postShift != nil {
		s.postShift.Reset()
	}
	if s.agc != nil {
		s.agc.Reset()
	}
}

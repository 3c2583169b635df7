// Package live adapts an sdr.Receiver (mock.New, rtltcp.Dial, or any other
// hz.tools/sdr driver) into a pipeline.SourceModule, for REALTIME_SDR and
// BUFFERED_SDR mode.
package live

import (
	"context"
	"fmt"
	"sync"

	sdr "github.com/rf-tools/iqpipe"
	"github.com/rf-tools/iqpipe/iqfmt"
	"github.com/rf-tools/iqpipe/pipeline"
	"hz.tools/rf"
)

// nativeFormat maps an sdr.SampleFormat onto the iqfmt.Format whose wire
// encoding matches the driver's native byte layout (interleaved, native
// endian) — the two enums describe the same four wire shapes from two
// different corners of the module.
func nativeFormat(sf sdr.SampleFormat) (iqfmt.Format, error) {
	switch sf {
	case sdr.SampleFormatU8:
		return iqfmt.FormatU8C, nil
	case sdr.SampleFormatI8:
		return iqfmt.FormatI8C, nil
	case sdr.SampleFormatI16:
		return iqfmt.FormatI16C, nil
	case sdr.SampleFormatC64:
		return iqfmt.FormatF32C, nil
	default:
		return iqfmt.FormatUnknown, fmt.Errorf("live: unsupported sdr sample format %s", sf)
	}
}

// Source drives an sdr.Receiver through pipeline.SourceModule. CenterFreq
// and SampleRate are applied during Initialize; callers that need finer
// device configuration should configure the sdr.Receiver before handing it
// to New.
type Source struct {
	dev         sdr.Receiver
	centerFreq  float64
	sampleRate  uint
	gainStage   string
	gain        float32
	autoGain    bool

	mu      sync.Mutex
	rc      sdr.ReadCloser
	format  iqfmt.Format
	stopped bool
}

// Config configures the device before streaming starts.
type Config struct {
	CenterFrequencyHz float64
	SampleRate        uint
	AutoGain          bool
	GainStage         string
	Gain              float32
}

// New wraps dev (as returned by mock.New or rtltcp.Dial) for use as a
// pipeline.SourceModule.
func New(dev sdr.Receiver, cfg Config) *Source {
	return &Source{
		dev:        dev,
		centerFreq: cfg.CenterFrequencyHz,
		sampleRate: cfg.SampleRate,
		autoGain:   cfg.AutoGain,
		gainStage:  cfg.GainStage,
		gain:       cfg.Gain,
	}
}

// Initialize implements pipeline.SourceModule: it configures frequency,
// sample rate, and gain, then opens the receive stream.
func (s *Source) Initialize(ctx context.Context) error {
	if s.sampleRate != 0 {
		if err := s.dev.SetSampleRate(s.sampleRate); err != nil {
			return fmt.Errorf("live: SetSampleRate: %w", err)
		}
	}
	if s.centerFreq != 0 {
		if err := s.dev.SetCenterFrequency(rf.Hz(s.centerFreq)); err != nil {
			return fmt.Errorf("live: SetCenterFrequency: %w", err)
		}
	}
	if s.autoGain {
		if err := s.dev.SetAutomaticGain(true); err != nil {
			return fmt.Errorf("live: SetAutomaticGain: %w", err)
		}
	} else if s.gainStage != "" {
		stages, err := s.dev.GetGainStages()
		if err != nil {
			return fmt.Errorf("live: GetGainStages: %w", err)
		}
		stage, ok := stages.Map()[s.gainStage]
		if !ok {
			return fmt.Errorf("live: unknown gain stage %q", s.gainStage)
		}
		if err := s.dev.SetGain(stage, s.gain); err != nil {
			return fmt.Errorf("live: SetGain: %w", err)
		}
	}

	format, err := nativeFormat(s.dev.SampleFormat())
	if err != nil {
		return err
	}

	rc, err := s.dev.StartRx()
	if err != nil {
		return fmt.Errorf("live: StartRx: %w", err)
	}

	s.mu.Lock()
	s.rc = rc
	s.format = format
	s.mu.Unlock()
	return nil
}

// ReadBlock implements pipeline.SourceModule: it allocates a typed
// sdr.Samples view, reads one burst through it, and copies the native
// bytes out to buf via sdr.UnsafeSamplesAsBytes.
func (s *Source) ReadBlock(buf []byte, maxFrames int) (int, error) {
	s.mu.Lock()
	rc := s.rc
	s.mu.Unlock()
	if rc == nil {
		return 0, fmt.Errorf("live: ReadBlock called before Initialize")
	}

	samples, err := sdr.MakeSamples(rc.SampleFormat(), maxFrames)
	if err != nil {
		return 0, err
	}

	n, err := rc.Read(samples)
	if n > 0 {
		raw, convErr := sdr.UnsafeSamplesAsBytes(samples.Slice(0, n))
		if convErr != nil {
			return 0, convErr
		}
		copy(buf, raw)
	}
	return n, err
}

// StopStream implements pipeline.SourceModule by closing the read stream,
// which unblocks a ReadBlock call parked in rc.Read.
func (s *Source) StopStream() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.rc == nil {
		return
	}
	s.stopped = true
	s.rc.Close()
}

// Cleanup implements pipeline.SourceModule.
func (s *Source) Cleanup() error {
	s.StopStream()
	return s.dev.Close()
}

// GetSummaryInfo implements pipeline.SourceModule. Live sources never have
// a known total frame count.
func (s *Source) GetSummaryInfo() pipeline.SummaryInfo {
	rate, _ := s.dev.GetSampleRate()
	return pipeline.SummaryInfo{
		SampleRate:  rate,
		TotalFrames: -1,
	}
}

// HasKnownLength implements pipeline.SourceModule.
func (*Source) HasKnownLength() bool {
	return false
}

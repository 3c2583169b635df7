package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rf-tools/iqpipe/dsp"
	"github.com/rf-tools/iqpipe/pipeline"
)

// yamlFilterRequest mirrors pipeline.FilterRequest for YAML decoding, since
// dsp.FilterKind/dsp.FilterHint are plain ints with no YAML tag of their
// own.
type yamlFilterRequest struct {
	Kind         string  `yaml:"kind"`
	Hint         string  `yaml:"hint"`
	NumTaps      int     `yaml:"num_taps"`
	CutoffLow    float64 `yaml:"cutoff_low"`
	CutoffHigh   float64 `yaml:"cutoff_high"`
	PostResample bool    `yaml:"post_resample"`
}

// fileConfig is the YAML preset shape an optional -config file decodes
// into; every field here except filter_requests also has a CLI flag
// equivalent (filter requests come only from the preset), and a flag
// explicitly set on the command line overrides the loaded preset (the
// preset supplies defaults, it is not the only configuration path).
type fileConfig struct {
	Mode string `yaml:"mode"`

	Source string `yaml:"source"`
	Sink   string `yaml:"sink"`

	InputFormat  string `yaml:"input_format"`
	OutputFormat string `yaml:"output_format"`

	TargetRate uint `yaml:"target_rate"`
	NoResample bool `yaml:"no_resample"`

	Gain float32 `yaml:"gain"`

	FreqShiftHz        float64 `yaml:"freq_shift_hz"`
	ShiftAfterResample bool    `yaml:"shift_after_resample"`

	DCBlockEnable      bool    `yaml:"dc_block_enable"`
	IQCorrectionEnable bool    `yaml:"iq_correction_enable"`
	IQOptimizerStep    float32 `yaml:"iq_optimizer_step"`

	AGCEnable    bool    `yaml:"agc_enable"`
	AGCTargetRMS float32 `yaml:"agc_target_rms"`
	AGCAttack    float32 `yaml:"agc_attack"`
	AGCRelease   float32 `yaml:"agc_release"`

	FilterRequests []yamlFilterRequest `yaml:"filter_requests"`

	RawPassthrough bool `yaml:"raw_passthrough"`

	WatchdogThreshold time.Duration `yaml:"watchdog_threshold"`

	InputPath  string `yaml:"input_path"`
	OutputPath string `yaml:"output_path"`
	SampleRate uint   `yaml:"sample_rate"`

	RTLTCPAddr        string  `yaml:"rtltcp_addr"`
	CenterFrequencyHz float64 `yaml:"center_frequency_hz"`
}

func loadFileConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("iqpipe: reading config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("iqpipe: parsing config %s: %w", path, err)
	}
	return &fc, nil
}

func parseFilterKind(s string) (dsp.FilterKind, error) {
	switch s {
	case "lowpass", "":
		return dsp.FilterLowpass, nil
	case "highpass":
		return dsp.FilterHighpass, nil
	case "passband":
		return dsp.FilterPassband, nil
	case "stopband":
		return dsp.FilterStopband, nil
	default:
		return 0, fmt.Errorf("iqpipe: unknown filter kind %q", s)
	}
}

func parseFilterHint(s string) (dsp.FilterHint, error) {
	switch s {
	case "auto", "":
		return dsp.FilterAuto, nil
	case "fir":
		return dsp.FilterFIR, nil
	case "fft":
		return dsp.FilterFFT, nil
	default:
		return 0, fmt.Errorf("iqpipe: unknown filter hint %q", s)
	}
}

func parseMode(s string) (pipeline.PipelineMode, error) {
	switch s {
	case "file", "file-processing", "":
		return pipeline.FileProcessing, nil
	case "realtime", "realtime-sdr":
		return pipeline.RealtimeSDR, nil
	case "buffered", "buffered-sdr":
		return pipeline.BufferedSDR, nil
	default:
		return 0, fmt.Errorf("iqpipe: unknown mode %q", s)
	}
}

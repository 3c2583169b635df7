// Command iqpipe drives the concurrent I/Q pipeline from the command line:
// flags (and an optional YAML preset) build a pipeline.Config, which
// pipeline.Run then executes to completion. Argument parsing and preset
// loading stay intentionally thin; every interesting decision lives in the
// pipeline package itself.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rf-tools/iqpipe/debug"
	"github.com/rf-tools/iqpipe/iqfmt"
	"github.com/rf-tools/iqpipe/pipeline"
	"github.com/rf-tools/iqpipe/rtltcp"
	sinkraw "github.com/rf-tools/iqpipe/sink/rawfile"
	"github.com/rf-tools/iqpipe/sink/stdout"
	sinkwav "github.com/rf-tools/iqpipe/sink/wavfile"
	"github.com/rf-tools/iqpipe/source/live"
	sourceraw "github.com/rf-tools/iqpipe/source/rawfile"
	sourcewav "github.com/rf-tools/iqpipe/source/wavfile"
)

type flags struct {
	configPath string
	version    bool

	mode   string
	source string
	sink   string

	inputPath    string
	outputPath   string
	inputFormat  string
	outputFormat string
	sampleRate   uint

	targetRate uint
	noResample bool

	gain float32

	freqShiftHz        float64
	shiftAfterResample bool

	dcBlockEnable      bool
	iqCorrectionEnable bool
	iqOptimizerStep    float32

	agcEnable    bool
	agcTargetRMS float32
	agcAttack    float32
	agcRelease   float32

	rawPassthrough bool

	watchdogThreshold time.Duration

	rtltcpAddr        string
	centerFrequencyHz float64
}

var f flags

var rootCmd = &cobra.Command{
	Use:   "iqpipe",
	Short: "Concurrent I/Q sample streaming DSP pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd)
	},
}

func init() {
	fl := rootCmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "optional YAML preset, overridden by any flag explicitly set")
	fl.BoolVar(&f.version, "version", false, "print build info (sample formats, SIMD backend, host endianness) and exit")

	fl.StringVar(&f.mode, "mode", "file", "pipeline mode: file, realtime, buffered")
	fl.StringVar(&f.source, "source", "rawfile", "source kind: rawfile, wavfile, rtltcp")
	fl.StringVar(&f.sink, "sink", "stdout", "sink kind: rawfile, wavfile, stdout")

	fl.StringVar(&f.inputPath, "input", "", "input file path (rawfile/wavfile sources)")
	fl.StringVar(&f.outputPath, "output", "", "output file path (rawfile/wavfile sinks)")
	fl.StringVar(&f.inputFormat, "input-format", "I16C", "raw input wire format tag (e.g. I16C, U8C, F32C)")
	fl.StringVar(&f.outputFormat, "output-format", "I16C", "raw output wire format tag")
	fl.UintVar(&f.sampleRate, "sample-rate", 0, "source sample rate in Hz (rawfile and rtltcp sources; ignored by the wavfile source)")

	fl.UintVar(&f.targetRate, "target-rate", 0, "resample target rate in Hz (0 = source rate)")
	fl.BoolVar(&f.noResample, "no-resample", false, "bypass the resampler entirely")

	fl.Float32Var(&f.gain, "gain", 1.0, "linear gain applied in the pre-processor")

	fl.Float64Var(&f.freqShiftHz, "freq-shift-hz", 0, "NCO frequency shift in Hz")
	fl.BoolVar(&f.shiftAfterResample, "shift-after-resample", false, "apply the frequency shift after resampling instead of before")

	fl.BoolVar(&f.dcBlockEnable, "dc-block", false, "enable the DC-blocking IIR stage")
	fl.BoolVar(&f.iqCorrectionEnable, "iq-correction", false, "enable I/Q imbalance correction and its optimizer")
	fl.Float32Var(&f.iqOptimizerStep, "iq-optimizer-step", 0, "I/Q optimizer step size (0 = 0.05 default)")

	fl.BoolVar(&f.agcEnable, "agc", false, "enable automatic gain control")
	fl.Float32Var(&f.agcTargetRMS, "agc-target-rms", 0, "AGC target RMS level (0 = 0.5 default)")
	fl.Float32Var(&f.agcAttack, "agc-attack", 0, "AGC attack time constant (0 = 0.2 default)")
	fl.Float32Var(&f.agcRelease, "agc-release", 0, "AGC release time constant (0 = 0.01 default)")

	fl.BoolVar(&f.rawPassthrough, "raw-passthrough", false, "bypass the DSP chain entirely, copying raw_input straight to the sink")

	fl.DurationVar(&f.watchdogThreshold, "watchdog-threshold", 5*time.Second, "max time an SDR source may go without a heartbeat before the watchdog fires")

	fl.StringVar(&f.rtltcpAddr, "rtltcp-addr", "", "rtl_tcp server address (live source)")
	fl.Float64Var(&f.centerFrequencyHz, "center-frequency-hz", 0, "center frequency in Hz (live source)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "iqpipe: %v\n", err)
		os.Exit(1)
	}
}

func runCommand(cmd *cobra.Command) error {
	if f.version {
		info := debug.ReadBuildInfo()
		fmt.Printf("iqpipe: sample formats %v, SIMD enabled=%v (backends %v), host endianness %v\n",
			info.SampleFormats, info.SIMD.Enabled, info.SIMD.Backends, info.HostEndianness)
		return nil
	}

	if f.configPath != "" {
		preset, err := loadFileConfig(f.configPath)
		if err != nil {
			return err
		}
		applyPreset(cmd, preset)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("iqpipe: building logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := buildConfig(logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return pipeline.Run(ctx, cfg)
}

// applyPreset fills in any flag the caller did NOT explicitly set with the
// YAML preset's value; flags take precedence over the preset.
func applyPreset(cmd *cobra.Command, fc *fileConfig) {
	changed := cmd.Flags().Changed
	if !changed("mode") && fc.Mode != "" {
		f.mode = fc.Mode
	}
	if !changed("source") && fc.Source != "" {
		f.source = fc.Source
	}
	if !changed("sink") && fc.Sink != "" {
		f.sink = fc.Sink
	}
	if !changed("input") && fc.InputPath != "" {
		f.inputPath = fc.InputPath
	}
	if !changed("output") && fc.OutputPath != "" {
		f.outputPath = fc.OutputPath
	}
	if !changed("input-format") && fc.InputFormat != "" {
		f.inputFormat = fc.InputFormat
	}
	if !changed("output-format") && fc.OutputFormat != "" {
		f.outputFormat = fc.OutputFormat
	}
	if !changed("sample-rate") && fc.SampleRate != 0 {
		f.sampleRate = fc.SampleRate
	}
	if !changed("target-rate") && fc.TargetRate != 0 {
		f.targetRate = fc.TargetRate
	}
	if !changed("no-resample") && fc.NoResample {
		f.noResample = fc.NoResample
	}
	if !changed("gain") && fc.Gain != 0 {
		f.gain = fc.Gain
	}
	if !changed("freq-shift-hz") && fc.FreqShiftHz != 0 {
		f.freqShiftHz = fc.FreqShiftHz
	}
	if !changed("shift-after-resample") && fc.ShiftAfterResample {
		f.shiftAfterResample = fc.ShiftAfterResample
	}
	if !changed("dc-block") && fc.DCBlockEnable {
		f.dcBlockEnable = fc.DCBlockEnable
	}
	if !changed("iq-correction") && fc.IQCorrectionEnable {
		f.iqCorrectionEnable = fc.IQCorrectionEnable
	}
	if !changed("iq-optimizer-step") && fc.IQOptimizerStep != 0 {
		f.iqOptimizerStep = fc.IQOptimizerStep
	}
	if !changed("agc") && fc.AGCEnable {
		f.agcEnable = fc.AGCEnable
	}
	if !changed("agc-target-rms") && fc.AGCTargetRMS != 0 {
		f.agcTargetRMS = fc.AGCTargetRMS
	}
	if !changed("agc-attack") && fc.AGCAttack != 0 {
		f.agcAttack = fc.AGCAttack
	}
	if !changed("agc-release") && fc.AGCRelease != 0 {
		f.agcRelease = fc.AGCRelease
	}
	if !changed("raw-passthrough") && fc.RawPassthrough {
		f.rawPassthrough = fc.RawPassthrough
	}
	if !changed("watchdog-threshold") && fc.WatchdogThreshold != 0 {
		f.watchdogThreshold = fc.WatchdogThreshold
	}
	if !changed("rtltcp-addr") && fc.RTLTCPAddr != "" {
		f.rtltcpAddr = fc.RTLTCPAddr
	}
	if !changed("center-frequency-hz") && fc.CenterFrequencyHz != 0 {
		f.centerFrequencyHz = fc.CenterFrequencyHz
	}
	filterRequests = fc.FilterRequests
}

var filterRequests []yamlFilterRequest

func buildConfig(logger *zap.Logger) (pipeline.Config, error) {
	mode, err := parseMode(f.mode)
	if err != nil {
		return pipeline.Config{}, err
	}
	inputFormat, err := iqfmt.ParseFormat(f.inputFormat)
	if err != nil {
		return pipeline.Config{}, err
	}
	outputFormat, err := iqfmt.ParseFormat(f.outputFormat)
	if err != nil {
		return pipeline.Config{}, err
	}

	source, err := buildSource(inputFormat)
	if err != nil {
		return pipeline.Config{}, err
	}
	sink, err := buildSink(outputFormat)
	if err != nil {
		return pipeline.Config{}, err
	}

	frs := make([]pipeline.FilterRequest, 0, len(filterRequests))
	for _, yfr := range filterRequests {
		kind, err := parseFilterKind(yfr.Kind)
		if err != nil {
			return pipeline.Config{}, err
		}
		hint, err := parseFilterHint(yfr.Hint)
		if err != nil {
			return pipeline.Config{}, err
		}
		frs = append(frs, pipeline.FilterRequest{
			Kind:         kind,
			Hint:         hint,
			NumTaps:      yfr.NumTaps,
			CutoffLow:    yfr.CutoffLow,
			CutoffHigh:   yfr.CutoffHigh,
			PostResample: yfr.PostResample,
		})
	}

	return pipeline.Config{
		Mode:   mode,
		Source: source,
		Sink:   sink,

		InputFormat:  inputFormat,
		OutputFormat: outputFormat,

		TargetRate: f.targetRate,
		NoResample: f.noResample,

		Gain: f.gain,

		FreqShiftHz:        f.freqShiftHz,
		ShiftAfterResample: f.shiftAfterResample,

		DCBlockEnable:      f.dcBlockEnable,
		IQCorrectionEnable: f.iqCorrectionEnable,
		IQOptimizerStep:    f.iqOptimizerStep,

		AGCEnable:    f.agcEnable,
		AGCTargetRMS: f.agcTargetRMS,
		AGCAttack:    f.agcAttack,
		AGCRelease:   f.agcRelease,

		FilterRequests: frs,

		RawPassthrough: f.rawPassthrough,

		WatchdogThreshold: f.watchdogThreshold,

		Logger: logger,
	}, nil
}

func buildSource(inputFormat iqfmt.Format) (pipeline.SourceModule, error) {
	switch f.source {
	case "rawfile", "":
		if f.inputPath == "" {
			return nil, fmt.Errorf("iqpipe: --input is required for --source=rawfile")
		}
		return sourceraw.New(f.inputPath, inputFormat, f.sampleRate), nil
	case "wavfile":
		if f.inputPath == "" {
			return nil, fmt.Errorf("iqpipe: --input is required for --source=wavfile")
		}
		return sourcewav.New(f.inputPath), nil
	case "rtltcp":
		if f.rtltcpAddr == "" {
			return nil, fmt.Errorf("iqpipe: --rtltcp-addr is required for --source=rtltcp")
		}
		client, err := rtltcp.Dial("tcp", f.rtltcpAddr)
		if err != nil {
			return nil, fmt.Errorf("iqpipe: dialing rtl_tcp at %s: %w", f.rtltcpAddr, err)
		}
		return live.New(client, live.Config{
			CenterFrequencyHz: f.centerFrequencyHz,
			SampleRate:        f.sampleRate,
		}), nil
	default:
		return nil, fmt.Errorf("iqpipe: unknown source kind %q", f.source)
	}
}

func buildSink(outputFormat iqfmt.Format) (pipeline.SinkModule, error) {
	switch f.sink {
	case "stdout", "":
		return stdout.Default(), nil
	case "rawfile":
		if f.outputPath == "" {
			return nil, fmt.Errorf("iqpipe: --output is required for --sink=rawfile")
		}
		return sinkraw.New(f.outputPath), nil
	case "wavfile":
		if f.outputPath == "" {
			return nil, fmt.Errorf("iqpipe: --output is required for --sink=wavfile")
		}
		rate := f.targetRate
		if rate == 0 {
			rate = f.sampleRate
		}
		return sinkwav.New(f.outputPath, int(rate)), nil
	default:
		return nil, fmt.Errorf("iqpipe: unknown sink kind %q", f.sink)
	}
}

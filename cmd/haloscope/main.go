package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cu-axion/haloscope-daq/digitizer"
	"github.com/cu-axion/haloscope-daq/digitizer/simsdk"
	"github.com/cu-axion/haloscope-daq/dsp"
	"github.com/cu-axion/haloscope-daq/internal/config"
	"github.com/cu-axion/haloscope-daq/pipeline"
	"github.com/cu-axion/haloscope-daq/spectrum"
	"github.com/cu-axion/haloscope-daq/store"
)

var rootCmd = &cobra.Command{
	Use:   "haloscope",
	Short: "Axion haloscope data-acquisition engine.",
}

var cfg config.Scan

func init() {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scan; with no vendor SDK linked, this drives the synthetic backend with no tone and no noise",
		Run:   func(cmd *cobra.Command, args []string) { run() },
	}
	addScanFlags(runCmd)
	rootCmd.AddCommand(runCmd)

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a scan against the synthetic digitizer backend",
		Run:   func(cmd *cobra.Command, args []string) { bench() },
	}
	addScanFlags(benchCmd)
	rootCmd.AddCommand(benchCmd)

	replayCmd := &cobra.Command{
		Use:   "replay bufferfile",
		Short: "Run the FFT extraction stage on a saved raw buffer dump and print or save the resulting spectrum",
		Run:   func(cmd *cobra.Command, args []string) { replay(args[0]) },
	}
	replayCmd.Flags().Float64Var(&cfg.FreqLOHz, "freq-lo", 0, "Local-oscillator frequency the buffer was captured at, in Hz")
	replayCmd.Flags().Float64VarP(&cfg.SampleRateHz, "sample-rate", "r", 20e6, "Sample rate the buffer was captured at, in Hz")
	replayCmd.Flags().StringVarP(&cfg.OutputDir, "output", "o", "", "If set, write the reprocessed spectrum as CSV to this path instead of printing a summary")
	rootCmd.AddCommand(replayCmd)
}

func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&cfg.FreqLOHz, "freq-lo", 0, "Initial local-oscillator frequency in Hz")
	cmd.Flags().Float64Var(&cfg.MaxIntegrationTimeSec, "max-integration-time", 0, "Maximum integration time per LO tuning in seconds before a STEP is forced (0 = unbounded)")
	cmd.Flags().Uint32VarP(&cfg.SamplesPerBuffer, "samples-per-buffer", "n", 65536, "FFT length / samples per buffer")
	cmd.Flags().Uint32VarP(&cfg.BufferCount, "buffer-count", "b", 0, "DMA buffer count (0 = auto)")
	cmd.Flags().Float64VarP(&cfg.SampleRateHz, "sample-rate", "r", 20e6, "Requested sample rate in Hz")
	cmd.Flags().IntVarP(&cfg.SubSpectraAveragingNumber, "sub-spectra-avg", "a", 8, "Sub-spectra averaged before emission")
	cmd.Flags().IntVar(&cfg.MinSpectraPerStep, "min-spectra-per-step", 10, "Minimum spectra acquired before a STEP/STOP is considered")
	cmd.Flags().Float64Var(&cfg.StepSizeMHz, "step-size-mhz", 1.0, "LO step size in MHz")
	cmd.Flags().IntVar(&cfg.NumSteps, "num-steps", 1, "Number of LO tuning steps")
	cmd.Flags().Float64Var(&cfg.TargetCoupling, "target-coupling", 0.002, "Target coupling used in SNR rescaling")
	cmd.Flags().Float64Var(&cfg.Threshold, "threshold", 0, "Exclusion threshold")
	cmd.Flags().StringVar(&cfg.SNRFilePath, "snr-file", "", "Path to the SNR calibration spectrum CSV")
	cmd.Flags().StringVar(&cfg.TargetCurveFile, "target-curve-file", "", "Path to the target coupling ratio curve CSV")
	cmd.Flags().StringVarP(&cfg.OutputDir, "output", "o", "output", "Output directory root")
	cmd.Flags().IntVar(&cfg.RebinWidth, "rebin-width", 1, "Rebinning block width")
	cmd.Flags().IntVar(&cfg.ConvolutionWidth, "convolution-width", 1, "Flat-kernel convolution width")
	cmd.Flags().Float64Var(&cfg.EdgeTrimFraction, "edge-trim-fraction", 0.02, "Fraction of bins trimmed from each edge before combining")
	cmd.Flags().Float64Var(&cfg.BaselineCutoffFrac, "baseline-cutoff", 0.05, "Baseline filter normalized cutoff")
	cmd.Flags().Float64Var(&cfg.BaselinePassbandRippleDB, "baseline-ripple-db", 1.0, "Baseline filter passband ripple in dB")
	cmd.Flags().Float64Var(&cfg.BaselineStopbandAttenuationDB, "baseline-stopband-db", 40.0, "Baseline filter stopband attenuation in dB")
}

func loadRunner(sdk digitizer.BoardSDK) *pipeline.Runner {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	snrSpectrum, err := store.LoadSpectrum(cfg.SNRFilePath)
	if err != nil {
		panic(err)
	}
	// codeBytesPerSample is 4: a 16-bit code on each of channel A and B
	// per complex sample.
	const codeBytesPerSample = 4
	bufferCount := digitizer.ResolveBufferCount(codeBytesPerSample, cfg.SamplesPerBuffer, cfg.BufferCount)

	pcfg := pipeline.Config{
		Digitizer: digitizer.Config{
			SamplesPerBuffer: cfg.SamplesPerBuffer,
			BufferCount:      bufferCount,
			Range:            digitizer.Range2V,
			SampleRateHz:     cfg.SampleRateHz,
		},
		FreqLOHz:                      cfg.FreqLOHz,
		DeltaFHz:                      cfg.SampleRateHz / float64(cfg.SamplesPerBuffer),
		MaxIntegrationTimeSec:         cfg.MaxIntegrationTimeSec,
		SubSpectraAveragingNumber:     cfg.SubSpectraAveragingNumber,
		BaselineCutoffFrac:            cfg.BaselineCutoffFrac,
		BaselinePassbandRippleDB:      cfg.BaselinePassbandRippleDB,
		BaselineStopbandAttenuationDB: cfg.BaselineStopbandAttenuationDB,
		SNRFilePath:                   cfg.SNRFilePath,
		TargetCoupling:                cfg.TargetCoupling,
		EdgeTrimFrac:                  cfg.EdgeTrimFraction,
		MinShots:                      cfg.MinSpectraPerStep,
		RebinWidth:                    cfg.RebinWidth,
		ConvWidth:                     cfg.ConvolutionWidth,
		Threshold:                     cfg.Threshold,
		NumSteps:                      cfg.NumSteps,
		StepSizeHz:                    cfg.StepSizeMHz * 1e6,
	}
	if cfg.TargetCurveFile != "" {
		curve, err := store.LoadSpectrum(cfg.TargetCurveFile)
		if err != nil {
			panic(err)
		}
		pcfg.TargetCurve = curve
	}

	runDir, err := store.RunDir(cfg.OutputDir, time.Now())
	if err != nil {
		panic(err)
	}
	pcfg.RunOutputDir = runDir

	r, err := pipeline.NewRunner(pcfg, sdk, spectrum.SNRCalibration{Spectrum: snrSpectrum}, nil, slog.Default())
	if err != nil {
		panic(err)
	}
	return r
}

func run() {
	sdk := simsdk.New(cfg.SampleRateHz, 0, 0, 0)
	fmt.Fprintln(os.Stderr, "no vendor SDK linked into this build; wire digitizer/atssdk to drive real hardware")
	r := loadRunner(sdk)
	if err := r.RunScan(context.Background()); err != nil {
		panic(err)
	}
}

func bench() {
	sdk := simsdk.New(cfg.SampleRateHz, cfg.SampleRateHz/8, 0.2, 1.0)
	r := loadRunner(sdk)
	if err := r.RunScan(context.Background()); err != nil {
		panic(err)
	}
}

// replay reruns the FFT extraction stage over a raw buffer dumped by a
// prior run and reports the resulting spectrum. It deliberately stops
// there rather than claiming the full processing chain: baseline
// tracking and SNR rescaling need the rolling state built up across
// many buffers at a tuning, which a single dumped buffer does not
// carry.
func replay(bufferFile string) {
	samples, err := store.LoadRawBuffer(bufferFile)
	if err != nil {
		panic(err)
	}
	fmt.Printf("loaded %d samples from %s\n", len(samples), bufferFile)

	deltaF := cfg.SampleRateHz / float64(len(samples))
	planner := dsp.NewFFTPlanner()
	fftOut := planner.Forward(samples)
	raw, _, err := spectrum.ExtractRaw(fftOut, cfg.FreqLOHz, deltaF)
	if err != nil {
		panic(err)
	}
	mean, stddev := spectrum.VectorStats(raw.Powers)
	fmt.Printf("reprocessed spectrum: %d bins, mean power %.6g, stddev %.6g\n", raw.Len(), mean, stddev)

	if cfg.OutputDir != "" {
		if err := store.SaveSpectrum(cfg.OutputDir, raw); err != nil {
			panic(err)
		}
		fmt.Printf("wrote reprocessed spectrum to %s\n", cfg.OutputDir)
	}
}

func main() {
	rootCmd.Execute()
}

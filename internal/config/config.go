// Package config defines the plain scalar configuration the core
// pipeline is handed, populated directly from cobra flags in
// cmd/haloscope. Configuration loading itself (files, environment,
// flag parsing) is an external collaborator per the specification's
// scope, so this package holds only the value type and a validation
// helper, following the teacher's own posture of populating
// package-level flag-backed values in main() rather than reaching for a
// config-loading library.
package config

import "fmt"

// Scan holds every scalar named in the external-interfaces contract:
// maxIntegrationTime, subSpectraAveragingNumber, minSpectraPerStep,
// stepSize, numSteps, targetCoupling, FFT length, sample rate, and SNR
// file paths.
type Scan struct {
	MaxIntegrationTimeSec float64
	SamplesPerBuffer      uint32
	BufferCount           uint32
	SampleRateHz          float64
	FreqLOHz              float64

	SubSpectraAveragingNumber int
	MinSpectraPerStep         int
	StepSizeMHz               float64
	NumSteps                  int
	TargetCoupling            float64
	Threshold                 float64

	SNRFilePath        string
	TargetCurveFile    string
	OutputDir          string
	RebinWidth         int
	ConvolutionWidth   int
	EdgeTrimFraction   float64

	BaselineCutoffFrac            float64
	BaselinePassbandRippleDB      float64
	BaselineStopbandAttenuationDB float64
}

// Validate checks the scalars this package owns for basic sanity
// before a scan starts. It returns a plain error, not a faultkind.Fault;
// cmd/haloscope panics with it.
func (s Scan) Validate() error {
	if s.SamplesPerBuffer == 0 || s.SamplesPerBuffer%2 != 0 {
		return fmt.Errorf("config: SamplesPerBuffer must be even and nonzero, got %d", s.SamplesPerBuffer)
	}
	if s.SampleRateHz <= 0 {
		return fmt.Errorf("config: SampleRateHz must be positive")
	}
	if s.SubSpectraAveragingNumber <= 0 {
		return fmt.Errorf("config: SubSpectraAveragingNumber must be positive")
	}
	if s.NumSteps <= 0 {
		return fmt.Errorf("config: NumSteps must be positive")
	}
	if s.TargetCoupling == 0 {
		return fmt.Errorf("config: TargetCoupling must be nonzero")
	}
	if s.SNRFilePath == "" {
		return fmt.Errorf("config: SNRFilePath is required")
	}
	return nil
}

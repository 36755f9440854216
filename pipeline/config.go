// Package pipeline implements the Scan Runner: it owns the inter-stage
// queues and synchronization flags, wires the Acquisition, Processing,
// Saving, and Decision stages into one goroutine-per-stage pipeline,
// and delegates external side effects (file output, LO retuning) to
// injected collaborators. Grounded on
// original_source/src/util/multiThreading.cpp for the stage shape and
// on the teacher's nicerx.Server for the pause/resume/stop
// context-reset pattern applied to a single long-running scan instead
// of a multi-task scheduler.
package pipeline

import (
	"github.com/cu-axion/haloscope-daq/digitizer"
	"github.com/cu-axion/haloscope-daq/spectrum"
)

// Config bundles the plain scalars named in the external-interfaces
// contract as consumed by the core: maxIntegrationTime,
// subSpectraAveragingNumber, minSpectraPerStep, stepSize, numSteps,
// targetCoupling, FFT length, sample rate, and SNR file paths. CLI
// flag parsing lives in cmd/haloscope; this struct is the fully
// populated value handed to NewRunner.
type Config struct {
	Digitizer digitizer.Config

	FreqLOHz float64
	DeltaFHz float64

	SubSpectraAveragingNumber int
	BadBins                   []int
	DCBins                    []int

	// MaxIntegrationTimeSec bounds how long a single LO tuning may
	// integrate before the Decision Agent forces a STEP, converted to a
	// buffers-at-tuning count via maxShotsFromIntegrationTime. Zero means
	// unbounded (the agent relies solely on local/global exclusion).
	MaxIntegrationTimeSec float64

	BaselineCutoffFrac            float64
	BaselinePassbandRippleDB      float64
	BaselineStopbandAttenuationDB float64

	SNRFilePath    string
	TargetCoupling float64
	EdgeTrimFrac   float64

	MinShots    int
	RebinWidth  int
	ConvWidth   int
	Threshold   float64
	// TargetCurve gives target_coupling_ratio[i] at TargetCurve.FreqAxis[i],
	// the minimum SNR-normalized excess required to claim exclusion at
	// each frequency. Loaded once, externally, like the SNR calibration.
	TargetCurve spectrum.Spectrum

	NumSteps       int
	StepSizeHz     float64
	RunOutputDir   string
}

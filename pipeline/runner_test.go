package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/cu-axion/haloscope-daq/decision"
	"github.com/cu-axion/haloscope-daq/digitizer"
	"github.com/cu-axion/haloscope-daq/digitizer/simsdk"
	"github.com/cu-axion/haloscope-daq/spectrum"
)

func flatSpectrum(n int, lo, hi, value float64) spectrum.Spectrum {
	s := spectrum.Spectrum{Powers: make([]float64, n), FreqAxis: make([]float64, n)}
	step := (hi - lo) / float64(n-1)
	for i := 0; i < n; i++ {
		s.Powers[i] = value
		s.FreqAxis[i] = lo + float64(i)*step
	}
	return s
}

func TestRunStepStopsOnPauseRequest(t *testing.T) {
	const sampleRate = 20e6
	const spb = 64

	sdk := simsdk.New(sampleRate, 13*sampleRate/spb, 0.1, 1.0)

	cfg := Config{
		Digitizer: digitizer.Config{
			SamplesPerBuffer: spb,
			BufferCount:      2,
			Range:            digitizer.Range2V,
			SampleRateHz:     sampleRate,
		},
		FreqLOHz:                      100e6,
		DeltaFHz:                      sampleRate / spb,
		SubSpectraAveragingNumber:     1,
		BaselineCutoffFrac:            0.1,
		BaselinePassbandRippleDB:      1,
		BaselineStopbandAttenuationDB: 40,
		TargetCoupling:                1.0,
		MinShots:                      1000000, // never reach STEP/STOP; test relies on external pause
		RebinWidth:                    1,
		ConvWidth:                     1,
		Threshold:                     1e18,
	}
	snr := spectrum.SNRCalibration{Spectrum: flatSpectrum(spb, cfg.FreqLOHz-sampleRate/2, cfg.FreqLOHz+sampleRate/2, 1.0)}
	cfg.TargetCurve = flatSpectrum(spb, cfg.FreqLOHz-sampleRate/2, cfg.FreqLOHz+sampleRate/2, 0)

	r, err := NewRunner(cfg, sdk, snr, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go func() {
		time.Sleep(50 * time.Millisecond)
		r.flags.RequestPause()
	}()

	if err := r.RunStep(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestRunStepDrainsWithoutDeadlock guards against a consumer stage
// hanging in Queue.Pop once acquisition completes: if the done signal
// is not propagated through every queue, RunStep never returns.
func TestRunStepDrainsWithoutDeadlock(t *testing.T) {
	const sampleRate = 20e6
	const spb = 64

	sdk := simsdk.New(sampleRate, 13*sampleRate/spb, 0.1, 1.0)

	cfg := Config{
		Digitizer: digitizer.Config{
			SamplesPerBuffer: spb,
			BufferCount:      2,
			Range:            digitizer.Range2V,
			SampleRateHz:     sampleRate,
		},
		FreqLOHz:                      100e6,
		DeltaFHz:                      sampleRate / spb,
		SubSpectraAveragingNumber:     1,
		BaselineCutoffFrac:            0.1,
		BaselinePassbandRippleDB:      1,
		BaselineStopbandAttenuationDB: 40,
		TargetCoupling:                1.0,
		MinShots:                      1000000,
		RebinWidth:                    1,
		ConvWidth:                     1,
		Threshold:                     1e18,
	}
	snr := spectrum.SNRCalibration{Spectrum: flatSpectrum(spb, cfg.FreqLOHz-sampleRate/2, cfg.FreqLOHz+sampleRate/2, 1.0)}
	cfg.TargetCurve = flatSpectrum(spb, cfg.FreqLOHz-sampleRate/2, cfg.FreqLOHz+sampleRate/2, 0)

	r, err := NewRunner(cfg, sdk, snr, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		r.flags.RequestPause()
	}()

	done := make(chan error, 1)
	go func() { done <- r.RunStep(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("RunStep did not return; a consumer stage likely deadlocked in Queue.Pop")
	}
}

// TestRunStepForcesStepOnMaxIntegrationTime guards against a tuning
// integrating forever when neither local nor global exclusion is ever
// reached: with a tiny MaxIntegrationTimeSec and a threshold exclusion
// can never clear, RunStep must still terminate via a forced STEP
// rather than hang in decisionLoop's CONTINUE loop.
func TestRunStepForcesStepOnMaxIntegrationTime(t *testing.T) {
	const sampleRate = 20e6
	const spb = 64

	sdk := simsdk.New(sampleRate, 13*sampleRate/spb, 0.1, 1.0)

	cfg := Config{
		Digitizer: digitizer.Config{
			SamplesPerBuffer: spb,
			BufferCount:      2,
			Range:            digitizer.Range2V,
			SampleRateHz:     sampleRate,
		},
		FreqLOHz:                      100e6,
		DeltaFHz:                      sampleRate / spb,
		SubSpectraAveragingNumber:     1,
		MaxIntegrationTimeSec:         3 * spb / sampleRate, // ~3 buffers worth
		BaselineCutoffFrac:            0.1,
		BaselinePassbandRippleDB:      1,
		BaselineStopbandAttenuationDB: 40,
		TargetCoupling:                1.0,
		MinShots:                      1000000, // exclusion gate never reachable on its own
		RebinWidth:                    1,
		ConvWidth:                     1,
		Threshold:                     1e18,
	}
	snr := spectrum.SNRCalibration{Spectrum: flatSpectrum(spb, cfg.FreqLOHz-sampleRate/2, cfg.FreqLOHz+sampleRate/2, 1.0)}
	cfg.TargetCurve = flatSpectrum(spb, cfg.FreqLOHz-sampleRate/2, cfg.FreqLOHz+sampleRate/2, 0)

	r, err := NewRunner(cfg, sdk, snr, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- r.RunStep(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("RunStep did not return; MaxIntegrationTimeSec forced STEP likely did not fire")
	}
	if r.LastOutcome() != decision.Step {
		t.Fatalf("expected a forced STEP outcome once MaxIntegrationTimeSec elapsed, got %v", r.LastOutcome())
	}
}

// TestRunStepRebinTargetsMatchDecisionGrid runs one step with rebinning
// active and targets every bin trivially clears, and checks that the
// decision stage reaches a non-Continue outcome on the rebinned grid.
func TestRunStepRebinTargetsMatchDecisionGrid(t *testing.T) {
	const sampleRate = 20e6
	const spb = 64

	sdk := simsdk.New(sampleRate, 13*sampleRate/spb, 0.1, 1.0)

	cfg := Config{
		Digitizer: digitizer.Config{
			SamplesPerBuffer: spb,
			BufferCount:      2,
			Range:            digitizer.Range2V,
			SampleRateHz:     sampleRate,
		},
		FreqLOHz:                      100e6,
		DeltaFHz:                      sampleRate / spb,
		SubSpectraAveragingNumber:     1,
		BaselineCutoffFrac:            0.1,
		BaselinePassbandRippleDB:      1,
		BaselineStopbandAttenuationDB: 40,
		TargetCoupling:                1.0,
		MinShots:                      1,
		RebinWidth:                    4,
		ConvWidth:                     1,
		Threshold:                     -1e18, // inProgressTargets deeply negative: any real power trivially clears it
	}
	snr := spectrum.SNRCalibration{Spectrum: flatSpectrum(spb, cfg.FreqLOHz-sampleRate/2, cfg.FreqLOHz+sampleRate/2, 1.0)}
	cfg.TargetCurve = flatSpectrum(spb, cfg.FreqLOHz-sampleRate/2, cfg.FreqLOHz+sampleRate/2, 0)

	r, err := NewRunner(cfg, sdk, snr, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- r.RunStep(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("RunStep did not return")
	}

	if r.LastOutcome() == decision.Continue {
		t.Fatalf("expected a non-Continue outcome once targets are trivially satisfied on the rebinned grid, got %v", r.LastOutcome())
	}
}

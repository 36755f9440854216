package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/cu-axion/haloscope-daq/combine"
	"github.com/cu-axion/haloscope-daq/coord"
	"github.com/cu-axion/haloscope-daq/decision"
	"github.com/cu-axion/haloscope-daq/digitizer"
	"github.com/cu-axion/haloscope-daq/dsp"
	"github.com/cu-axion/haloscope-daq/faultkind"
	"github.com/cu-axion/haloscope-daq/spectrum"
	"github.com/cu-axion/haloscope-daq/store"
)

// RetuneFunc steps the local oscillator to the next tuning. It is the
// narrow collaborator interface the Scan Runner drives instead of
// reaching into digitizer internals directly, matching the posture the
// digitizer SDK itself is held at.
type RetuneFunc func(ctx context.Context, stepIndex int, freqLOHz float64) error

// saveRecord is what the Saving stage persists for one buffer.
type saveRecord struct {
	seq       uint64
	raw       []complex128
	processed *spectrum.Spectrum
}

// Runner sequences the Acquisition, Processing, Saving, and Decision
// stages across LO tuning steps. The digitizer handle and the baseline
// state are never shared outside their owning stage, per the
// concurrency model's shared-resource policy.
type Runner struct {
	cfg    Config
	sdk    digitizer.BoardSDK
	retune RetuneFunc
	log    *slog.Logger

	flags      *coord.Flags
	rawQueue   *coord.Queue[digitizer.RawBuffer]
	saveQueue  *coord.Queue[saveRecord]
	rescaledQ  *coord.Queue[rescaledRecord]
	decisions  chan decision.Outcome

	planner  *dsp.FFTPlanner
	baseline *spectrum.BaselineState
	combiner *combine.Combiner
	agent    *decision.Agent
	snr      spectrum.SNRCalibration

	mu          sync.Mutex
	lastOutcome decision.Outcome
}

// LastOutcome returns the most recent decision the Decision stage
// produced, used by RunScan to decide whether to retune or stop.
func (r *Runner) LastOutcome() decision.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastOutcome
}

type rescaledRecord struct {
	spectrum spectrum.Spectrum
	sigma    []float64
}

// NewRunner constructs a Runner. snr is the SNR calibration spectrum
// loaded once from cfg.SNRFilePath by the caller (an external
// collaborator concern, per the configuration Non-goal).
func NewRunner(cfg Config, sdk digitizer.BoardSDK, snr spectrum.SNRCalibration, retune RetuneFunc, log *slog.Logger) (*Runner, error) {
	if log == nil {
		log = slog.Default()
	}
	baseline, err := spectrum.NewBaselineState(cfg.BaselineCutoffFrac, cfg.BaselinePassbandRippleDB, cfg.BaselineStopbandAttenuationDB)
	if err != nil {
		return nil, err
	}
	agent := decision.NewAgent(cfg.MinShots)
	if cfg.TargetCoupling > 0 {
		agent.TargetCoupling = cfg.TargetCoupling
	}
	agent.MaxShots = maxShotsFromIntegrationTime(cfg)

	r := &Runner{
		cfg:       cfg,
		sdk:       sdk,
		retune:    retune,
		log:       log,
		flags:     coord.NewFlags(),
		rawQueue:  coord.NewQueue[digitizer.RawBuffer](64),
		saveQueue: coord.NewQueue[saveRecord](64),
		rescaledQ: coord.NewQueue[rescaledRecord](64),
		decisions: make(chan decision.Outcome, 8),
		planner:   dsp.NewFFTPlanner(),
		baseline:  baseline,
		combiner:  combine.NewCombiner(cfg.EdgeTrimFrac),
		agent:     agent,
		snr:       snr,
	}
	return r, nil
}

// Decisions returns the channel the decision stage publishes control
// outcomes on, so a caller can react to STEP/STOP without touching
// shared mutable state. Sends are non-blocking (an outcome is dropped
// when the buffer is full) and the channel is never closed, since the
// same Runner runs one decision stage per LO tuning step. RunScan
// itself reads LastOutcome rather than this channel.
func (r *Runner) Decisions() <-chan decision.Outcome { return r.decisions }

// RunStep runs one LO tuning step's pipeline to completion: it resets
// the baseline and decision-agent buffer counter, starts all four
// stages, and blocks until Acquisition stops (context canceled, pause
// requested, or fatal error) and downstream stages drain.
func (r *Runner) RunStep(ctx context.Context) error {
	r.baseline.Reset()
	r.agent.ResetTuning()
	r.flags.Reset()
	r.rawQueue.Reset()
	r.saveQueue.Reset()
	r.rescaledQ.Reset()
	r.mu.Lock()
	r.lastOutcome = decision.Continue
	r.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		if err := digitizer.Acquire(ctx, r.sdk, r.cfg.Digitizer, r.flags, r.rawQueue, r.log); err != nil {
			// Acquire has already recorded err and marked rawQueue done on
			// every exit path; both calls are idempotent, so repeating
			// them here is harmless.
			r.flags.SetFatal(err)
			r.rawQueue.MarkDone()
		}
	}()
	go func() {
		defer wg.Done()
		r.processingLoop()
	}()
	go func() {
		defer wg.Done()
		r.savingLoop()
	}()
	go func() {
		defer wg.Done()
		r.decisionLoop()
	}()

	wg.Wait()
	return r.flags.Err()
}

func (r *Runner) processingLoop() {
	log := r.log.With("stage", "processing")
	var subBatch []spectrum.Spectrum

	for {
		buf, ok := r.rawQueue.Pop()
		if !ok {
			r.saveQueue.MarkDone()
			r.rescaledQ.MarkDone()
			return
		}

		fftOut := r.planner.Forward(buf.Samples)
		raw, _, err := spectrum.ExtractRaw(fftOut, r.cfg.FreqLOHz, r.cfg.DeltaFHz)
		if err != nil {
			// SetFatal requests a pause; Acquire notices on its next loop
			// check and marks rawQueue done itself, which this loop then
			// observes on its next Pop.
			r.flags.SetFatal(err)
			continue
		}
		raw = spectrum.InterpolateBadBins(raw, r.cfg.BadBins, r.cfg.DCBins)
		subBatch = append(subBatch, raw)

		if len(subBatch) < r.cfg.SubSpectraAveragingNumber {
			r.saveQueue.Push(saveRecord{seq: buf.Seq, raw: buf.Samples})
			continue
		}
		avg, err := spectrum.AverageSpectra(subBatch)
		subBatch = subBatch[:0]
		if err != nil {
			r.flags.SetFatal(err)
			continue
		}

		if err := r.baseline.Add(avg.Powers); err != nil {
			r.flags.SetFatal(err)
			continue
		}
		if err := r.baseline.Update(); err != nil {
			r.flags.SetFatal(err)
			continue
		}

		processed, err := spectrum.Processed(avg, r.baseline.Current())
		if err != nil {
			r.flags.SetFatal(err)
			continue
		}

		trimmedSNR, err := r.snr.TrimToMatch(processed)
		if err != nil {
			r.flags.SetFatal(err)
			continue
		}
		rescaled, kappa, err := spectrum.Rescale(processed, trimmedSNR, r.agent.TargetCoupling)
		if err != nil {
			r.flags.SetFatal(err)
			continue
		}
		sigma := sigmaFromKappa(kappa, float64(r.cfg.SubSpectraAveragingNumber))

		processedClone := processed.Clone()
		r.saveQueue.Push(saveRecord{seq: buf.Seq, raw: buf.Samples, processed: &processedClone})
		r.rescaledQ.Push(rescaledRecord{spectrum: rescaled.Clone(), sigma: sigma})
		log.Debug("processed buffer", "seq", buf.Seq)
	}
}

// sigmaFromKappa derives the per-bin standard deviation of the rescaled
// spectrum from the SNR-rescaling factor κ and averaging count M, per
// the design note that the source infers σ from κ and M: under the
// null hypothesis processed has variance 1/M, so rescaled = processed*κ
// has standard deviation κ/√M.
func sigmaFromKappa(kappa []float64, m float64) []float64 {
	if m < 1 {
		m = 1
	}
	out := make([]float64, len(kappa))
	inv := 1 / math.Sqrt(m)
	for i, k := range kappa {
		out[i] = k * inv
	}
	return out
}

// maxShotsFromIntegrationTime converts the configured wall-clock
// integration ceiling into a buffers-at-tuning count the Decision Agent
// can compare against directly, mirroring the maxSpectraPerStep
// derivation in original_source/src/threadedTesting.cpp: each buffer
// folded into the combined spectrum spans SubSpectraAveragingNumber raw
// acquisitions of SamplesPerBuffer samples at SampleRateHz. Returns 0
// (unbounded) if any input is unset.
func maxShotsFromIntegrationTime(cfg Config) int {
	if cfg.MaxIntegrationTimeSec <= 0 || cfg.Digitizer.SampleRateHz <= 0 || cfg.SubSpectraAveragingNumber <= 0 {
		return 0
	}
	secPerShot := float64(cfg.Digitizer.SamplesPerBuffer) / cfg.Digitizer.SampleRateHz * float64(cfg.SubSpectraAveragingNumber)
	if secPerShot <= 0 {
		return 0
	}
	return int(math.Round(cfg.MaxIntegrationTimeSec / secPerShot))
}

func lookupCurve(curve spectrum.Spectrum, f float64) float64 {
	if curve.Len() == 0 {
		return 0
	}
	return curve.Powers[curve.ClosestIndex(f)]
}

func (r *Runner) savingLoop() {
	for {
		rec, ok := r.saveQueue.Pop()
		if !ok {
			return
		}
		if r.cfg.RunOutputDir == "" {
			continue
		}
		if err := store.SaveRawBuffer(r.cfg.RunOutputDir, rec.seq, rec.raw); err != nil {
			r.log.Error("save raw buffer failed", "seq", rec.seq, "err", err)
			continue
		}
		if rec.processed != nil {
			path := fmt.Sprintf("%s/spectrum-%d.csv", r.cfg.RunOutputDir, rec.seq)
			if err := store.SaveSpectrum(path, *rec.processed); err != nil {
				r.log.Error("save spectrum failed", "seq", rec.seq, "err", err)
			}
		}
	}
}

func (r *Runner) decisionLoop() {
	for {
		rec, ok := r.rescaledQ.Pop()
		if !ok {
			return
		}
		r.mu.Lock()
		if err := r.combiner.Add(rec.spectrum, rec.sigma); err != nil {
			r.flags.SetFatal(faultkind.New(faultkind.NumericalPrecondition, "decisionLoop", err))
			r.mu.Unlock()
			continue
		}
		cs := r.combiner.Combined()
		r.mu.Unlock()

		// The decision agent's targets must be sized and computed on the
		// same grid as the exclusion line it decides over: when rebinning
		// is active that grid is the rebinned one, not the full combined
		// one, or SetTargets and Decide disagree on length and STOP can
		// never fire.
		targetGrid := cs.FreqAxis
		var line []float64
		if r.cfg.RebinWidth > 1 {
			reb, err := combine.Rebin(cs, r.cfg.RebinWidth, r.cfg.ConvWidth)
			if err != nil {
				r.flags.SetFatal(err)
				continue
			}
			targetGrid = reb.FreqAxis
			line = reb.Powers
		} else {
			line = cs.Powers
		}

		targetRatio := make([]float64, len(targetGrid))
		for i, f := range targetGrid {
			targetRatio[i] = lookupCurve(r.cfg.TargetCurve, f)
		}
		r.agent.SetTargets(targetRatio, r.cfg.Threshold)
		// Local exclusion is judged only over the bins this tuning's
		// (edge-trimmed) contribution occupies on the decision grid.
		contrib := spectrum.TrimEdges(rec.spectrum, r.cfg.EdgeTrimFrac)
		if contrib.Len() > 0 {
			grid := spectrum.Spectrum{FreqAxis: targetGrid}
			start := grid.ClosestIndex(contrib.FreqAxis[0])
			end := grid.ClosestIndex(contrib.FreqAxis[contrib.Len()-1]) + 1
			r.agent.SetActiveWindow(start, end)
		}
		r.agent.NoteBuffer()

		out := r.agent.Decide(line)
		r.mu.Lock()
		r.lastOutcome = out
		r.mu.Unlock()
		select {
		case r.decisions <- out:
		default:
		}
		if out != decision.Continue {
			r.flags.RequestPause()
		}
	}
}

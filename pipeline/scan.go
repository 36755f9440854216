package pipeline

import (
	"context"

	"github.com/cu-axion/haloscope-daq/decision"
)

// RunScan sequences cfg.NumSteps LO tuning steps: run one step's
// four-stage pipeline to completion, then retune before the next step,
// stopping early if a step's decision was Stop or a fatal error
// occurred. This is the message-passing realization of the cyclic
// scan-feedback design note: the decision stage requests a pause once a
// non-Continue outcome is seen, and RunScan reacts to that by retuning
// or exiting rather than any stage reaching into another's state.
func (r *Runner) RunScan(ctx context.Context) error {
	baseFreq := r.cfg.FreqLOHz
	for step := 0; step < r.cfg.NumSteps; step++ {
		r.cfg.FreqLOHz = baseFreq + float64(step)*r.cfg.StepSizeHz

		if err := r.RunStep(ctx); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if r.LastOutcome() == decision.Stop {
			r.log.Info("scan stopped by decision agent", "step", step)
			return nil
		}
		if r.retune != nil && step+1 < r.cfg.NumSteps {
			nextFreq := r.cfg.FreqLOHz + r.cfg.StepSizeHz
			if err := r.retune(ctx, step+1, nextFreq); err != nil {
				return err
			}
		}
	}
	return nil
}

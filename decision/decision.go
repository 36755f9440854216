// Package decision implements the Decision Agent: a pure function of
// the current combined spectrum and accumulated scores that returns
// whether to continue integrating, step to the next LO tuning, or stop
// the scan. Grounded on original_source/include/decisionAgent.hpp.
package decision

// Outcome is the control decision returned by Agent.Decide.
type Outcome int

const (
	Continue Outcome = iota
	Step
	Stop
)

func (o Outcome) String() string {
	switch o {
	case Continue:
		return "CONTINUE"
	case Step:
		return "STEP"
	case Stop:
		return "STOP"
	default:
		return "UNKNOWN"
	}
}

// Agent holds the target curve and per-bin cumulative scores. It never
// touches queues or hardware; it is pure given its inputs.
type Agent struct {
	// TargetCoupling defaults to 0.002, matching the original's default.
	TargetCoupling float64
	// MinShots is the number of buffers that must be acquired at a
	// tuning before a STEP or STOP decision is considered.
	MinShots int
	// MaxShots, if positive, forces a STEP once buffersAtTuning reaches
	// it, regardless of whether local or global exclusion was achieved.
	// It bounds the integration time a single tuning can consume, per
	// the original's maxIntegrationTime ceiling. Zero means unbounded.
	MaxShots int

	targetCouplingRatio []float64
	threshold           float64
	inProgressTargets   []float64
	points              []float64

	// windowStart/windowEnd bound the bins belonging to the tuning
	// currently being integrated; local exclusion only requires those
	// bins to clear their targets, while global exclusion requires the
	// entire grid to clear.
	windowStart, windowEnd int

	buffersAtTuning int
}

// NewAgent constructs an Agent with the original's default target
// coupling (0.002) unless overridden by the caller.
func NewAgent(minShots int) *Agent {
	return &Agent{TargetCoupling: 0.002, MinShots: minShots}
}

// SetTargets recomputes inProgressTargets[i] = threshold -
// targetCouplingRatio[i] for the active combined-spectrum grid. Called
// whenever the grid changes (new bins from Combiner.extendLeft/Right or
// a Rebin call with a different width).
func (a *Agent) SetTargets(targetCouplingRatio []float64, threshold float64) {
	a.targetCouplingRatio = append([]float64(nil), targetCouplingRatio...)
	a.threshold = threshold
	a.inProgressTargets = make([]float64, len(targetCouplingRatio))
	for i, r := range targetCouplingRatio {
		a.inProgressTargets[i] = threshold - r
	}
	if len(a.points) != len(a.inProgressTargets) {
		a.points = make([]float64, len(a.inProgressTargets))
	}
	if a.windowEnd == 0 && a.windowStart == 0 {
		a.windowStart, a.windowEnd = 0, len(a.inProgressTargets)
	}
}

// SetActiveWindow bounds the bins considered by the local-exclusion
// check to [start, end), the bins contributed by the tuning currently
// being integrated.
func (a *Agent) SetActiveWindow(start, end int) {
	a.windowStart, a.windowEnd = start, end
}

// CheckScore returns Σ max(0, activeExclusionLine[i] - target[i]), a
// scalar proxy for total unexcluded deficit.
func (a *Agent) CheckScore(activeExclusionLine []float64) float64 {
	var score float64
	for i, v := range activeExclusionLine {
		if i >= len(a.inProgressTargets) {
			break
		}
		if d := v - a.inProgressTargets[i]; d > 0 {
			score += d
		}
	}
	return score
}

// SetPoints records per-bin cumulative scores, allowing an external
// caller (e.g. a persistence layer) to snapshot progress between calls.
func (a *Agent) SetPoints(points []float64) { a.points = append([]float64(nil), points...) }

func (a *Agent) Points() []float64 { return a.points }

// NoteBuffer increments the buffers-acquired-at-tuning counter; the
// Scan Runner calls this once per buffer folded into the active
// tuning's combined spectrum.
func (a *Agent) NoteBuffer() { a.buffersAtTuning++ }

// ResetTuning zeroes the buffers-at-tuning counter for a new LO tuning.
func (a *Agent) ResetTuning() { a.buffersAtTuning = 0 }

// Decide returns Continue, Step, or Stop for the given combined
// exclusion line, per the getDecision policy.
func (a *Agent) Decide(activeExclusionLine []float64) Outcome {
	if a.MaxShots > 0 && a.buffersAtTuning >= a.MaxShots {
		return Step
	}
	if a.buffersAtTuning < a.MinShots {
		return Continue
	}
	if a.localExclusionAchieved(activeExclusionLine) {
		return Step
	}
	if a.globallyExclused(activeExclusionLine) {
		return Stop
	}
	return Continue
}

func (a *Agent) localExclusionAchieved(line []float64) bool {
	start, end := a.windowStart, a.windowEnd
	if end > len(line) {
		end = len(line)
	}
	if end > len(a.inProgressTargets) {
		end = len(a.inProgressTargets)
	}
	if start >= end {
		return false
	}
	for i := start; i < end; i++ {
		if line[i] < a.inProgressTargets[i] {
			return false
		}
	}
	return true
}

func (a *Agent) globallyExclused(line []float64) bool {
	if len(line) == 0 || len(a.inProgressTargets) != len(line) {
		return false
	}
	for i, v := range line {
		if v < a.inProgressTargets[i] {
			return false
		}
	}
	return true
}

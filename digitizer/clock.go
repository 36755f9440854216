package digitizer

import "math"

const (
	minBareRateHz = 150e6
	maxBareRateHz = 180e6
	bareRateStep  = 1e6
	minDecimation = 1
	maxDecimation = 10000
)

// SelectSampleClock picks the (bare rate, decimation) pair legal for the
// digitizer's external sample clock that comes closest to realizing the
// requested rate r (Hz). r is clamped to [0, 180e6] before the search.
// It enumerates every bare rate in {150e6, 151e6, ..., 180e6} and for
// each picks d = round(bare/r) clamped to [1, 10000], then keeps the
// (bare, d) pair minimizing |bare/d - r|, breaking ties toward the lowest bare
// rate by scanning bare rates in ascending order and only replacing the
// incumbent on a strict improvement.
func SelectSampleClock(r float64) (bareRateHz uint64, decimation uint32, realizedHz float64) {
	if r < 0 {
		r = 0
	}
	if r > maxBareRateHz {
		r = maxBareRateHz
	}

	bestBare := uint64(minBareRateHz)
	bestDecim := uint32(minDecimation)
	bestRealized := minBareRateHz / float64(minDecimation)
	bestErr := math.Abs(bestRealized - r)

	for bare := minBareRateHz; bare <= maxBareRateHz; bare += bareRateStep {
		d := clampDecimation(round(bare / r))
		realized := bare / float64(d)
		err := math.Abs(realized - r)
		if err < bestErr {
			bestErr = err
			bestBare = uint64(bare)
			bestDecim = d
			bestRealized = realized
		}
	}
	return bestBare, bestDecim, bestRealized
}

func clampDecimation(d float64) uint32 {
	if math.IsNaN(d) || d < minDecimation {
		return minDecimation
	}
	if d > maxDecimation {
		return maxDecimation
	}
	return uint32(d)
}

func round(v float64) float64 { return math.Round(v) }

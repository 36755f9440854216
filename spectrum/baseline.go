package spectrum

import (
	"fmt"
	"math"

	"github.com/cu-axion/haloscope-daq/dsp"
	"github.com/cu-axion/haloscope-daq/faultkind"
)

// BaselineState accumulates raw power spectra and derives a rolling
// low-pass-filtered baseline. It is single-writer: only the Processing
// stage mutates it during a scan step, per the concurrency model.
type BaselineState struct {
	runningAverage  []float64
	currentBaseline []float64
	numSpectra      int

	filter *dsp.ChebyshevIILowpass
}

// NewBaselineState builds a baseline estimator using an order-6
// Chebyshev-II low-pass with the given normalized cutoff (as a fraction
// of the spectrum's bin count) and stopband attenuation, per the design
// note that a nominal cutoff should pass only spectrum-wide drift.
func NewBaselineState(cutoffFrac, passbandRippleDB, stopbandAttenuationDB float64) (*BaselineState, error) {
	f, err := dsp.NewChebyshevIILowpass(6, cutoffFrac, passbandRippleDB, stopbandAttenuationDB)
	if err != nil {
		return nil, faultkind.New(faultkind.Configuration, "NewBaselineState", err)
	}
	return &BaselineState{filter: f}, nil
}

// Add accumulates one raw power spectrum into the running average.
func (b *BaselineState) Add(p []float64) error {
	if b.numSpectra == 0 {
		b.runningAverage = make([]float64, len(p))
	} else if len(p) != len(b.runningAverage) {
		return faultkind.New(faultkind.NumericalPrecondition, "BaselineState.Add",
			fmt.Errorf("length mismatch: got %d, expected %d", len(p), len(b.runningAverage)))
	}
	for i, v := range p {
		b.runningAverage[i] += v
	}
	b.numSpectra++
	return nil
}

// Update computes meanPower = runningAverage/numSpectra and applies the
// zero-phase two-pass Chebyshev-II low-pass, storing the result as
// currentBaseline.
func (b *BaselineState) Update() error {
	if b.numSpectra == 0 {
		return faultkind.New(faultkind.NumericalPrecondition, "BaselineState.Update", fmt.Errorf("no spectra accumulated"))
	}
	mean := make([]float64, len(b.runningAverage))
	inv := 1.0 / float64(b.numSpectra)
	for i, v := range b.runningAverage {
		mean[i] = v * inv
	}
	b.currentBaseline = b.filter.FiltFilt(mean)
	return nil
}

// Reset discards the running average, count, and current baseline. It
// is called at the start of each LO tuning to prevent cross-tuning
// contamination.
func (b *BaselineState) Reset() {
	b.runningAverage = nil
	b.currentBaseline = nil
	b.numSpectra = 0
}

func (b *BaselineState) NumSpectra() int { return b.numSpectra }

func (b *BaselineState) Current() []float64 { return b.currentBaseline }

// Equal reports whether two baseline states are in the same reset-empty
// state or hold identical accumulated data, used to verify the
// idempotence-under-reset property.
func (b *BaselineState) Equal(o *BaselineState) bool {
	if b.numSpectra != o.numSpectra {
		return false
	}
	if len(b.runningAverage) != len(o.runningAverage) {
		return false
	}
	for i := range b.runningAverage {
		if b.runningAverage[i] != o.runningAverage[i] {
			return false
		}
	}
	return len(b.currentBaseline) == len(o.currentBaseline)
}

// FilterResponse returns the filter's frequency response magnitude and
// phase over an n-point FFT of its impulse response, matching the
// original's displayFilterResponse debug affordance without requiring a
// direct response query from the underlying liquid-dsp handle.
func (b *BaselineState) FilterResponse(planner *dsp.FFTPlanner, n int) (freq, mag, phase []float64) {
	impulse := b.filter.ImpulseResponse(n)
	c := make([]complex128, n)
	for i, v := range impulse {
		c[i] = complex(v, 0)
	}
	resp := planner.Forward(c)

	freq = make([]float64, n/2)
	mag = make([]float64, n/2)
	phase = make([]float64, n/2)
	for k := 0; k < n/2; k++ {
		freq[k] = float64(k) / float64(n)
		re, im := real(resp[k]), imag(resp[k])
		mag[k] = math.Hypot(re, im)
		phase[k] = math.Atan2(im, re)
	}
	return freq, mag, phase
}

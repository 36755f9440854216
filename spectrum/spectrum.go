// Package spectrum implements the Processing Core: raw spectrum
// extraction from an FFT buffer, bad-bin/DC interpolation, rolling
// baseline estimation via a zero-phase Chebyshev-II low-pass filter,
// and SNR-based rescaling. Grounded on
// original_source/src/util/dataProcessingUtils.cpp and
// original_source/include/dataProcessing/dataProcessor.hpp for exact
// semantics, and on the teacher's radio.SpectralPower for the general
// shape of a power-spectrum value type.
package spectrum

import (
	"fmt"
	"math"
	"sort"

	"github.com/cu-axion/haloscope-daq/faultkind"
)

// Spectrum is a finite ordered pair of aligned arrays: Powers[i] at
// FreqAxis[i] Hz, strictly increasing FreqAxis, plus the LO center
// frequency the acquisition was taken at.
type Spectrum struct {
	Powers         []float64
	FreqAxis       []float64
	TrueCenterFreq float64
}

func (s Spectrum) Len() int { return len(s.Powers) }

// Validate enforces the length and ordering invariant every Spectrum
// passed between components must satisfy.
func (s Spectrum) Validate() error {
	if len(s.Powers) != len(s.FreqAxis) {
		return faultkind.New(faultkind.NumericalPrecondition, "Spectrum.Validate",
			fmt.Errorf("powers length %d != freqAxis length %d", len(s.Powers), len(s.FreqAxis)))
	}
	if len(s.Powers) == 0 {
		return faultkind.New(faultkind.NumericalPrecondition, "Spectrum.Validate", fmt.Errorf("empty spectrum"))
	}
	for i := 1; i < len(s.FreqAxis); i++ {
		if s.FreqAxis[i] <= s.FreqAxis[i-1] {
			return faultkind.New(faultkind.NumericalPrecondition, "Spectrum.Validate",
				fmt.Errorf("freqAxis not strictly increasing at index %d", i))
		}
	}
	return nil
}

// Clone returns an independent copy, used when a processed spectrum is
// placed on more than one downstream queue (saving and combining).
func (s Spectrum) Clone() Spectrum {
	out := Spectrum{
		Powers:         append([]float64(nil), s.Powers...),
		FreqAxis:       append([]float64(nil), s.FreqAxis...),
		TrueCenterFreq: s.TrueCenterFreq,
	}
	return out
}

// ClosestIndex returns the index of the FreqAxis entry closest to f,
// used by SNR trimming and lookup and by target-curve lookup. Grounded on
// original_source's findClosestIndex.
func (s Spectrum) ClosestIndex(f float64) int {
	i := sort.SearchFloat64s(s.FreqAxis, f)
	if i == 0 {
		return 0
	}
	if i >= len(s.FreqAxis) {
		return len(s.FreqAxis) - 1
	}
	if f-s.FreqAxis[i-1] <= s.FreqAxis[i]-f {
		return i - 1
	}
	return i
}

// TrimEdges discards a cutFraction-sized slice of bins from each end,
// used by the Combiner to drop filter-edge transients before folding a
// tuning's contribution into the global grid. Grounded on
// original_source's trimSpectrum/trimVector percentage-based trim.
func TrimEdges(s Spectrum, cutFraction float64) Spectrum {
	if cutFraction <= 0 {
		return s.Clone()
	}
	n := len(s.Powers)
	cut := int(float64(n) * cutFraction)
	if 2*cut >= n {
		cut = (n - 1) / 2
	}
	return Spectrum{
		Powers:         append([]float64(nil), s.Powers[cut:n-cut]...),
		FreqAxis:       append([]float64(nil), s.FreqAxis[cut:n-cut]...),
		TrueCenterFreq: s.TrueCenterFreq,
	}
}

// VectorStats returns the mean and (population) standard deviation of
// v, grounded on original_source's vectorStats.
func VectorStats(v []float64) (mean, stddev float64) {
	if len(v) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	mean = sum / float64(len(v))
	var sq float64
	for _, x := range v {
		d := x - mean
		sq += d * d
	}
	stddev = math.Sqrt(sq / float64(len(v)))
	return mean, stddev
}

// Package combine implements the Combiner & Rebinner: it merges
// rescaled spectra taken at different LO tunings onto a shared
// frequency grid with inverse-variance weighting, and rebins the
// result into a coarser, convolved wideband spectrum. Grounded on
// original_source's DataProcessor combination logic and on the
// weighted running-mean formula named in the specification.
package combine

import (
	"fmt"
	"math"

	"github.com/cu-axion/haloscope-daq/faultkind"
	"github.com/cu-axion/haloscope-daq/spectrum"
)

// CombinedSpectrum holds the running inverse-variance-weighted mean on
// a global frequency grid with a fixed bin width derived from the
// first contribution. WeightSum[i] == 0 marks a sentinel-empty bin.
type CombinedSpectrum struct {
	Powers        []float64
	FreqAxis      []float64
	SigmaCombined []float64
	WeightSum     []float64

	binWidth float64
}

// Combiner accumulates contributions into a CombinedSpectrum. It is not
// safe for concurrent use; the Decision stage of pipeline.Runner is the
// sole writer.
type Combiner struct {
	cs          CombinedSpectrum
	edgeTrim    float64
}

// NewCombiner builds an empty combiner. edgeTrimFraction is the
// fraction of bins discarded from each end of every contribution before
// it is folded into the grid, per the edge-trim supplement grounded on
// original_source's trimSpectrum.
func NewCombiner(edgeTrimFraction float64) *Combiner {
	return &Combiner{edgeTrim: edgeTrimFraction}
}

func (c *Combiner) Combined() CombinedSpectrum { return c.cs }

// Add folds one rescaled spectrum, with its per-bin sigma (1/√M scaled
// by κ), into the combined grid.
func (c *Combiner) Add(rescaled spectrum.Spectrum, sigma []float64) error {
	if rescaled.Len() != len(sigma) {
		return faultkind.New(faultkind.NumericalPrecondition, "Combiner.Add",
			fmt.Errorf("sigma length %d != spectrum length %d", len(sigma), rescaled.Len()))
	}
	trimmed := spectrum.TrimEdges(rescaled, c.edgeTrim)
	trimmedSigma := trimSigma(sigma, rescaled.Len(), trimmed.Len())

	if len(c.cs.FreqAxis) == 0 {
		return c.initGrid(trimmed, trimmedSigma)
	}

	for i := 0; i < trimmed.Len(); i++ {
		j := c.destIndex(trimmed.FreqAxis[i])
		if j < 0 {
			c.extendLeft(-j)
			j = 0
		} else if j >= len(c.cs.FreqAxis) {
			c.extendRight(j - len(c.cs.FreqAxis) + 1)
		}
		if trimmedSigma[i] <= 0 {
			return faultkind.New(faultkind.NumericalPrecondition, "Combiner.Add", fmt.Errorf("nonpositive sigma at bin %d", i))
		}
		w := 1.0 / (trimmedSigma[i] * trimmedSigma[i])
		c.cs.WeightSum[j] += w
		c.cs.Powers[j] += w * (trimmed.Powers[i] - c.cs.Powers[j]) / c.cs.WeightSum[j]
		c.cs.SigmaCombined[j] = 1 / math.Sqrt(c.cs.WeightSum[j])
	}
	return nil
}

func (c *Combiner) initGrid(s spectrum.Spectrum, sigma []float64) error {
	if s.Len() < 2 {
		return faultkind.New(faultkind.NumericalPrecondition, "Combiner.Add", fmt.Errorf("first contribution too short to derive bin width"))
	}
	c.cs.binWidth = s.FreqAxis[1] - s.FreqAxis[0]
	c.cs.FreqAxis = append([]float64(nil), s.FreqAxis...)
	c.cs.Powers = make([]float64, s.Len())
	c.cs.SigmaCombined = make([]float64, s.Len())
	c.cs.WeightSum = make([]float64, s.Len())
	for i := 0; i < s.Len(); i++ {
		if sigma[i] <= 0 {
			return faultkind.New(faultkind.NumericalPrecondition, "Combiner.Add", fmt.Errorf("nonpositive sigma at bin %d", i))
		}
		w := 1.0 / (sigma[i] * sigma[i])
		c.cs.WeightSum[i] = w
		c.cs.Powers[i] = s.Powers[i]
		c.cs.SigmaCombined[i] = 1 / math.Sqrt(w)
	}
	return nil
}

func (c *Combiner) destIndex(f float64) int {
	return int(math.Round((f - c.cs.FreqAxis[0]) / c.cs.binWidth))
}

func (c *Combiner) extendLeft(n int) {
	newAxis := make([]float64, n, n+len(c.cs.FreqAxis))
	for i := 0; i < n; i++ {
		newAxis[i] = c.cs.FreqAxis[0] - float64(n-i)*c.cs.binWidth
	}
	c.cs.FreqAxis = append(newAxis, c.cs.FreqAxis...)
	c.cs.Powers = append(make([]float64, n), c.cs.Powers...)
	c.cs.SigmaCombined = append(make([]float64, n), c.cs.SigmaCombined...)
	c.cs.WeightSum = append(make([]float64, n), c.cs.WeightSum...)
}

func (c *Combiner) extendRight(n int) {
	last := c.cs.FreqAxis[len(c.cs.FreqAxis)-1]
	for i := 1; i <= n; i++ {
		c.cs.FreqAxis = append(c.cs.FreqAxis, last+float64(i)*c.cs.binWidth)
		c.cs.Powers = append(c.cs.Powers, 0)
		c.cs.SigmaCombined = append(c.cs.SigmaCombined, 0)
		c.cs.WeightSum = append(c.cs.WeightSum, 0)
	}
}

// trimSigma applies the same edge cut TrimEdges used on origLen to
// derive trimLen, to keep sigma aligned with the trimmed spectrum.
func trimSigma(sigma []float64, origLen, trimLen int) []float64 {
	cut := (origLen - trimLen) / 2
	return append([]float64(nil), sigma[cut:cut+trimLen]...)
}

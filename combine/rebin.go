package combine

import (
	"fmt"
	"math"

	"github.com/cu-axion/haloscope-daq/faultkind"
)

// Rebin groups consecutive bins of cs into blocks of width R (dropping
// a trailing partial block), combines within each block by
// inverse-variance weighting, then convolves the resulting power array
// with a flat kernel of width K, shrinking the kernel near the edges so
// every output bin is a well-defined average of in-range neighbours.
// The frequency axis of the result is the center of each block.
func Rebin(cs CombinedSpectrum, rebinningWidth, convolutionWidth int) (CombinedSpectrum, error) {
	if rebinningWidth <= 0 {
		return CombinedSpectrum{}, faultkind.New(faultkind.Configuration, "Rebin", fmt.Errorf("rebinningWidth must be positive"))
	}
	n := len(cs.FreqAxis)
	blocks := n / rebinningWidth
	if blocks == 0 {
		return CombinedSpectrum{}, faultkind.New(faultkind.NumericalPrecondition, "Rebin", fmt.Errorf("spectrum shorter than rebinningWidth"))
	}

	out := CombinedSpectrum{
		Powers:        make([]float64, blocks),
		FreqAxis:      make([]float64, blocks),
		SigmaCombined: make([]float64, blocks),
		WeightSum:     make([]float64, blocks),
		binWidth:      cs.binWidth * float64(rebinningWidth),
	}

	for b := 0; b < blocks; b++ {
		start := b * rebinningWidth
		end := start + rebinningWidth
		var weightSum, weightedMean float64
		var freqSum float64
		for i := start; i < end; i++ {
			freqSum += cs.FreqAxis[i]
			if cs.WeightSum[i] == 0 {
				continue
			}
			w := cs.WeightSum[i]
			weightSum += w
			weightedMean += w * cs.Powers[i]
		}
		out.FreqAxis[b] = freqSum / float64(rebinningWidth)
		if weightSum > 0 {
			out.Powers[b] = weightedMean / weightSum
			out.WeightSum[b] = weightSum
			out.SigmaCombined[b] = 1 / math.Sqrt(weightSum)
		}
	}

	if convolutionWidth > 1 {
		out.Powers = flatConvolve(out.Powers, convolutionWidth)
	}
	return out, nil
}

// flatConvolve convolves v with a flat (moving-average) kernel of width
// k, shrinking the kernel near the edges rather than zero-padding, so
// boundary bins are averages of only their in-range neighbours.
func flatConvolve(v []float64, k int) []float64 {
	n := len(v)
	half := (k - 1) / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		lo := i - half
		hi := i + (k - 1 - half)
		if lo < 0 {
			lo = 0
		}
		if hi >= n {
			hi = n - 1
		}
		var sum float64
		for j := lo; j <= hi; j++ {
			sum += v[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

package spectrum

import (
	"fmt"

	"github.com/cu-axion/haloscope-daq/faultkind"
)

// Processed divides a raw (bad-bin-corrected, averaged) power spectrum
// by the current baseline and subtracts 1, producing a dimensionless
// excess with mean 0 and per-bin variance ≈ 1/M under the null
// hypothesis, where M is the averaging count folded into raw.
func Processed(raw Spectrum, baseline []float64) (Spectrum, error) {
	if raw.Len() != len(baseline) {
		return Spectrum{}, faultkind.New(faultkind.NumericalPrecondition, "Processed",
			fmt.Errorf("baseline length %d != spectrum length %d", len(baseline), raw.Len()))
	}
	out := Spectrum{
		Powers:         make([]float64, raw.Len()),
		FreqAxis:       append([]float64(nil), raw.FreqAxis...),
		TrueCenterFreq: raw.TrueCenterFreq,
	}
	for i, p := range raw.Powers {
		if baseline[i] == 0 {
			return Spectrum{}, faultkind.New(faultkind.NumericalPrecondition, "Processed",
				fmt.Errorf("zero baseline at bin %d", i))
		}
		out.Powers[i] = p/baseline[i] - 1
	}
	return out, nil
}

// SNRCalibration is a Spectrum loaded once from disk and trimmed to
// match the frequency span of each incoming processed spectrum.
type SNRCalibration struct {
	Spectrum
}

// TrimToMatch slices the calibration spectrum to the frequency span of
// target, per trimSNRtoMatch: find the calibration indices closest to
// target's first and last frequency and slice between them. Fails if
// target's band lies outside the calibration's support.
func (c SNRCalibration) TrimToMatch(target Spectrum) (Spectrum, error) {
	if target.Len() == 0 {
		return Spectrum{}, faultkind.New(faultkind.NumericalPrecondition, "TrimToMatch", fmt.Errorf("empty target spectrum"))
	}
	lo, hi := target.FreqAxis[0], target.FreqAxis[target.Len()-1]
	if lo < c.FreqAxis[0] || hi > c.FreqAxis[c.Len()-1] {
		return Spectrum{}, faultkind.New(faultkind.NumericalPrecondition, "TrimToMatch",
			fmt.Errorf("target band [%v, %v] outside SNR support [%v, %v]", lo, hi, c.FreqAxis[0], c.FreqAxis[c.Len()-1]))
	}
	iLo := c.ClosestIndex(lo)
	iHi := c.ClosestIndex(hi)
	if iHi < iLo {
		iLo, iHi = iHi, iLo
	}
	return Spectrum{
		Powers:         append([]float64(nil), c.Powers[iLo:iHi+1]...),
		FreqAxis:       append([]float64(nil), c.FreqAxis[iLo:iHi+1]...),
		TrueCenterFreq: target.TrueCenterFreq,
	}, nil
}

// Rescale multiplies processed by κ[i] = trimmedSNR[i] / targetCoupling²
// per bin, producing the rescaled spectrum the Combiner consumes.
// trimmedSNR must already be trimmed and length-matched to processed
// via SNRCalibration.TrimToMatch, and is resampled to processed's
// length by nearest-bin lookup if lengths still differ slightly due to
// grid rounding.
func Rescale(processed Spectrum, trimmedSNR Spectrum, targetCoupling float64) (Spectrum, []float64, error) {
	if targetCoupling == 0 {
		return Spectrum{}, nil, faultkind.New(faultkind.Configuration, "Rescale", fmt.Errorf("targetCoupling must be nonzero"))
	}
	n := processed.Len()
	out := Spectrum{
		Powers:         make([]float64, n),
		FreqAxis:       append([]float64(nil), processed.FreqAxis...),
		TrueCenterFreq: processed.TrueCenterFreq,
	}
	kappa := make([]float64, n)
	coupling2 := targetCoupling * targetCoupling
	for i := 0; i < n; i++ {
		snr := lookupSNR(trimmedSNR, processed.FreqAxis[i])
		k := snr / coupling2
		kappa[i] = k
		out.Powers[i] = processed.Powers[i] * k
	}
	return out, kappa, nil
}

func lookupSNR(snr Spectrum, f float64) float64 {
	i := snr.ClosestIndex(f)
	return snr.Powers[i]
}

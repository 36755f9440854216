package spectrum

import (
	"fmt"

	"github.com/cu-axion/haloscope-daq/faultkind"
)

// ExtractRaw derives the primary (positive-sideband) and image
// (negative-sideband) raw power spectra from one buffer's length-N FFT
// output. Because acquisition applied the ±1 alternation, the physical
// DC bin maps to k = N/2, so the primary spectrum is built from
// fftOut[k+N/2] and the image spectrum symmetrically from
// fftOut[N/2-k]. N must be even; digitizer.Config already rejects odd
// SamplesPerBuffer, so this only re-validates a caller invariant.
func ExtractRaw(fftOut []complex128, fLO, deltaF float64) (primary, image Spectrum, err error) {
	n := len(fftOut)
	if n == 0 || n%2 != 0 {
		return Spectrum{}, Spectrum{}, faultkind.New(faultkind.NumericalPrecondition, "ExtractRaw",
			fmt.Errorf("fft length must be even and nonzero, got %d", n))
	}
	half := n / 2
	quarter := float64(n) / 4

	primary = Spectrum{Powers: make([]float64, half), FreqAxis: make([]float64, half), TrueCenterFreq: fLO}
	image = Spectrum{Powers: make([]float64, half), FreqAxis: make([]float64, half), TrueCenterFreq: fLO}

	for k := 0; k < half; k++ {
		p := fftOut[k+half]
		primary.Powers[k] = magSquared(p)
		primary.FreqAxis[k] = fLO + (float64(k)-quarter)*deltaF

		im := fftOut[half-k]
		image.Powers[k] = magSquared(im)
		image.FreqAxis[k] = fLO + (float64(k)-quarter)*deltaF
	}
	return primary, image, nil
}

func magSquared(c complex128) float64 {
	re, im := real(c), imag(c)
	return re*re + im*im
}

// AverageSpectra averages a batch of same-length raw spectra
// bin-by-bin, used to fold subSpectraAveragingNumber consecutive
// acquisitions into one emitted raw spectrum. Grounded on
// original_source's averageVectors.
func AverageSpectra(batch []Spectrum) (Spectrum, error) {
	if len(batch) == 0 {
		return Spectrum{}, faultkind.New(faultkind.NumericalPrecondition, "AverageSpectra", fmt.Errorf("empty batch"))
	}
	n := batch[0].Len()
	out := Spectrum{
		Powers:         make([]float64, n),
		FreqAxis:       append([]float64(nil), batch[0].FreqAxis...),
		TrueCenterFreq: batch[0].TrueCenterFreq,
	}
	for _, s := range batch {
		if s.Len() != n {
			return Spectrum{}, faultkind.New(faultkind.NumericalPrecondition, "AverageSpectra",
				fmt.Errorf("length mismatch: %d vs %d", s.Len(), n))
		}
		for i, v := range s.Powers {
			out.Powers[i] += v
		}
	}
	inv := 1.0 / float64(len(batch))
	for i := range out.Powers {
		out.Powers[i] *= inv
	}
	return out, nil
}

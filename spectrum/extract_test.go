package spectrum

import (
	"math"
	"testing"

	"github.com/cu-axion/haloscope-daq/dsp"
)

func TestExtractRawSingleToneEndToEnd(t *testing.T) {
	const n = 256
	const sampleRateHz = 20e6
	const fLO = 100e6
	deltaF := sampleRateHz / n
	// Choose an offset landing exactly on an FFT bin to avoid spectral
	// leakage, which would otherwise spread energy into neighbouring
	// bins and break the "surrounding bins <= 1% of peak" check below.
	const toneBinOffset = 13
	toneOffsetHz := toneBinOffset * deltaF

	// Synthesize a buffer as acquisition would emit it: complex tone at
	// toneOffsetHz with the ±1 alternation already applied.
	buf := make([]complex128, n)
	dphase := 2 * math.Pi * toneOffsetHz / sampleRateHz
	phase := 0.0
	for i := 0; i < n; i++ {
		phase += dphase
		re, im := math.Cos(phase), math.Sin(phase)
		if i%2 == 1 {
			re, im = -re, -im
		}
		buf[i] = complex(re, im)
	}

	planner := dsp.NewFFTPlanner()
	fftOut := planner.Forward(buf)

	primary, _, err := ExtractRaw(fftOut, fLO, deltaF)
	if err != nil {
		t.Fatal(err)
	}

	baseline := make([]float64, primary.Len())
	var floor float64
	for _, p := range primary.Powers {
		floor += p
	}
	floor = floor / float64(len(primary.Powers))
	for i := range baseline {
		baseline[i] = floor + 1e-9 // avoid divide-by-zero, constant baseline
	}
	processed, err := Processed(primary, baseline)
	if err != nil {
		t.Fatal(err)
	}

	peakIdx := 0
	for i, v := range processed.Powers {
		if v > processed.Powers[peakIdx] {
			peakIdx = i
		}
	}
	peakFreq := processed.FreqAxis[peakIdx]
	if math.Abs(peakFreq-(fLO+toneOffsetHz)) > 2*deltaF {
		t.Fatalf("peak at %v Hz, expected near %v Hz", peakFreq, fLO+toneOffsetHz)
	}

	for i, v := range processed.Powers {
		if i == peakIdx {
			continue
		}
		if abs(i-peakIdx) <= 1 {
			continue
		}
		if v > 0.01*processed.Powers[peakIdx] {
			t.Fatalf("bin %d has power %v, more than 1%% of peak %v", i, v, processed.Powers[peakIdx])
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

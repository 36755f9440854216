package spectrum

import (
	"math"
	"testing"
)

func TestProcessedDivision(t *testing.T) {
	raw := Spectrum{Powers: []float64{10, 20, 30}, FreqAxis: []float64{0, 1, 2}}
	baseline := []float64{10, 10, 10}
	got, err := Processed(raw, baseline)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 1, 2}
	for i, v := range want {
		if math.Abs(got.Powers[i]-v) > 1e-12 {
			t.Fatalf("bin %d: got %v, want %v", i, got.Powers[i], v)
		}
	}
}

func TestTrimToMatchOutOfSupport(t *testing.T) {
	cal := SNRCalibration{Spectrum{Powers: []float64{1, 2, 3}, FreqAxis: []float64{10, 11, 12}}}
	target := Spectrum{Powers: []float64{1, 1}, FreqAxis: []float64{20, 21}}
	if _, err := cal.TrimToMatch(target); err == nil {
		t.Fatal("expected out-of-support error")
	}
}

func TestRescale(t *testing.T) {
	processed := Spectrum{Powers: []float64{1, 1, 1}, FreqAxis: []float64{0, 1, 2}}
	snr := Spectrum{Powers: []float64{4, 4, 4}, FreqAxis: []float64{0, 1, 2}}
	rescaled, kappa, err := Rescale(processed, snr, 2.0)
	if err != nil {
		t.Fatal(err)
	}
	// kappa = 4 / (2^2) = 1
	for i, k := range kappa {
		if math.Abs(k-1) > 1e-12 {
			t.Fatalf("bin %d: kappa %v, want 1", i, k)
		}
		if math.Abs(rescaled.Powers[i]-1) > 1e-12 {
			t.Fatalf("bin %d: rescaled %v, want 1", i, rescaled.Powers[i])
		}
	}
}

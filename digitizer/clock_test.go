package digitizer

import (
	"math"
	"testing"
)

func TestSelectSampleClockLegality(t *testing.T) {
	rates := []float64{0, 1, 1e6, 9.57e6, 10e6, 50e6, 150e6, 180e6, 200e6}
	for _, r := range rates {
		bare, d, realized := SelectSampleClock(r)
		if bare < minBareRateHz || bare > maxBareRateHz {
			t.Fatalf("r=%v: bare %v out of range", r, bare)
		}
		if d < minDecimation || d > maxDecimation {
			t.Fatalf("r=%v: decimation %v out of range", r, d)
		}
		if math.Abs(float64(bare)/float64(d)-realized) > 1e-6 {
			t.Fatalf("r=%v: realized %v does not match bare/d", r, realized)
		}
	}
}

func TestSelectSampleClockExactCase(t *testing.T) {
	bare, d, realized := SelectSampleClock(10e6)
	if bare != 150e6 || d != 15 {
		t.Fatalf("expected bare=150e6 d=15, got bare=%v d=%v", bare, d)
	}
	if realized != 10e6 {
		t.Fatalf("expected realized 10e6, got %v", realized)
	}
}

func TestSelectSampleClockNearMiss(t *testing.T) {
	_, _, realized := SelectSampleClock(9.57e6)
	if math.Abs(realized-9.57e6)/9.57e6 > 0.001 {
		t.Fatalf("realized %v not within 0.1%% of 9.57e6", realized)
	}
}

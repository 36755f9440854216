package combine

import (
	"math"
	"testing"

	"github.com/cu-axion/haloscope-daq/spectrum"
)

func identical(n int, power float64) spectrum.Spectrum {
	s := spectrum.Spectrum{Powers: make([]float64, n), FreqAxis: make([]float64, n)}
	for i := 0; i < n; i++ {
		s.Powers[i] = power
		s.FreqAxis[i] = float64(i)
	}
	return s
}

func sigmaOnes(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = 1
	}
	return s
}

func TestCombineThreeIdenticalSpectra(t *testing.T) {
	n := 20
	s := identical(n, 5.0)
	sigma := sigmaOnes(n)

	c := NewCombiner(0)
	for i := 0; i < 3; i++ {
		if err := c.Add(s, sigma); err != nil {
			t.Fatal(err)
		}
	}
	cs := c.Combined()
	for i := 0; i < n; i++ {
		if math.Abs(cs.Powers[i]-5.0) > 1e-9 {
			t.Fatalf("bin %d: power %v, want 5.0", i, cs.Powers[i])
		}
		want := 1.0 / math.Sqrt(3)
		if math.Abs(cs.SigmaCombined[i]-want) > 1e-9 {
			t.Fatalf("bin %d: sigma %v, want %v", i, cs.SigmaCombined[i], want)
		}
	}
}

func TestCombineOrderIndependence(t *testing.T) {
	n := 10
	a := identical(n, 2.0)
	b := identical(n, 4.0)
	sigma := sigmaOnes(n)

	c1 := NewCombiner(0)
	c1.Add(a, sigma)
	c1.Add(b, sigma)

	c2 := NewCombiner(0)
	c2.Add(b, sigma)
	c2.Add(a, sigma)

	r1, r2 := c1.Combined(), c2.Combined()
	for i := 0; i < n; i++ {
		if math.Abs(r1.Powers[i]-r2.Powers[i]) > 1e-9 {
			t.Fatalf("bin %d: order dependence in powers: %v vs %v", i, r1.Powers[i], r2.Powers[i])
		}
		if math.Abs(r1.SigmaCombined[i]-r2.SigmaCombined[i]) > 1e-9 {
			t.Fatalf("bin %d: order dependence in sigma: %v vs %v", i, r1.SigmaCombined[i], r2.SigmaCombined[i])
		}
	}
}

func TestCombinerExtendsGrid(t *testing.T) {
	n := 10
	first := identical(n, 1.0)
	sigma := sigmaOnes(n)
	c := NewCombiner(0)
	if err := c.Add(first, sigma); err != nil {
		t.Fatal(err)
	}

	second := spectrum.Spectrum{
		Powers:   make([]float64, n),
		FreqAxis: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		second.Powers[i] = 3.0
		second.FreqAxis[i] = float64(n/2) + float64(i)
	}
	if err := c.Add(second, sigma); err != nil {
		t.Fatal(err)
	}
	cs := c.Combined()
	if len(cs.FreqAxis) <= n {
		t.Fatalf("expected grid to extend beyond %d bins, got %d", n, len(cs.FreqAxis))
	}
}

package spectrum

import "testing"

func TestBaselineIdempotenceUnderReset(t *testing.T) {
	b1, err := NewBaselineState(0.05, 1, 40)
	if err != nil {
		t.Fatal(err)
	}
	b2, err := NewBaselineState(0.05, 1, 40)
	if err != nil {
		t.Fatal(err)
	}

	p := make([]float64, 64)
	for i := range p {
		p[i] = float64(i)
	}

	b1.Reset()
	if err := b1.Add(p); err != nil {
		t.Fatal(err)
	}
	if err := b1.Add(p); err != nil {
		t.Fatal(err)
	}
	b1.Reset()

	if !b1.Equal(b2) {
		t.Fatalf("expected reset state to equal initial state")
	}
	if b1.NumSpectra() != 0 {
		t.Fatalf("expected numSpectra 0 after reset, got %d", b1.NumSpectra())
	}
}

func TestBaselineUpdateProducesSmoothedEstimate(t *testing.T) {
	b, err := NewBaselineState(0.1, 1, 40)
	if err != nil {
		t.Fatal(err)
	}
	n := 128
	p := make([]float64, n)
	for i := range p {
		p[i] = 10.0
	}
	if err := b.Add(p); err != nil {
		t.Fatal(err)
	}
	if err := b.Update(); err != nil {
		t.Fatal(err)
	}
	baseline := b.Current()
	if len(baseline) != n {
		t.Fatalf("expected baseline length %d, got %d", n, len(baseline))
	}
	// A constant input should produce a baseline close to constant,
	// away from filter transients at the very edges.
	for i := n / 4; i < 3*n/4; i++ {
		if baseline[i] < 5 || baseline[i] > 15 {
			t.Fatalf("bin %d: baseline %v far from expected ~10", i, baseline[i])
		}
	}
}

package combine

import (
	"math"
	"testing"
)

func TestRebinGroupsAndDropsPartialBlock(t *testing.T) {
	cs := CombinedSpectrum{
		Powers:        []float64{1, 2, 3, 4, 5, 6, 7},
		FreqAxis:      []float64{0, 1, 2, 3, 4, 5, 6},
		SigmaCombined: []float64{1, 1, 1, 1, 1, 1, 1},
		WeightSum:     []float64{1, 1, 1, 1, 1, 1, 1},
		binWidth:      1,
	}
	out, err := Rebin(cs, 3, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Powers) != 2 {
		t.Fatalf("expected 2 blocks (trailing partial dropped), got %d", len(out.Powers))
	}
	if math.Abs(out.Powers[0]-2) > 1e-9 {
		t.Fatalf("block 0: expected mean 2, got %v", out.Powers[0])
	}
	if math.Abs(out.Powers[1]-5) > 1e-9 {
		t.Fatalf("block 1: expected mean 5, got %v", out.Powers[1])
	}
}

func TestFlatConvolveShrinksAtEdges(t *testing.T) {
	v := []float64{0, 0, 10, 0, 0}
	out := flatConvolve(v, 3)
	if math.Abs(out[0]-0) > 1e-9 {
		t.Fatalf("edge bin 0 should average only in-range neighbours, got %v", out[0])
	}
	if math.Abs(out[2]-10.0/3) > 1e-9 {
		t.Fatalf("center bin expected 10/3, got %v", out[2])
	}
}

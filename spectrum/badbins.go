package spectrum

// InterpolateBadBins linearly interpolates Powers at every index in
// badBins ∪ dcBins using the nearest unaffected neighbours on either
// side; if a masked run extends to either end of the spectrum, it is
// filled with the nearest unaffected value instead of extrapolated.
// Returns a corrected copy; s itself is not modified.
func InterpolateBadBins(s Spectrum, badBins, dcBins []int) Spectrum {
	n := s.Len()
	masked := make([]bool, n)
	for _, i := range badBins {
		if i >= 0 && i < n {
			masked[i] = true
		}
	}
	for _, i := range dcBins {
		if i >= 0 && i < n {
			masked[i] = true
		}
	}

	out := s.Clone()
	i := 0
	for i < n {
		if !masked[i] {
			i++
			continue
		}
		runStart := i
		for i < n && masked[i] {
			i++
		}
		runEnd := i // exclusive

		var lo, hi = runStart - 1, runEnd
		switch {
		case lo < 0 && hi >= n:
			// entire spectrum masked; nothing to interpolate from.
		case lo < 0:
			for j := runStart; j < runEnd; j++ {
				out.Powers[j] = out.Powers[hi]
			}
		case hi >= n:
			for j := runStart; j < runEnd; j++ {
				out.Powers[j] = out.Powers[lo]
			}
		default:
			loVal, hiVal := out.Powers[lo], out.Powers[hi]
			span := float64(hi - lo)
			for j := runStart; j < runEnd; j++ {
				t := float64(j-lo) / span
				out.Powers[j] = loVal + t*(hiVal-loVal)
			}
		}
	}
	return out
}

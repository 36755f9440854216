package digitizer

const targetBytesPerBuffer = 4e6

// BufferCount chooses a buffer count B for splitting `samples` samples
// of `bytesPerSample` bytes each into buffers of roughly 4MB, then walks
// outward from that estimate until samples divides evenly by B. This
// guarantees equal-sized buffers and no trailing partial buffer.
//
// If hint is nonzero it is used as the starting estimate instead of the
// byte-target heuristic, but is still adjusted for exact division.
func BufferCount(bytesPerSample, samples uint64, hint uint32) uint32 {
	if samples == 0 {
		return 1
	}

	var b uint64
	if hint != 0 {
		b = uint64(hint)
	} else {
		est := round(float64(bytesPerSample) * float64(samples) * 2 / targetBytesPerBuffer)
		b = uint64(est)
	}
	if b < 1 {
		b = 1
	}
	if b > samples {
		b = samples
	}

	for delta := uint64(0); ; delta++ {
		if b+delta <= samples && samples%(b+delta) == 0 {
			return uint32(b + delta)
		}
		if delta <= b-1 && samples%(b-delta) == 0 {
			return uint32(b - delta)
		}
	}
}

// ResolveBufferCount is what callers building a Config actually use: it
// applies the ~4MB-per-buffer heuristic (BufferCount) and then enforces
// the DMA loop's own >=2 floor, which the byte-target heuristic alone
// does not guarantee for a small samplesPerBuffer. samplesPerBuffer is
// always even (Config.validate rejects odd values for DC-centering), so
// raising a computed 1 up to 2 never breaks exact division.
func ResolveBufferCount(bytesPerSample uint64, samplesPerBuffer uint32, hint uint32) uint32 {
	b := BufferCount(bytesPerSample, uint64(samplesPerBuffer), hint)
	if b < 2 {
		b = 2
	}
	return b
}

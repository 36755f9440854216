// Package dsp wraps the two signal-processing primitives the core
// depends on: a length-N complex FFT (via go-fftw) and a zero-phase
// Chebyshev-II low-pass filter (via cgo bindings to liquid-dsp) used to
// estimate the rolling spectral baseline. Both are grounded on the
// teacher's dsp package, which binds the same liquid-dsp library for
// its own filtering needs; the cgo calling convention (a small C helper
// that loops push/execute over a block, called once per Go call to
// amortize the cgo boundary) is kept unchanged from the teacher.
package dsp

/*
#cgo LDFLAGS: -lliquid
#include <liquid/liquid.h>

static void iirfilt_rrrf_block(
	iirfilt_rrrf q,
	float *in, float *out,
	unsigned n)
{
	for (unsigned i = 0; i < n; i++) {
		iirfilt_rrrf_execute(q, in[i], &out[i]);
	}
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// ChebyshevIILowpass is a fixed-order Chebyshev type-II low-pass filter
// used to estimate rolling baselines from accumulated power spectra.
// Order 6 with a nominal cutoff chosen so the filter tracks spectrum-
// wide drift, not axion-scale features, per the design; callers apply
// it forward-then-reverse (FiltFilt) for zero phase distortion.
type ChebyshevIILowpass struct {
	order                int
	cutoffFrac           float64
	passbandRippleDB     float64
	stopbandAttenuationDB float64
}

// NewChebyshevIILowpass builds a filter description. cutoffFrac is the
// normalized cutoff frequency (0, 0.5) as a fraction of the sample
// rate the baseline array represents (bins per spectrum, treated as a
// pseudo-time-series).
func NewChebyshevIILowpass(order int, cutoffFrac, passbandRippleDB, stopbandAttenuationDB float64) (*ChebyshevIILowpass, error) {
	if order <= 0 {
		return nil, fmt.Errorf("dsp: filter order must be positive, got %d", order)
	}
	if cutoffFrac <= 0 || cutoffFrac >= 0.5 {
		return nil, fmt.Errorf("dsp: cutoff fraction must be in (0, 0.5), got %v", cutoffFrac)
	}
	return &ChebyshevIILowpass{
		order:                 order,
		cutoffFrac:            cutoffFrac,
		passbandRippleDB:      passbandRippleDB,
		stopbandAttenuationDB: stopbandAttenuationDB,
	}, nil
}

func (f *ChebyshevIILowpass) create() C.iirfilt_rrrf {
	return C.iirfilt_rrrf_create_prototype(
		C.LIQUID_IIRDES_CHEBY2,
		C.LIQUID_IIRDES_LOWPASS,
		C.LIQUID_IIRDES_SOS,
		C.uint(f.order),
		C.float(f.cutoffFrac),
		C.float(0),
		C.float(f.passbandRippleDB),
		C.float(f.stopbandAttenuationDB),
	)
}

// filter runs one forward pass over in, returning a freshly allocated
// output slice of the same length.
func (f *ChebyshevIILowpass) filter(in []float64) []float64 {
	if len(in) == 0 {
		return nil
	}
	q := f.create()
	defer C.iirfilt_rrrf_destroy(q)

	fin := make([]float32, len(in))
	for i, v := range in {
		fin[i] = float32(v)
	}
	fout := make([]float32, len(in))
	C.iirfilt_rrrf_block(q,
		(*C.float)(unsafe.Pointer(&fin[0])),
		(*C.float)(unsafe.Pointer(&fout[0])),
		C.uint(len(in)))

	out := make([]float64, len(in))
	for i, v := range fout {
		out[i] = float64(v)
	}
	return out
}

// FiltFilt runs the filter forward, reverses the result, runs it
// forward again, and reverses back, producing the zero-phase two-pass
// baseline estimate this pipeline requires: the filtered baseline
// tracks drift without shifting spectral features away from their true
// bin.
func (f *ChebyshevIILowpass) FiltFilt(in []float64) []float64 {
	fwd := f.filter(in)
	reverse(fwd)
	back := f.filter(fwd)
	reverse(back)
	return back
}

// ImpulseResponse returns the filter's response to a unit impulse of
// length n, used by spectrum.BaselineState.FilterResponse to derive a
// frequency response via FFT since liquid's Go cgo surface here does
// not expose a direct response query.
func (f *ChebyshevIILowpass) ImpulseResponse(n int) []float64 {
	impulse := make([]float64, n)
	if n > 0 {
		impulse[0] = 1
	}
	return f.filter(impulse)
}

func reverse(s []float64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

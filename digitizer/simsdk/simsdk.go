// Package simsdk is a synthetic digitizer backend satisfying
// digitizer.BoardSDK without any hardware. It generates single-tone (or
// tone-plus-noise) 16-bit codes so the rest of the pipeline can be
// exercised end to end in tests and in the `bench` CLI subcommand,
// answering the single-tone synthetic-signal end-to-end scenario.
package simsdk

import (
	"math"
	"math/rand"
	"time"

	"github.com/cu-axion/haloscope-daq/digitizer"
)

// SDK is a synthetic BoardSDK. ToneOffsetHz is the frequency offset of
// the injected tone relative to the LO; NoiseSigma is the standard
// deviation of additive Gaussian code noise.
type SDK struct {
	SampleRateHz float64
	ToneOffsetHz float64
	ToneAmpFrac  float64 // fraction of full scale, 0..1
	NoiseSigma   float64
	Rng          *rand.Rand

	phaseA, phaseB float64
	sampleCount    uint64
}

var _ digitizer.BoardSDK = (*SDK)(nil)

func New(sampleRateHz, toneOffsetHz, toneAmpFrac, noiseSigma float64) *SDK {
	return &SDK{
		SampleRateHz: sampleRateHz,
		ToneOffsetHz: toneOffsetHz,
		ToneAmpFrac:  toneAmpFrac,
		NoiseSigma:   noiseSigma,
		Rng:          rand.New(rand.NewSource(1)),
	}
}

func (s *SDK) OpenBoard(uint32, uint32) error { return nil }
func (s *SDK) SetCaptureClock(bareRateHz uint64, decimation uint32) error {
	s.SampleRateHz = float64(bareRateHz) / float64(decimation)
	return nil
}
func (s *SDK) SetInputControl(digitizer.Channel, digitizer.Coupling, digitizer.InputRange, digitizer.Impedance) error {
	return nil
}
func (s *SDK) SetBWLimit(digitizer.Channel, bool) error   { return nil }
func (s *SDK) SetRecordSize(uint32, uint32) error         { return nil }
func (s *SDK) StartCapture() error                        { return nil }
func (s *SDK) PostAsyncBuffer(buf []uint16) error          { return nil }
func (s *SDK) ForceTrigger() error                         { return nil }
func (s *SDK) AbortAsyncRead() error                        { return nil }
func (s *SDK) Close() error                                { return nil }

// WaitAsyncBufferComplete synthesizes one buffer's worth of interleaved
// (A, B) 16-bit codes: a tone at ToneOffsetHz plus Gaussian noise,
// centered at code 0x8000.
func (s *SDK) WaitAsyncBufferComplete(buf []uint16, timeout time.Duration) error {
	n := len(buf) / 2
	dphaseA := 2 * math.Pi * s.ToneOffsetHz / s.SampleRateHz
	amp := s.ToneAmpFrac * 0x7FFF
	for i := 0; i < n; i++ {
		s.phaseA += dphaseA
		re := amp * math.Cos(s.phaseA)
		im := amp * math.Sin(s.phaseA)
		if s.NoiseSigma > 0 {
			re += s.Rng.NormFloat64() * s.NoiseSigma
			im += s.Rng.NormFloat64() * s.NoiseSigma
		}
		buf[2*i] = clampCode(0x8000 + re)
		buf[2*i+1] = clampCode(0x8000 + im)
		s.sampleCount++
	}
	return nil
}

func clampCode(v float64) uint16 {
	if v < 0 {
		return 0
	}
	if v > 0xFFFF {
		return 0xFFFF
	}
	return uint16(v)
}

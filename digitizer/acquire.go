package digitizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cu-axion/haloscope-daq/coord"
	"github.com/cu-axion/haloscope-daq/faultkind"
)

// RawBuffer is one acquired buffer converted to voltage-domain complex
// samples, channel A real and channel B imaginary, with the ±1
// alternation already applied so downstream FFT sees a zero-centered
// spectrum.
type RawBuffer struct {
	Seq     uint64
	Samples []complex128
}

// Config describes one acquisition run.
type Config struct {
	SamplesPerBuffer uint32
	BufferCount      uint32
	Range            InputRange
	Coupling         Coupling
	Impedance        Impedance
	BWLimit          bool
	PreTriggerSamples uint32
	SampleRateHz     float64
}

var ErrOddSamplesPerBuffer = errors.New("digitizer: SamplesPerBuffer must be even for DC centering")

func (c Config) validate() error {
	if c.SamplesPerBuffer == 0 || c.SamplesPerBuffer%2 != 0 {
		return ErrOddSamplesPerBuffer
	}
	if c.BufferCount < 2 {
		return fmt.Errorf("digitizer: BufferCount must be >= 2, got %d", c.BufferCount)
	}
	switch c.Range {
	case Range200mV, Range400mV, Range800mV, Range2V:
	default:
		return fmt.Errorf("digitizer: illegal input range %v", c.Range)
	}
	return nil
}

// Acquire configures the board per cfg and runs the DMA loop until the
// context is canceled, flags.PauseRequested becomes true, or a fatal
// hardware error occurs. Converted buffers are pushed to out in strict
// acquisition order; on any exit path flags.MarkComplete is called and
// out.MarkDone marks the queue itself finished, so a blocked consumer's
// Pop returns ok=false once drained.
func Acquire(ctx context.Context, sdk BoardSDK, cfg Config, flags *coord.Flags, out *coord.Queue[RawBuffer], log *slog.Logger) (err error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("stage", "acquisition")
	defer func() {
		if err != nil {
			flags.SetFatal(err)
		}
		flags.MarkComplete()
		out.MarkDone()
	}()

	if err := cfg.validate(); err != nil {
		return faultkind.New(faultkind.Configuration, "Acquire", err)
	}

	bareRateHz, decimation, realizedHz := SelectSampleClock(cfg.SampleRateHz)
	if err := sdk.SetCaptureClock(bareRateHz, decimation); err != nil {
		return faultkind.New(faultkind.HardwareTransport, "SetCaptureClock", err)
	}
	log.Info("capture clock set", "bare_rate_hz", bareRateHz, "decimation", decimation, "realized_hz", realizedHz)

	if err := sdk.SetInputControl(ChannelA, cfg.Coupling, cfg.Range, cfg.Impedance); err != nil {
		return faultkind.New(faultkind.HardwareTransport, "SetInputControl(A)", err)
	}
	if err := sdk.SetInputControl(ChannelB, cfg.Coupling, cfg.Range, cfg.Impedance); err != nil {
		return faultkind.New(faultkind.HardwareTransport, "SetInputControl(B)", err)
	}
	if err := sdk.SetBWLimit(ChannelA, cfg.BWLimit); err != nil {
		return faultkind.New(faultkind.HardwareTransport, "SetBWLimit(A)", err)
	}
	if err := sdk.SetBWLimit(ChannelB, cfg.BWLimit); err != nil {
		return faultkind.New(faultkind.HardwareTransport, "SetBWLimit(B)", err)
	}
	if err := sdk.SetRecordSize(cfg.PreTriggerSamples, cfg.SamplesPerBuffer); err != nil {
		return faultkind.New(faultkind.HardwareTransport, "SetRecordSize", err)
	}

	bufs := make([][]uint16, cfg.BufferCount)
	for i := range bufs {
		bufs[i] = make([]uint16, 2*cfg.SamplesPerBuffer)
		if err := sdk.PostAsyncBuffer(bufs[i]); err != nil {
			return abort(sdk, faultkind.New(faultkind.HardwareTransport, "PostAsyncBuffer", err))
		}
	}

	if err := sdk.StartCapture(); err != nil {
		return abort(sdk, faultkind.New(faultkind.HardwareTransport, "StartCapture", err))
	}

	nominal := time.Duration(0)
	if realizedHz > 0 {
		nominal = time.Duration(float64(cfg.SamplesPerBuffer) / realizedHz * float64(time.Second))
	}
	timeout := 10 * nominal
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	head := 0
	var seq uint64
	fail := func(err error) error {
		flags.SetFatal(err)
		out.MarkDone()
		sdk.AbortAsyncRead()
		log.Error("acquisition aborted", "err", err)
		return err
	}

	for {
		if ctx.Err() != nil || flags.PauseRequested() {
			flags.MarkComplete()
			out.MarkDone()
			log.Info("acquisition stopped", "buffers", seq)
			return nil
		}

		if err := sdk.ForceTrigger(); err != nil {
			return fail(faultkind.New(faultkind.HardwareTransport, "ForceTrigger", err))
		}
		if err := sdk.WaitAsyncBufferComplete(bufs[head], timeout); err != nil {
			return fail(faultkind.New(faultkind.HardwareTransport, "WaitAsyncBufferComplete", err))
		}

		samples := codesToVoltage(bufs[head], cfg.SamplesPerBuffer, float64(cfg.Range))
		out.Push(RawBuffer{Seq: seq, Samples: samples})
		seq++

		if err := sdk.PostAsyncBuffer(bufs[head]); err != nil {
			return fail(faultkind.New(faultkind.HardwareTransport, "PostAsyncBuffer(repost)", err))
		}
		head = (head + 1) % len(bufs)
	}
}

func abort(sdk BoardSDK, err error) error {
	sdk.AbortAsyncRead()
	return err
}

// codesToVoltage converts n interleaved (A, B) 16-bit unsigned codes
// into n complex voltage samples, applying the ±1 alternation that
// shifts the DFT origin so the physical DC bin lands at k = N/2.
func codesToVoltage(buf []uint16, n uint32, fullScale float64) []complex128 {
	out := make([]complex128, n)
	for i := uint32(0); i < n; i++ {
		a := codeToVolts(buf[2*i], fullScale)
		b := codeToVolts(buf[2*i+1], fullScale)
		if i%2 == 1 {
			a, b = -a, -b
		}
		out[i] = complex(a, b)
	}
	return out
}

func codeToVolts(c uint16, fullScale float64) float64 {
	return (float64(c)/0xFFFF)*2*fullScale - fullScale
}

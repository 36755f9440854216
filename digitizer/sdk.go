package digitizer

import "time"

// Channel identifies one of the two analog input channels. Channel A
// samples form the real part of an emitted complex sample; Channel B
// forms the imaginary part.
type Channel int

const (
	ChannelA Channel = iota
	ChannelB
)

// Coupling selects AC or DC input coupling for a channel.
type Coupling int

const (
	CouplingDC Coupling = iota
	CouplingAC
)

// InputRange is a legal full-scale input range, in volts.
type InputRange float64

const (
	Range200mV InputRange = 0.2
	Range400mV InputRange = 0.4
	Range800mV InputRange = 0.8
	Range2V    InputRange = 2.0
)

// Impedance is a legal input impedance, in ohms.
type Impedance float64

const (
	Impedance50Ohm Impedance = 50
	Impedance1MOhm Impedance = 1e6
)

// BoardSDK is the narrow interface the Digitizer Adapter drives to
// operate the vendor digitizer. It mirrors the digitizer SDK operations
// named in the external-interfaces contract one-to-one: open board,
// configure the external sample clock, configure per-channel input,
// arm, and drive the post/wait/re-post DMA loop.
//
// No vendor-SDK implementation is included in this module;
// digitizer/simsdk supplies a synthetic implementation used by the
// pipeline tests and by the `run` and `bench` CLI subcommands.
type BoardSDK interface {
	OpenBoard(systemID, boardID uint32) error

	// SetCaptureClock configures the external 10MHz-referenced sample
	// clock at the given bare rate and decimation, rising edge.
	SetCaptureClock(bareRateHz uint64, decimation uint32) error

	SetInputControl(ch Channel, coupling Coupling, rng InputRange, imp Impedance) error
	SetBWLimit(ch Channel, enabled bool) error
	SetRecordSize(preTriggerSamples, samplesPerBuffer uint32) error

	StartCapture() error
	PostAsyncBuffer(buf []uint16) error
	// WaitAsyncBufferComplete blocks until buf is filled or timeout
	// elapses; the caller uses 10x the nominal buffer duration.
	WaitAsyncBufferComplete(buf []uint16, timeout time.Duration) error
	ForceTrigger() error
	AbortAsyncRead() error

	Close() error
}

package faultkind

import (
	"errors"
	"testing"
)

func TestNewNilPassthrough(t *testing.T) {
	if err := New(Configuration, "op", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestIsMatchesKind(t *testing.T) {
	base := errors.New("wait timeout")
	err := New(HardwareTransport, "WaitAsyncBufferComplete", base)
	if !Is(err, HardwareTransport) {
		t.Fatalf("expected HardwareTransport, got %v", err)
	}
	if Is(err, Configuration) {
		t.Fatalf("did not expect Configuration match")
	}
}

func TestUnwrap(t *testing.T) {
	base := errors.New("odd fft length")
	err := New(NumericalPrecondition, "", base)
	if !errors.Is(err, base) {
		t.Fatalf("expected errors.Is to unwrap to base error")
	}
}

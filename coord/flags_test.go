package coord

import (
	"errors"
	"testing"
)

func TestFlagsRequestPause(t *testing.T) {
	f := NewFlags()
	if f.PauseRequested() {
		t.Fatal("expected PauseRequested false initially")
	}
	f.RequestPause()
	if !f.PauseRequested() {
		t.Fatal("expected PauseRequested true after RequestPause")
	}
	if f.Complete() {
		t.Fatal("RequestPause should not itself mark completion")
	}
}

func TestFlagsSetFatalSetsBoth(t *testing.T) {
	f := NewFlags()
	err := errors.New("boom")
	f.SetFatal(err)
	if !f.PauseRequested() || !f.Complete() {
		t.Fatal("expected both flags set after SetFatal")
	}
	if f.Err() != err {
		t.Fatalf("expected Err() to return %v, got %v", err, f.Err())
	}
	f.SetFatal(errors.New("second"))
	if f.Err() != err {
		t.Fatal("expected only the first fatal error to be kept")
	}
}

func TestFlagsReset(t *testing.T) {
	f := NewFlags()
	f.SetFatal(errors.New("boom"))
	f.Reset()
	if f.PauseRequested() || f.Complete() || f.Err() != nil {
		t.Fatal("expected clean state after Reset")
	}
}

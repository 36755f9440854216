// Package coord holds the small set of coordination primitives shared
// by every pipeline stage: the pause/complete flags struct and the
// bounded, condition-variable-signaled queue that stages hand buffers
// through. Grounded on original_source's SharedData/SynchronizationFlags
// structs (guarded by a std::mutex and std::condition_variable per
// consumer) and on the teacher's nicerx.TaskQueue, which uses the same
// mutex-plus-condition-variable shape for a Go worker loop.
package coord

import "sync"

// Flags is the shared coordination object described for the scan's
// concurrency model: a pause request and a completion signal, plus an
// optional first fatal error, all guarded by one mutex so stages never
// observe a torn combination of the two flags.
type Flags struct {
	mu               sync.Mutex
	pauseRequested   bool
	acquireComplete  bool
	fatalErr         error
	cond             *sync.Cond
}

func NewFlags() *Flags {
	f := &Flags{}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// RequestPause asks the Acquisition stage to finish its current buffer
// and stop; it does not itself mark completion.
func (f *Flags) RequestPause() {
	f.mu.Lock()
	f.pauseRequested = true
	f.mu.Unlock()
	f.cond.Broadcast()
}

func (f *Flags) PauseRequested() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pauseRequested
}

// MarkComplete signals that acquisition has stopped producing buffers;
// downstream stages drain their queues and exit once they observe this
// with an empty queue.
func (f *Flags) MarkComplete() {
	f.mu.Lock()
	f.acquireComplete = true
	f.mu.Unlock()
	f.cond.Broadcast()
}

func (f *Flags) Complete() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acquireComplete
}

// SetFatal records the first fatal error seen by any stage and sets
// both flags so every peer unblocks. Subsequent calls are no-ops: only
// the first fatal error is kept.
func (f *Flags) SetFatal(err error) {
	if err == nil {
		return
	}
	f.mu.Lock()
	if f.fatalErr == nil {
		f.fatalErr = err
	}
	f.pauseRequested = true
	f.acquireComplete = true
	f.mu.Unlock()
	f.cond.Broadcast()
}

func (f *Flags) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fatalErr
}

// Reset clears all flags and the recorded error, for the start of a new
// scan or a new LO tuning step.
func (f *Flags) Reset() {
	f.mu.Lock()
	f.pauseRequested = false
	f.acquireComplete = false
	f.fatalErr = nil
	f.mu.Unlock()
}

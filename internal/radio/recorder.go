package radio

import (
	"sync"
)

// Call is one recorded Advertiser invocation.
type Call struct {
	Op      string
	Payload Payload
	Params  Params
}

// Recorder is an in-memory Advertiser. It records every call, can be told
// to fail individual operations, and counts calls that would have clobbered
// an active advertisement.
type Recorder struct {
	mu       sync.Mutex
	calls    []Call
	failures map[string]error
	active   bool
	overlaps int
	closed   bool
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{failures: make(map[string]error)}
}

// FailOn makes op return err until cleared with a nil err.
func (r *Recorder) FailOn(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.failures, op)
		return
	}
	r.failures[op] = err
}

func (r *Recorder) record(c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.calls = append(r.calls, c)

	switch c.Op {
	case OpConfigure, OpStart:
		if r.active {
			r.overlaps++
		}
	}
	if err := r.failures[c.Op]; err != nil {
		return err
	}
	switch c.Op {
	case OpStart:
		r.active = true
	case OpStop:
		r.active = false
	}
	return nil
}

// Configure records the payload.
func (r *Recorder) Configure(payload Payload, params Params) error {
	return r.record(Call{Op: OpConfigure, Payload: payload, Params: params})
}

// Start records an enable.
func (r *Recorder) Start() error { return r.record(Call{Op: OpStart}) }

// Stop records a disable.
func (r *Recorder) Stop() error { return r.record(Call{Op: OpStop}) }

// Close marks the recorder closed.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Payloads returns the payload of every Configure call in order.
func (r *Recorder) Payloads() []Payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Payload
	for _, c := range r.calls {
		if c.Op == OpConfigure {
			out = append(out, c.Payload)
		}
	}
	return out
}

// Overlaps reports how many Configure/Start calls arrived while advertising
// was already active.
func (r *Recorder) Overlaps() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlaps
}

// Active reports whether advertising is currently enabled.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Reset clears recorded calls and counters.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
	r.overlaps = 0
	r.active = false
}

package metrics

import (
	"sync"
	"testing"
)

type recordingBackend struct {
	mu       sync.Mutex
	counters map[string]float64
	flushed  int
}

func (r *recordingBackend) IncCounter(name string, delta float64, labels Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counters == nil {
		r.counters = map[string]float64{}
	}
	r.counters[name] += delta
}

func (r *recordingBackend) ObserveHistogram(string, float64, Labels) {}

func (r *recordingBackend) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushed++
	return nil
}

func TestSetBackendDelegation(t *testing.T) {
	rb := &recordingBackend{}
	SetBackend(rb)
	t.Cleanup(func() { SetBackend(nil) })

	IncCounter("salesmart_records_total", 3, Labels{"kind": "sales"})
	IncCounter("salesmart_records_total", 2, Labels{"kind": "sales"})
	if err := Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if got := rb.counters["salesmart_records_total"]; got != 5 {
		t.Errorf("counter = %v, want 5", got)
	}
	if rb.flushed != 1 {
		t.Errorf("flushed %d times, want 1", rb.flushed)
	}
}

func TestNilBackendRestoresNop(t *testing.T) {
	SetBackend(nil)

	// Must not panic and must be a no-op.
	IncCounter("x", 1, nil)
	ObserveHistogram("y", 0.5, nil)
	if err := Flush(); err != nil {
		t.Fatalf("nop Flush: %v", err)
	}
}

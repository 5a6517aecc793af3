package pool

import (
	"testing"
	"time"
)

// newTestPool starts a pool and closes it when the test ends.
func newTestPool(t *testing.T, workers int, opts ...Option) *ThreadPool {
	t.Helper()

	p, err := New(workers, opts...)
	if err != nil {
		t.Fatalf("New(%d) failed: %v", workers, err)
	}
	t.Cleanup(func() {
		_ = p.Close()
	})
	return p
}

// waitFor polls cond until it holds or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before timeout")
		}
		time.Sleep(time.Millisecond)
	}
}

// gate blocks tasks until it is opened.
type gate chan struct{}

func newGate() gate { return make(gate) }

func (g gate) wait() { <-g }
func (g gate) open() { close(g) }

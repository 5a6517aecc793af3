package pool

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Future is the handle returned for a submitted task. It is written exactly
// once, by the worker that runs the task, and can be read any number of times
// from any goroutine. Reads before the write block.
//
// Type parameters:
//   - R: The result type of the task
type Future[R any] struct {
	id       int64
	done     chan struct{}
	resolved atomic.Bool

	// value and err are written once before done is closed and only read
	// after it is closed.
	value R
	err   error
}

func newFuture[R any](id int64) *Future[R] {
	return &Future[R]{
		id:   id,
		done: make(chan struct{}),
	}
}

// resolve publishes the outcome and releases every waiter. A second call is
// a defect in the pool and panics.
func (f *Future[R]) resolve(value R, err error) {
	if !f.resolved.CompareAndSwap(false, true) {
		panic(newError(KindLogic, fmt.Sprintf("future %d resolved twice", f.id), nil))
	}
	f.value = value
	f.err = err
	close(f.done)
}

// ID returns the pool-wide sequence number of the task behind this future.
func (f *Future[R]) ID() int64 {
	return f.id
}

// Get blocks until the task has finished and returns its result. Every call
// returns the same value and error.
//
// Example:
//
//	future, _ := pool.Submit(p, func() (int, error) { return 6 * 7, nil })
//	v, err := future.Get() // 42, nil
func (f *Future[R]) Get() (R, error) {
	<-f.done
	return f.value, f.err
}

// GetWithContext is like Get but gives up when ctx is done. Giving up does not
// cancel the task; a later Get still returns its result.
func (f *Future[R]) GetWithContext(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// GetWithTimeout waits at most d for the result.
func (f *Future[R]) GetWithTimeout(d time.Duration) (R, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return f.GetWithContext(ctx)
}

// TryGet returns the result without blocking. ready is false while the task
// is still queued or running.
func (f *Future[R]) TryGet() (value R, ready bool, err error) {
	select {
	case <-f.done:
		return f.value, true, f.err
	default:
		var zero R
		return zero, false, nil
	}
}

// Done returns a channel that is closed once the result is available.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// IsReady reports whether the result is available.
func (f *Future[R]) IsReady() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

package pool

import "sync"

// Batch buffers the futures of many submissions to one pool and collects
// them together, in submission order.
//
// A Batch does not own its pool; shutting the pool down is the caller's job.
// CollectAll detaches the buffered futures in one step, so submissions made
// while a collection is waiting go into the next collection. The buffer lock
// is never held while waiting on a future, so tasks may themselves submit to
// the batch.
//
// Failure policy: CollectAll always waits for every detached future, leaving
// the buffer empty, and then reports the first failure in submission order.
//
// Type parameters:
//   - R: The result type of the batched tasks
type Batch[R any] struct {
	pool *ThreadPool

	mu  sync.Mutex
	buf []*Future[R]

	// collecting serialises collectors so two concurrent CollectAll calls
	// finish in the order they detached their buffers.
	collecting sync.Mutex
}

// NewBatch creates a batch over p. reserve pre-sizes the buffer.
//
// Example:
//
//	b := pool.NewBatch[int](p, len(inputs))
//	for _, in := range inputs {
//	    _ = b.Submit(func() (int, error) { return in * in, nil })
//	}
//	squares, err := b.CollectAll()
func NewBatch[R any](p *ThreadPool, reserve int) *Batch[R] {
	return &Batch[R]{
		pool: p,
		buf:  make([]*Future[R], 0, max(reserve, 0)),
	}
}

// Submit forwards fn to the pool and buffers its future.
// The pool's submission errors (ErrPoolClosed, nil fn) are returned as is
// and nothing is buffered.
func (b *Batch[R]) Submit(fn func() (R, error)) error {
	f, err := Submit(b.pool, fn)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.buf = append(b.buf, f)
	b.mu.Unlock()
	return nil
}

// CollectAll waits for every buffered task and returns their values in
// submission order. The returned slice always has one entry per detached
// task; failed tasks leave the zero value in their slot and the first
// failure is returned as a *TaskError. With nothing buffered it returns an
// empty slice and a nil error.
func (b *Batch[R]) CollectAll() ([]R, error) {
	results := b.CollectResults()

	values := make([]R, len(results))
	var firstErr error
	for i, r := range results {
		values[i] = r.Value
		if r.Error != nil && firstErr == nil {
			firstErr = &TaskError{Index: r.Index, Err: r.Error}
		}
	}
	return values, firstErr
}

// CollectResults is CollectAll with per-task outcomes instead of a single
// error.
func (b *Batch[R]) CollectResults() []Result[R] {
	b.collecting.Lock()
	defer b.collecting.Unlock()

	futures := b.detach()
	results := make([]Result[R], len(futures))
	for i, f := range futures {
		v, err := f.Get()
		results[i] = Result[R]{Value: v, Error: err, Index: i}
	}
	return results
}

// Pending returns how many futures are buffered and not yet collected.
func (b *Batch[R]) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

// detach swaps the buffer out under the lock, keeping its capacity for the
// next round.
func (b *Batch[R]) detach() []*Future[R] {
	b.mu.Lock()
	defer b.mu.Unlock()

	futures := b.buf
	b.buf = make([]*Future[R], 0, cap(futures))
	return futures
}

// VoidBatch is the Batch for tasks that produce no value, for callers that
// only care about completion.
type VoidBatch struct {
	batch *Batch[struct{}]
}

// NewVoidBatch creates a VoidBatch over p.
func NewVoidBatch(p *ThreadPool, reserve int) *VoidBatch {
	return &VoidBatch{batch: NewBatch[struct{}](p, reserve)}
}

// Submit forwards fn to the pool and buffers its future.
func (b *VoidBatch) Submit(fn func() error) error {
	f, err := SubmitVoid(b.batch.pool, fn)
	if err != nil {
		return err
	}

	b.batch.mu.Lock()
	b.batch.buf = append(b.batch.buf, f)
	b.batch.mu.Unlock()
	return nil
}

// CollectAll waits for every buffered task and returns the first failure in
// submission order as a *TaskError, or nil.
func (b *VoidBatch) CollectAll() error {
	_, err := b.batch.CollectAll()
	return err
}

// Pending returns how many futures are buffered and not yet collected.
func (b *VoidBatch) Pending() int {
	return b.batch.Pending()
}

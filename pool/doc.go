// Package pool provides a fixed-size thread pool with future handles and
// ordered batch collection.
//
// A ThreadPool owns N persistent workers that pull work from one unbounded
// FIFO queue. Submitting never blocks on worker availability and returns a
// Future for the task's eventual result. A Batch buffers many futures and
// collects them in one call, in submission order regardless of which task
// finished first.
//
// # Basic Usage
//
//	p, err := pool.New(4)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//
//	future, _ := pool.Submit(p, func() (string, error) {
//	    return "hello", nil
//	})
//	s, err := future.Get()
//
// # Batches
//
//	b := pool.NewBatch[int](p, 4)
//	for i := range 4 {
//	    _ = b.Submit(func() (int, error) { return i * i, nil })
//	}
//	squares, err := b.CollectAll() // [0 1 4 9]
//
// Tasks with no result value use SubmitVoid and VoidBatch.
//
// # Shutdown
//
// Shutdown is data driven: it appends one stop sentinel per worker behind
// everything already queued, so all work submitted before shutdown runs to
// completion (graceful drain). The pool moves Running -> Draining ->
// Terminated and never goes back; submissions after shutdown has begun
// return ErrPoolClosed.
//
// # Error Handling
//
// Errors raised by the pool are *Error values tagged with a Kind
// (KindLogic, KindInvalidParameter, KindSystem, KindRuntime) and can be
// tested with errors.Is against ErrLogic, ErrInvalidParameter, ErrSystem and
// ErrRuntime. A failing task never stops its worker: the task's error, or a
// KindRuntime error for a recovered panic, is attached to its future and
// surfaces from Get or CollectAll.
//
// # Configuration Options
//
//   - WithLogger(l): logrus logger for lifecycle events (silent by default, stderr with -tags debug)
//   - WithMetrics(m): Prometheus collectors created by NewMetrics
//   - WithRateLimit(tasksPerSecond, burst): throttle task starts
//   - WithRetryPolicy(maxAttempts, initialDelay): retry failing tasks with backoff
//   - WithBackoff(kind, maxDelay, jitter): choose the retry delay curve
//   - WithCPUAffinity(enabled): pin each worker to a core
//   - WithBeforeTaskStart, WithOnTaskEnd, WithOnRetry: task lifecycle hooks
package pool

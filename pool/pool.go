package pool

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/utkarsh5026/cubs/internal/algorithms"
	"github.com/utkarsh5026/cubs/internal/cpu"
	"github.com/utkarsh5026/cubs/internal/queue"
	"golang.org/x/sync/errgroup"
)

// workItem is one unit pulled from the queue by a worker. It reports whether
// the worker should stop: normal work always returns false, the shutdown
// sentinel returns true. The argument is the index of the running worker.
type workItem func(workerID int) (stop bool)

// stopWorker is the sentinel; each worker that pops one exits its loop.
func stopWorker(int) bool { return true }

// pinWorker is swapped out in tests to simulate start-up failures.
var pinWorker = cpu.Pin

// ThreadPool is a fixed-size pool of persistent workers fed by one FIFO queue.
//
// Workers are started by New and live until Shutdown. Submission never waits
// for a free worker: the queue absorbs any backlog. Shutdown appends one stop
// sentinel per worker behind all queued work, so everything submitted before
// shutdown runs to completion first.
type ThreadPool struct {
	id      string
	size    int
	conf    *config
	backoff algorithms.Backoff
	log     logrus.FieldLogger

	tasks *queue.Queue[workItem]

	// mu is held shared by submitters and exclusively by Shutdown while it
	// flips the state and enqueues sentinels, so no task can land behind them.
	mu     sync.RWMutex
	state  atomic.Int32
	taskID atomic.Int64

	workers errgroup.Group
	done    chan struct{}
}

// New starts a pool with the given number of workers.
//
// Parameters:
//   - workers: Number of workers, must be at least 1
//   - opts: Functional options (logger, metrics, retries, rate limit, ...)
//
// Returns:
//   - *ThreadPool: A running pool
//   - error: KindInvalidParameter for a bad worker count, KindSystem if a
//     worker failed to start (already started workers are stopped first)
//
// Example:
//
//	p, err := pool.New(4)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
func New(workers int, opts ...Option) (*ThreadPool, error) {
	if workers < 1 {
		return nil, newError(KindInvalidParameter,
			fmt.Sprintf("worker count must be at least 1, got %d", workers), nil)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = newDefaultLogger()
	}

	id := uuid.NewString()
	p := &ThreadPool{
		id:      id,
		size:    workers,
		conf:    cfg,
		backoff: cfg.backoff(),
		log:     cfg.logger.WithField("pool_id", id),
		tasks:   queue.New[workItem](),
		done:    make(chan struct{}),
	}

	if err := p.start(); err != nil {
		return nil, err
	}
	return p, nil
}

// start launches the workers and waits until each has either entered its
// loop or failed its setup.
func (p *ThreadPool) start() error {
	ready := make(chan error, p.size)
	for i := range p.size {
		p.workers.Go(func() error {
			return p.runWorker(i, ready)
		})
	}

	var startErr error
	started := 0
	for range p.size {
		if err := <-ready; err != nil {
			startErr = errors.Join(startErr, err)
			continue
		}
		started++
	}

	if startErr != nil {
		p.state.Store(int32(StateDraining))
		for range started {
			p.tasks.Push(stopWorker)
		}
		_ = p.workers.Wait()
		p.state.Store(int32(StateTerminated))
		close(p.done)

		p.log.WithError(startErr).WithField("started", started).Warn("worker start-up failed, pool torn down")
		return newError(KindSystem, fmt.Sprintf("failed to start %d of %d workers", p.size-started, p.size), startErr)
	}

	p.log.WithField("workers", p.size).Debug("pool started")

	go func() {
		_ = p.workers.Wait()
		p.state.Store(int32(StateTerminated))
		p.log.Debug("pool terminated")
		close(p.done)
	}()
	return nil
}

// runWorker is the loop of a single worker: pop, run, stop on a sentinel.
// Failures inside tasks never reach this loop; they are attached to futures.
func (p *ThreadPool) runWorker(workerID int, ready chan<- error) error {
	if p.conf.pinWorkers {
		release, err := pinWorker(workerID)
		if err != nil {
			ready <- err
			return err
		}
		defer release()
	}
	ready <- nil

	p.conf.metrics.workerUp()
	defer p.conf.metrics.workerDown()

	log := p.log.WithField("worker_id", workerID)
	log.Debug("worker started")

	for {
		item := p.tasks.Pop()
		if item(workerID) {
			log.Debug("worker stopped")
			return nil
		}
	}
}

// Submit queues fn on the pool and returns a future for its result.
// It never blocks on worker availability. Values the task needs are bound
// by the closure at the call site.
//
// Returns ErrPoolClosed once shutdown has begun, and a KindInvalidParameter
// error for a nil fn.
//
// Example:
//
//	n := 21
//	future, err := pool.Submit(p, func() (int, error) { return n * 2, nil })
//	if err != nil {
//	    return err
//	}
//	v, err := future.Get()
func Submit[R any](p *ThreadPool, fn func() (R, error)) (*Future[R], error) {
	if fn == nil {
		return nil, newError(KindInvalidParameter, "task function is nil", nil)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.State() != StateRunning {
		return nil, ErrPoolClosed
	}

	id := p.taskID.Add(1)
	future := newFuture[R](id)

	p.conf.metrics.submitted()
	p.tasks.Push(func(workerID int) bool {
		p.conf.metrics.dequeued()
		result, err := runTask(p, TaskInfo{ID: id, WorkerID: workerID}, fn)
		future.resolve(result, err)
		return false
	})

	return future, nil
}

// SubmitVoid queues a task that produces no value. The future resolves to
// struct{}{} and the task's error.
func SubmitVoid(p *ThreadPool, fn func() error) (*Future[struct{}], error) {
	if fn == nil {
		return nil, newError(KindInvalidParameter, "task function is nil", nil)
	}
	return Submit(p, func() (struct{}, error) {
		return struct{}{}, fn()
	})
}

// Shutdown stops accepting work, lets every queued task run, and waits for
// the workers to exit.
//
// Parameters:
//   - timeout: Maximum time to wait for the workers (0 = wait forever)
//
// Returns:
//   - error: ErrPoolClosed if shutdown already began, ErrShutdownTimeout if the
//     workers were still draining when the timeout expired (they keep going)
//
// Shutdown must not be called from inside a task of the same pool with a
// zero timeout: the calling worker would wait on itself.
func (p *ThreadPool) Shutdown(timeout time.Duration) error {
	p.mu.Lock()
	if !p.state.CompareAndSwap(int32(StateRunning), int32(StateDraining)) {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	for range p.size {
		p.tasks.Push(stopWorker)
	}
	p.mu.Unlock()

	p.log.WithField("backlog", p.tasks.Len()-p.size).Debug("pool draining")
	return waitUntil(p.done, timeout)
}

// Close shuts the pool down and waits for every worker. Calling it on a pool
// that is already shutting down just waits.
func (p *ThreadPool) Close() error {
	err := p.Shutdown(0)
	if errors.Is(err, ErrPoolClosed) {
		<-p.done
		return nil
	}
	return err
}

// ID returns the unique identifier of this pool, used in log fields.
func (p *ThreadPool) ID() string {
	return p.id
}

// Size returns the number of workers, fixed for the pool's lifetime.
func (p *ThreadPool) Size() int {
	return p.size
}

// TaskBacklog returns how many items are queued and not yet picked up.
// During draining the count includes the stop sentinels.
func (p *ThreadPool) TaskBacklog() int {
	return p.tasks.Len()
}

// IsBacklogEmpty reports whether nothing is waiting in the queue.
func (p *ThreadPool) IsBacklogEmpty() bool {
	return p.tasks.IsEmpty()
}

// State returns the current lifecycle phase.
func (p *ThreadPool) State() State {
	return State(p.state.Load())
}

// Done returns a channel closed once every worker has exited.
func (p *ThreadPool) Done() <-chan struct{} {
	return p.done
}

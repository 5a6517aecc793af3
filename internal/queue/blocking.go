package queue

import "sync"

// Queue is an unbounded, thread-safe FIFO queue whose consumers block
// while it is empty.
//
// Producers never wait on consumers: Push only holds the mutex long enough
// to append. Consumers park on a condition variable and re-check the
// non-empty predicate on every wake-up, so spurious wake-ups and racing
// poppers never observe an empty queue.
type Queue[T any] struct {
	mu       sync.Mutex
	nonEmpty *sync.Cond
	items    []T
	head     int
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	q := &Queue[T]{}
	q.nonEmpty = sync.NewCond(&q.mu)
	return q
}

// Push appends item to the tail and wakes exactly one waiting consumer.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()

	q.nonEmpty.Signal()
}

// Pop removes and returns the head of the queue, blocking until an item
// is available.
func (q *Queue[T]) Pop() T {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.lenLocked() == 0 {
		q.nonEmpty.Wait()
	}
	return q.takeLocked()
}

// TryPop removes and returns the head without blocking.
// The boolean is false when the queue was empty.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.lenLocked() == 0 {
		var zero T
		return zero, false
	}
	return q.takeLocked(), true
}

// Len returns a point-in-time count of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lenLocked()
}

// IsEmpty reports whether the queue held no items at the time of the call.
func (q *Queue[T]) IsEmpty() bool {
	return q.Len() == 0
}

func (q *Queue[T]) lenLocked() int {
	return len(q.items) - q.head
}

// takeLocked pops the head. The backing slice is compacted once the consumed
// prefix outgrows the live part so a long-lived queue does not pin memory.
func (q *Queue[T]) takeLocked() T {
	var zero T
	item := q.items[q.head]
	q.items[q.head] = zero
	q.head++

	switch {
	case q.head == len(q.items):
		q.items = q.items[:0]
		q.head = 0
	case q.head > 64 && q.head*2 > len(q.items):
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return item
}

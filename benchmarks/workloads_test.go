package benchmarks

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// =============================================================================
// Benchmark Workload Generators
// =============================================================================

// cpuBoundWork simulates a CPU-intensive operation on task.
func cpuBoundWork(iterations, task int) func() (int, error) {
	return func() (int, error) {
		result := 0
		for i := 0; i < iterations; i++ {
			result += i * task
		}
		return result, nil
	}
}

// ioBoundWork simulates an I/O operation with a fixed delay.
func ioBoundWork(delay time.Duration, task int) func() (int, error) {
	return func() (int, error) {
		time.Sleep(delay)
		return task * 2, nil
	}
}

// mixedWork simulates variable processing time (0-9ms) plus some computation.
func mixedWork(task int) func() (int, error) {
	return func() (int, error) {
		time.Sleep(time.Duration(task%10) * time.Millisecond)

		result := 0
		for i := 0; i < 1000; i++ {
			result += i
		}
		return result + task, nil
	}
}

// flakyWork fails the first attempt of every n-th task, so one retry fixes it.
type flakyWork struct {
	every    int
	attempts sync.Map
}

func (f *flakyWork) task(task int) func() (int, error) {
	return func() (int, error) {
		val, _ := f.attempts.LoadOrStore(task, new(atomic.Int32))
		count := val.(*atomic.Int32).Add(1)

		if count == 1 && task%f.every == 0 {
			return 0, fmt.Errorf("simulated error for task %d", task)
		}
		return task * 2, nil
	}
}

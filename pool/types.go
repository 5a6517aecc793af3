package pool

import "time"

// Result is the outcome of one batch entry.
//
// Fields:
//   - Value: The task's result (zero if Error is set)
//   - Error: The failure attached to the task's future, if any
//   - Index: Position of the task in submission order within the batch
type Result[R any] struct {
	Value R
	Error error
	Index int
}

// TaskInfo describes a task to the lifecycle hooks.
type TaskInfo struct {
	// ID is the pool-wide submission sequence number (starting at 1).
	ID int64

	// WorkerID is the index of the worker running the task.
	WorkerID int

	// Attempt is the 1-based attempt currently running or just finished.
	Attempt int

	// Elapsed is the time spent running the task so far (set for OnTaskEnd).
	Elapsed time.Duration
}

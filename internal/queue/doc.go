// Package queue provides the blocking FIFO queue that feeds pool workers.
//
// The queue is deliberately simple: one mutex, one condition variable and a
// slice. Ordering is strict first-in first-out with no priorities, and
// capacity is unbounded, so Push can never report "full".
package queue

package pool

import (
	"errors"
	"fmt"
)

// Kind classifies failures raised by the pool so that callers can branch on
// the category instead of matching message strings.
type Kind int

const (
	// KindLogic marks programmer misuse, e.g. submitting to a closed pool.
	KindLogic Kind = iota + 1
	// KindInvalidParameter marks a bad argument, e.g. a zero worker count.
	KindInvalidParameter
	// KindSystem marks resource failures, e.g. a worker that could not start.
	KindSystem
	// KindRuntime marks failures while running a task, e.g. a recovered panic.
	KindRuntime
)

// String returns the human readable category name.
func (k Kind) String() string {
	switch k {
	case KindLogic:
		return "logic error"
	case KindInvalidParameter:
		return "argument error"
	case KindSystem:
		return "system error"
	case KindRuntime:
		return "runtime error"
	default:
		return "unknown error"
	}
}

// Sentinels usable with errors.Is to test the category of any *Error.
var (
	ErrLogic            = &Error{Kind: KindLogic}
	ErrInvalidParameter = &Error{Kind: KindInvalidParameter}
	ErrSystem           = &Error{Kind: KindSystem}
	ErrRuntime          = &Error{Kind: KindRuntime}
)

var (
	// ErrPoolClosed is returned when work is submitted or shutdown is requested
	// after shutdown has already begun.
	ErrPoolClosed = newError(KindLogic, "pool is shut down", nil)

	// ErrShutdownTimeout is returned by Shutdown when the workers did not
	// finish draining within the timeout.
	ErrShutdownTimeout = newError(KindSystem, "shutdown timeout reached", nil)
)

// Error is the tagged error value raised by the pool. It carries a category,
// a message and optionally the underlying cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

func (e *Error) Error() string {
	switch {
	case e.Msg == "" && e.Err == nil:
		return "[" + e.Kind.String() + "]"
	case e.Err == nil:
		return fmt.Sprintf("[%s] %s", e.Kind, e.Msg)
	case e.Msg == "":
		return fmt.Sprintf("[%s] %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Msg, e.Err)
	}
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match against the category sentinels (a target without a
// message) or against an identical error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Msg == "" && t.Err == nil {
		return e.Kind == t.Kind
	}
	return e == t
}

// KindOf extracts the category of the first *Error found in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// TaskError identifies which entry of a batch failed.
type TaskError struct {
	Index int
	Err   error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("batch task %d: %v", e.Index, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

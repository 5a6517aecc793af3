package pool

// State is the lifecycle phase of a ThreadPool. A pool moves forward only:
// Running -> Draining -> Terminated.
type State int32

const (
	// StateRunning accepts submissions and runs them.
	StateRunning State = iota
	// StateDraining rejects submissions; queued work still runs while each
	// worker consumes its stop sentinel.
	StateDraining
	// StateTerminated means every worker has exited.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

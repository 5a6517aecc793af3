package algorithms

import (
	"math/rand"
	"sync"
	"time"
)

// maxShift prevents overflow of the 1<<attempt factor.
const maxShift = 62

// BackoffType selects the delay curve used between retry attempts.
type BackoffType int

const (
	// BackoffExponential doubles the delay on every attempt (default).
	BackoffExponential BackoffType = iota
	// BackoffJittered is exponential backoff with a random ±jitter spread.
	BackoffJittered
	// BackoffConstant waits the initial delay before every retry.
	BackoffConstant
)

func (b BackoffType) String() string {
	switch b {
	case BackoffExponential:
		return "exponential"
	case BackoffJittered:
		return "jittered"
	case BackoffConstant:
		return "constant"
	default:
		return "unknown"
	}
}

// Backoff computes the wait before a retry.
//
// attempt is 0-indexed: 0 is the wait before the first retry.
type Backoff interface {
	NextDelay(attempt int) time.Duration
}

// NewBackoff builds the strategy for the given type. A non-positive maxDelay
// means "no cap" and jitter is clamped to [0, 1].
func NewBackoff(kind BackoffType, initialDelay, maxDelay time.Duration, jitter float64) Backoff {
	if initialDelay < 0 {
		initialDelay = 0
	}
	if maxDelay <= 0 {
		maxDelay = time.Duration(1<<63 - 1)
	}

	switch kind {
	case BackoffJittered:
		return &jittered{
			base:   exponential{initial: initialDelay, max: maxDelay},
			jitter: clamp(jitter, 0, 1),
			rng:    rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404 -- jitter does not need crypto rand
		}
	case BackoffConstant:
		return constant(min(initialDelay, maxDelay))
	default:
		return exponential{initial: initialDelay, max: maxDelay}
	}
}

// exponential yields initial * 2^attempt, capped at max.
type exponential struct {
	initial, max time.Duration
}

func (e exponential) NextDelay(attempt int) time.Duration {
	if attempt < 0 || e.initial == 0 {
		return 0
	}
	if attempt > maxShift {
		return e.max
	}

	delay := e.initial * time.Duration(int64(1)<<uint(attempt))
	if delay <= 0 || delay > e.max || delay/time.Duration(int64(1)<<uint(attempt)) != e.initial {
		return e.max
	}
	return delay
}

// jittered spreads the exponential delay by ±jitter so that tasks failing
// together do not retry in lockstep.
type jittered struct {
	base   exponential
	jitter float64

	mu  sync.Mutex
	rng *rand.Rand
}

func (j *jittered) NextDelay(attempt int) time.Duration {
	delay := j.base.NextDelay(attempt)
	if delay == 0 || j.jitter == 0 {
		return delay
	}

	j.mu.Lock()
	factor := 1 + (j.rng.Float64()*2-1)*j.jitter
	j.mu.Unlock()

	return clamp(time.Duration(float64(delay)*factor), 0, j.base.max)
}

type constant time.Duration

func (c constant) NextDelay(attempt int) time.Duration {
	if attempt < 0 {
		return 0
	}
	return time.Duration(c)
}

func clamp[N int | int64 | float64 | time.Duration](v, lo, hi N) N {
	return max(lo, min(v, hi))
}

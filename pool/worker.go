package pool

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
)

// runTask executes fn on the calling worker with rate limiting, hooks and
// retry applied. It never panics: a panic in fn or in a hook is converted to
// a KindRuntime error so the worker loop keeps running.
func runTask[R any](p *ThreadPool, info TaskInfo, fn func() (R, error)) (result R, err error) {
	start := time.Now()
	log := p.log.WithFields(logrus.Fields{"task_id": info.ID, "worker_id": info.WorkerID})

	// accounting runs on every exit path, hook panics included
	defer func() {
		if r := recover(); r != nil {
			var zero R
			result, err = zero, panicError("hook panic", r)
			log.WithError(err).Warn("task hook panicked")
		}

		info.Elapsed = time.Since(start)
		p.conf.metrics.finished(info.Elapsed.Seconds(), err)
		p.taskEnded(info, err, log)
	}()

	if lim := p.conf.rateLimiter; lim != nil {
		if werr := lim.Wait(context.Background()); werr != nil {
			var zero R
			return zero, newError(KindRuntime, "rate limiter", werr)
		}
	}

	maxAttempts := max(p.conf.maxAttempts, 1)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		info.Attempt = attempt

		if attempt > 1 && p.backoff != nil {
			if delay := p.backoff.NextDelay(attempt - 2); delay > 0 {
				time.Sleep(delay)
			}
		}

		if p.conf.beforeTaskStart != nil {
			p.conf.beforeTaskStart(info)
		}

		var panicked bool
		result, err, panicked = processWithRecovery(fn)
		if err == nil || panicked || attempt == maxAttempts {
			if panicked {
				log.WithError(err).Warn("task panicked")
			}
			break
		}

		p.conf.metrics.retried()
		log.WithError(err).WithField("attempt", attempt).Debug("task failed, retrying")
		if p.conf.onRetry != nil {
			p.conf.onRetry(info, attempt, err)
		}
	}

	return result, err
}

// taskEnded calls the onTaskEnd hook. A panic there is logged and dropped
// because the task's result is already settled.
func (p *ThreadPool) taskEnded(info TaskInfo, err error, log *logrus.Entry) {
	if p.conf.onTaskEnd == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.WithError(panicError("hook panic", r)).Warn("task end hook panicked")
		}
	}()
	p.conf.onTaskEnd(info, err)
}

// processWithRecovery calls fn and converts a panic into a KindRuntime error
// carrying the stack trace.
func processWithRecovery[R any](fn func() (R, error)) (result R, err error, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			var zero R
			result, err, panicked = zero, panicError("task panic", r), true
		}
	}()

	result, err = fn()
	return result, err, false
}

func panicError(what string, r any) *Error {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	msg := fmt.Sprintf("%s: %v\nstack trace:\n%s", what, r, buf[:n])

	if cause, ok := r.(error); ok {
		return newError(KindRuntime, msg, cause)
	}
	return newError(KindRuntime, msg, nil)
}

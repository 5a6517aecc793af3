//go:build !linux

package cpu

import "runtime"

// Pin locks the goroutine to an OS thread. Core pinning is not available on
// this platform, so the thread may still migrate between cores.
func Pin(workerID int) (release func(), err error) {
	runtime.LockOSThread()
	return runtime.UnlockOSThread, nil
}

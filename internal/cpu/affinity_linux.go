//go:build linux

package cpu

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// Pin locks the calling goroutine to its OS thread and restricts that thread
// to a single core chosen by workerID modulo the number of CPUs.
//
// The returned release func unlocks the thread and must be deferred by the
// caller. On error the thread is already unlocked and release is a no-op.
func Pin(workerID int) (release func(), err error) {
	runtime.LockOSThread()

	core := CoreFor(workerID)
	var mask unix.CPUSet
	mask.Zero()
	mask.Set(core)

	if err := unix.SchedSetaffinity(0, &mask); err != nil { // 0 = current thread
		runtime.UnlockOSThread()
		return func() {}, fmt.Errorf("pin worker %d to core %d: %w", workerID, core, err)
	}

	return runtime.UnlockOSThread, nil
}

//go:build linux

package affinity

import (
	"runtime"

	"golang.org/x/sys/unix"
)

func pinPlatform(cpuID int) error {
	runtime.LockOSThread()
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	return unix.SchedSetaffinity(0, &set)
}

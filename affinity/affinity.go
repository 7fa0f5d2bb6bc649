// Package affinity pins the calling OS thread to a logical CPU, used by
// internal/traits' Custom pool shape to place owned-pool worker goroutines.
// Platform-neutral entry point; platform-specific implementations live in
// affinity_linux.go / affinity_stub.go. The Linux implementation uses
// golang.org/x/sys/unix.SchedSetaffinity, already a direct dependency, so
// the module never requires cgo.
package affinity

// Pin locks the calling goroutine to its current OS thread and pins that
// thread to cpuID. Returns an error rather than logging and continuing,
// since the caller, a worker goroutine fresh off the pool, is better
// placed to decide whether an unpinned worker is acceptable.
func Pin(cpuID int) error {
	return pinPlatform(cpuID)
}

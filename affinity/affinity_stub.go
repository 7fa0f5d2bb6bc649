//go:build !linux

package affinity

import "github.com/gontp/taskpool/api"

// pinPlatform is a no-op stub on platforms without a wired affinity
// syscall.
func pinPlatform(cpuID int) error {
	return api.NewError(api.ErrCodeNotSupported, "CPU affinity not supported on this platform")
}

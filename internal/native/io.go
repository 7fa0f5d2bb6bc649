// File: internal/native/io.go
//
// IOEngine drives the I-O object kind: it starts an asynchronous read or
// write against a file descriptor and reports an api.IOCompletion once the
// transfer finishes. The platform-neutral type here dispatches to an
// ioBackend implemented per-OS in io_linux.go (real epoll readiness
// notification) and io_stub.go (a portable fallback that blocks a worker
// goroutine on the syscall instead of being readiness-driven).
package native

import "github.com/gontp/taskpool/api"

// IOOp identifies the direction of a submitted I-O operation.
type IOOp int

const (
	IORead IOOp = iota
	IOWrite
)

// ioBackend is the per-platform engine an IOEngine drives.
type ioBackend interface {
	// submit starts op against fd using buf, invoking done exactly once
	// with the resulting completion when the transfer finishes or fails.
	// onFire, if non-nil, is called at the instant this backend commits to
	// completing the operation (before any buffer is touched), synchronized
	// against cancel so a caller that wins the race against completion
	// never observes onFire having run; see epollBackend for the concrete
	// mechanism.
	submit(fd uintptr, op IOOp, buf []byte, onFire func() func(), done func(api.IOCompletion))
	// cancel removes fd's pending operation before it becomes ready, so its
	// done callback never fires. Returns false if there is nothing pending
	// for fd, including when the operation has already started completing.
	cancel(fd uintptr) bool
	close() error
}

// IOEngine arms asynchronous reads and writes against file descriptors.
type IOEngine struct {
	backend ioBackend
}

// NewIOEngine constructs the platform-appropriate backend.
func NewIOEngine() (*IOEngine, error) {
	b, err := newIOBackend()
	if err != nil {
		return nil, err
	}
	return &IOEngine{backend: b}, nil
}

// Submit starts op against fd. done is invoked at most once (never if
// Cancel removes the operation first), from a goroutine other than the
// caller's, never synchronously from within Submit. See ioBackend.submit
// for onFire's contract.
func (e *IOEngine) Submit(fd uintptr, op IOOp, buf []byte, onFire func() func(), done func(api.IOCompletion)) {
	e.backend.submit(fd, op, buf, onFire, done)
}

// Cancel asks the backend to drop fd's pending operation before it becomes
// ready. Returns false if there was nothing pending, including when the
// operation already started completing.
func (e *IOEngine) Cancel(fd uintptr) bool {
	return e.backend.cancel(fd)
}

// Close releases backend resources (the epoll fd on Linux; a no-op stub
// elsewhere).
func (e *IOEngine) Close() error {
	return e.backend.close()
}

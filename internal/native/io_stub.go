//go:build !linux

package native

import (
	"os"

	"github.com/gontp/taskpool/api"
)

// blockingBackend is the portable fallback I/O backend: it spends a
// goroutine per submitted operation performing a blocking read/write,
// rather than multiplexing on OS readiness notifications. Kept functional
// rather than returning "unsupported", since submit_io needs to work on
// every platform, not merely compile everywhere.
type blockingBackend struct{}

func newIOBackend() (ioBackend, error) {
	return &blockingBackend{}, nil
}

// submit has no readiness-driven pending state to cancel: once called, the
// blocking read/write below is already committed to running. onFire is
// therefore invoked synchronously here, before this function returns and
// before the caller's handle is even reachable from a Cancel call, rather
// than from within the goroutine, so cancel's permanent "nothing to cancel"
// answer is always truthful.
func (b *blockingBackend) submit(fd uintptr, op IOOp, buf []byte, onFire func() func(), done func(api.IOCompletion)) {
	var markDone func()
	if onFire != nil {
		markDone = onFire()
	}
	go func() {
		f := os.NewFile(fd, "taskpool-io")
		oper := &api.IOOperation{Buffer: buf}
		var n int
		var err error
		if op == IORead {
			n, err = f.Read(buf)
		} else {
			n, err = f.Write(buf)
		}
		completion := api.IOCompletion{Operation: oper, BytesTransferred: n}
		if err != nil {
			completion.StatusCode = -1
		}
		done(completion)
		if markDone != nil {
			markDone()
		}
	}()
}

// cancel always reports false: this backend's blocking read/write starts
// executing the instant submit is called and cannot be interrupted without
// closing the underlying fd out from under the caller, which is not this
// backend's call to make.
func (b *blockingBackend) cancel(fd uintptr) bool { return false }

func (b *blockingBackend) close() error { return nil }

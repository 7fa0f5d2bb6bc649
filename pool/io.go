// File: pool/io.go
package pool

import (
	"github.com/gontp/taskpool/internal/callback"
	"github.com/gontp/taskpool/internal/manager"
	"github.com/gontp/taskpool/internal/native"
)

// IOID identifies a submitted I-O object.
type IOID = manager.ID

// SubmitIO starts an asynchronous read (or write, when write is true) against fd,
// invoking callable with the resulting api.IOCompletion. The caller must
// call AbortIO(id) if the subsequent platform I/O call fails to enter the
// pending state.
func (p *Pool) SubmitIO(fd uintptr, buf []byte, write bool, callable any, args ...any) (IOID, error) {
	w, err := callback.New(callback.KindIO, callable, args)
	if err != nil {
		return 0, err
	}
	op := native.IORead
	if write {
		op = native.IOWrite
	}
	id, err := p.io.Submit(w, manager.IOParams{FD: fd, Op: op, Buf: buf})
	if err != nil {
		return 0, err
	}
	p.Metrics.Incr("io_submitted", 1)
	return id, nil
}

// CancelIO takes the full close path for a single I-O object: unlike
// AbortIO, it does not require a prior failed submission.
func (p *Pool) CancelIO(id IOID) error {
	err := p.io.Cancel(id)
	if err == nil {
		p.Metrics.Incr("io_cancelled", 1)
	}
	return err
}

// AbortIO releases the tracking slot for an I-O the caller failed to place
// in flight.
func (p *Pool) AbortIO(id IOID) error {
	return p.io.Abort(id)
}

// CancelIOs cancels every outstanding I-O object, returning the count
// cancelled.
func (p *Pool) CancelIOs() int {
	n := p.io.CancelAll()
	p.Metrics.Incr("io_cancelled", int64(n))
	return n
}

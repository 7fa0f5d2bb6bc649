// File: pool/wait.go
package pool

import (
	"time"

	"github.com/gontp/taskpool/api"
	"github.com/gontp/taskpool/internal/callback"
	"github.com/gontp/taskpool/internal/manager"
)

// WaitID identifies a submitted Wait object.
type WaitID = manager.ID

// SubmitWait arms a wait on waitable with an optional timeout (zero means
// infinite), invoking callable on signal or timeout.
func (p *Pool) SubmitWait(waitable api.Waitable, timeout time.Duration, callable any, args ...any) (WaitID, error) {
	w, err := callback.New(callback.KindWait, callable, args)
	if err != nil {
		return 0, err
	}
	id, err := p.wait.Submit(w, manager.WaitParams{Waitable: waitable, Timeout: timeout})
	if err != nil {
		return 0, err
	}
	p.Metrics.Incr("wait_submitted", 1)
	return id, nil
}

// ReplaceWait swaps the callable id's next completion invokes, re-arming
// from now.
func (p *Pool) ReplaceWait(id WaitID, callable any, args ...any) error {
	w, err := callback.New(callback.KindWait, callable, args)
	if err != nil {
		return err
	}
	return p.wait.Replace(id, w)
}

// CancelWait cancels a single wait by id.
func (p *Pool) CancelWait(id WaitID) error {
	err := p.wait.Cancel(id)
	if err == nil {
		p.Metrics.Incr("wait_cancelled", 1)
	}
	return err
}

// CancelWaits cancels every outstanding wait, returning the count cancelled.
func (p *Pool) CancelWaits() int {
	n := p.wait.CancelAll()
	p.Metrics.Incr("wait_cancelled", int64(n))
	return n
}

// File: pool/work.go
package pool

import (
	"github.com/gontp/taskpool/internal/callback"
)

// SubmitWork queues callable for execution on a worker. By design there is
// no handle returned.
func (p *Pool) SubmitWork(callable any, args ...any) error {
	w, err := callback.New(callback.KindWork, callable, args)
	if err != nil {
		return err
	}
	if err := p.work.Submit(w); err != nil {
		return err
	}
	p.Metrics.Incr("work_submitted", 1)
	return nil
}

// WaitWorks blocks until every Work item submitted before this call has run,
// polling p's cancel predicate. Returns true iff the drain completed without
// cancellation.
func (p *Pool) WaitWorks() bool {
	return p.work.WaitAll(p.cancelPredicate)
}

// CancelWorks discards queued-but-unstarted Work items and waits for
// in-flight ones, returning the number discarded.
func (p *Pool) CancelWorks() int {
	return p.work.CancelAll()
}

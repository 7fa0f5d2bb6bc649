// File: pool/timer.go
package pool

import (
	"time"

	"github.com/gontp/taskpool/api"
	"github.com/gontp/taskpool/internal/callback"
	"github.com/gontp/taskpool/internal/manager"
)

// TimerID identifies a submitted Timer object.
type TimerID = manager.ID

// SubmitTimer arms a one-shot timer firing after timeout, invoking callable.
// period > 0 makes it periodic instead.
func (p *Pool) SubmitTimer(timeout time.Duration, period time.Duration, callable any, args ...any) (TimerID, error) {
	w, err := callback.New(callback.KindTimer, callable, args)
	if err != nil {
		return 0, err
	}
	id, err := p.timer.Submit(w, manager.TimerParams{FirstFire: timeout, Period: period})
	if err != nil {
		return 0, err
	}
	p.Metrics.Incr("timer_submitted", 1)
	return id, nil
}

// SubmitTimerAt arms a timer whose first fire is at an absolute deadline,
// clamping a deadline already in the past to "fire immediately" via
// api.Deadline. period > 0 makes it periodic, as with SubmitTimer.
func (p *Pool) SubmitTimerAt(deadline time.Time, period time.Duration, callable any, args ...any) (TimerID, error) {
	timeout := api.Deadline(deadline, time.Now())
	return p.SubmitTimer(timeout, period, callable, args...)
}

// ReplaceTimer swaps the callable id's next fire invokes, re-arming from
// now. Must not be called concurrently with itself for the same id.
func (p *Pool) ReplaceTimer(id TimerID, callable any, args ...any) error {
	w, err := callback.New(callback.KindTimer, callable, args)
	if err != nil {
		return err
	}
	return p.timer.Replace(id, w)
}

// CancelTimer cancels a single timer by id.
func (p *Pool) CancelTimer(id TimerID) error {
	err := p.timer.Cancel(id)
	if err == nil {
		p.Metrics.Incr("timer_cancelled", 1)
	}
	return err
}

// CancelTimers cancels every outstanding timer, returning the count
// cancelled.
func (p *Pool) CancelTimers() int {
	n := p.timer.CancelAll()
	p.Metrics.Incr("timer_cancelled", int64(n))
	return n
}

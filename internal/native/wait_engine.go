// File: internal/native/wait_engine.go
//
// WaitEngine arms api.Waitable objects: one goroutine per armed wait races
// the waitable's Armed() channel against an optional timeout, reporting
// api.WaitSignaled or api.WaitTimedOut exactly once. Grounded on the
// teacher's goroutine-per-connection fan-in style in core/concurrency's
// executor, generalized here from a fixed worker pool to one-shot arming
// since each wait has independent, often-infinite, lifetime.
package native

import (
	"sync"
	"time"

	"github.com/gontp/taskpool/api"
)

// WaitEngine arms Waitable objects against an optional timeout.
type WaitEngine struct {
	mu      sync.Mutex
	armedID uint64
	live    map[uint64]chan struct{}
}

// NewWaitEngine constructs an empty engine.
func NewWaitEngine() *WaitEngine {
	return &WaitEngine{live: make(map[uint64]chan struct{})}
}

// Arm races w.Armed() against timeout (zero means wait forever) and invokes
// fn exactly once with the outcome. onFire, if non-nil, is called
// synchronously while the engine still holds its internal lock, at the
// exact instant the engine commits to firing (the same critical section
// that decides the wait is still live and removes it from e.live). A
// concurrent Cancel must acquire that same lock before it can report
// anything, so by the time Cancel returns, onFire has already run if this
// arming was about to fire — there is no window where the engine has
// committed but the caller cannot yet observe it. onFire must return
// quickly without blocking or invoking user code; its return value, if
// non-nil, is called once fn has returned. Returns an id usable with Cancel
// to abandon the race before it resolves (neither onFire nor fn will run).
func (e *WaitEngine) Arm(w api.Waitable, timeout time.Duration, onFire func() func(), fn func(api.WaitResult)) uint64 {
	e.mu.Lock()
	e.armedID++
	id := e.armedID
	cancel := make(chan struct{})
	e.live[id] = cancel
	e.mu.Unlock()

	go func() {
		var timeoutCh <-chan time.Time
		if timeout > 0 {
			timer := time.NewTimer(timeout)
			defer timer.Stop()
			timeoutCh = timer.C
		}
		var result api.WaitResult
		select {
		case <-w.Armed():
			result = api.WaitSignaled
		case <-timeoutCh:
			result = api.WaitTimedOut
		case <-cancel:
			return
		}
		e.mu.Lock()
		if _, stillLive := e.live[id]; !stillLive {
			e.mu.Unlock()
			return
		}
		delete(e.live, id)
		var done func()
		if onFire != nil {
			done = onFire()
		}
		e.mu.Unlock()

		fn(result)
		if done != nil {
			done()
		}
	}()
	return id
}

// Cancel abandons an armed wait. Safe to call after the wait already fired;
// returns false in that case since fn has already run (or is about to).
func (e *WaitEngine) Cancel(id uint64) bool {
	e.mu.Lock()
	cancel, ok := e.live[id]
	if ok {
		delete(e.live, id)
	}
	e.mu.Unlock()
	if ok {
		close(cancel)
	}
	return ok
}

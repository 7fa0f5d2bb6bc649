package manager

import (
	"sync"
	"time"

	"github.com/gontp/taskpool/api"
	"github.com/gontp/taskpool/internal/callback"
	"github.com/gontp/taskpool/internal/native"
	"github.com/gontp/taskpool/logging"
)

// TimerParams carries the first-fire delay and optional period a Timer
// object is armed with. Period zero means one-shot.
type TimerParams struct {
	FirstFire time.Duration
	Period    time.Duration
}

// TimerManager owns the Timer object kind: per-object context keyed by ID,
// backed by a TimerEngine.
type TimerManager struct {
	base   *Base[ID, TimerParams]
	engine *native.TimerEngine
	gen    idGen

	mu    sync.Mutex
	armed map[ID]uint64
}

// NewTimerManager constructs a Timer manager backed by engine.
func NewTimerManager(engine *native.TimerEngine) *TimerManager {
	m := &TimerManager{engine: engine, armed: make(map[ID]uint64)}
	m.base = NewBase[ID, TimerParams](m)
	return m
}

// Submit arms a new timer, returning its opaque id.
func (m *TimerManager) Submit(w *callback.Wrapper, params TimerParams) (ID, error) {
	id := m.gen.generate()
	ctx := &Context[TimerParams]{Wrapper: w, Params: params}
	if err := m.base.Submit(id, ctx); err != nil {
		return 0, err
	}
	return id, nil
}

// Replace swaps the callback invoked by id's next fire, re-arming the timer
// from now (reset-from-now per the resolved Open Question) rather than
// preserving residual time on the previous arming.
func (m *TimerManager) Replace(id ID, w *callback.Wrapper) error {
	ctx, ok := m.base.Lookup(id)
	if !ok {
		return api.ErrNotFound
	}
	m.closeTimer(id)
	ctx.SwapWrapper(w)
	return m.armTimer(id, ctx)
}

// Cancel cancels a single timer by id.
func (m *TimerManager) Cancel(id ID) error { return m.base.Cancel(id) }

// CancelAll cancels every outstanding timer, returning the count cancelled.
func (m *TimerManager) CancelAll() int { return m.base.CancelAll() }

// Arm implements Ops.
func (m *TimerManager) Arm(handle ID, ctx *Context[TimerParams]) error {
	return m.armTimer(handle, ctx)
}

// Close implements Ops.
func (m *TimerManager) Close(handle ID) error {
	m.closeTimer(handle)
	return nil
}

func (m *TimerManager) armTimer(handle ID, ctx *Context[TimerParams]) error {
	params := ctx.Params
	deadline := time.Now().Add(params.FirstFire)
	engineID := m.engine.Arm(deadline, params.Period, ctx.MarkRunning, func() {
		m.fire(handle, ctx, params.Period == 0)
	})
	m.mu.Lock()
	m.armed[handle] = engineID
	m.mu.Unlock()
	return nil
}

func (m *TimerManager) closeTimer(handle ID) {
	m.mu.Lock()
	engineID, ok := m.armed[handle]
	delete(m.armed, handle)
	m.mu.Unlock()
	if ok {
		m.engine.Cancel(engineID)
	}
}

// fire invokes the wrapper in effect for handle. Running-count bookkeeping
// is the engine's responsibility (see TimerEngine.Arm's onFire contract),
// not fire's: by the time this runs, ctx.MarkRunning has already been
// called for it, once per firing.
func (m *TimerManager) fire(handle ID, ctx *Context[TimerParams], oneShot bool) {
	instance := native.NewInstanceHandle()
	wrapper := ctx.CurrentWrapper()
	if wrapper == nil {
		return
	}
	if err := wrapper.Invoke(instance, nil); err != nil {
		logging.Log(logging.Error, "timer callback %d: %v", handle, err)
	}
	if oneShot {
		m.base.CleanupContext(instance, handle)
	}
}

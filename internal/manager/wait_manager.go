package manager

import (
	"sync"
	"time"

	"github.com/gontp/taskpool/api"
	"github.com/gontp/taskpool/internal/callback"
	"github.com/gontp/taskpool/internal/native"
	"github.com/gontp/taskpool/logging"
)

// WaitParams carries the awaited handle and optional timeout a Wait object
// is armed with.
type WaitParams struct {
	Waitable api.Waitable
	Timeout  time.Duration // zero means infinite
}

// WaitManager owns the Wait object kind: per-object context keyed by ID,
// backed by a WaitEngine.
type WaitManager struct {
	base   *Base[ID, WaitParams]
	engine *native.WaitEngine
	gen    idGen

	mu    sync.Mutex
	armed map[ID]uint64
}

// NewWaitManager constructs a Wait manager backed by engine.
func NewWaitManager(engine *native.WaitEngine) *WaitManager {
	m := &WaitManager{engine: engine, armed: make(map[ID]uint64)}
	m.base = NewBase[ID, WaitParams](m)
	return m
}

// Submit arms a new wait, returning its opaque id.
func (m *WaitManager) Submit(w *callback.Wrapper, params WaitParams) (ID, error) {
	id := m.gen.generate()
	ctx := &Context[WaitParams]{Wrapper: w, Params: params}
	if err := m.base.Submit(id, ctx); err != nil {
		return 0, err
	}
	return id, nil
}

// Replace swaps the callback invoked by id's next completion: cancel the
// pending arming, swap the wrapper, and re-arm with the unchanged
// parameters, resetting the timeout from now.
func (m *WaitManager) Replace(id ID, w *callback.Wrapper) error {
	ctx, ok := m.base.Lookup(id)
	if !ok {
		return api.ErrNotFound
	}
	m.closeWait(id)
	ctx.SwapWrapper(w)
	return m.armWait(id, ctx)
}

// Cancel cancels a single wait by id.
func (m *WaitManager) Cancel(id ID) error { return m.base.Cancel(id) }

// CancelAll cancels every outstanding wait, returning the count cancelled.
func (m *WaitManager) CancelAll() int { return m.base.CancelAll() }

// Arm implements Ops.
func (m *WaitManager) Arm(handle ID, ctx *Context[WaitParams]) error {
	return m.armWait(handle, ctx)
}

// Close implements Ops: cancels the underlying engine arming if still
// pending. Idempotent and safe to call after the wait already fired.
func (m *WaitManager) Close(handle ID) error {
	m.closeWait(handle)
	return nil
}

func (m *WaitManager) armWait(handle ID, ctx *Context[WaitParams]) error {
	params := ctx.Params
	engineID := m.engine.Arm(params.Waitable, params.Timeout, ctx.MarkRunning, func(result api.WaitResult) {
		m.fire(handle, ctx, result)
	})
	m.mu.Lock()
	m.armed[handle] = engineID
	m.mu.Unlock()
	return nil
}

func (m *WaitManager) closeWait(handle ID) {
	m.mu.Lock()
	engineID, ok := m.armed[handle]
	delete(m.armed, handle)
	m.mu.Unlock()
	if ok {
		m.engine.Cancel(engineID)
	}
}

// fire invokes the wrapper in effect for handle. Running-count bookkeeping
// is the engine's responsibility (see WaitEngine.Arm's onFire contract),
// not fire's: by the time this runs, ctx.MarkRunning has already been
// called for it.
func (m *WaitManager) fire(handle ID, ctx *Context[WaitParams], result api.WaitResult) {
	instance := native.NewInstanceHandle()
	wrapper := ctx.CurrentWrapper()
	if wrapper == nil {
		return
	}
	if err := wrapper.Invoke(instance, result); err != nil {
		logging.Log(logging.Error, "wait callback %d: %v", handle, err)
	}
	m.base.CleanupContext(instance, handle)
}

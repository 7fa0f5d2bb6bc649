package manager

import (
	"sync"

	"github.com/gontp/taskpool/api"
	"github.com/gontp/taskpool/bufpool"
	"github.com/gontp/taskpool/internal/callback"
	"github.com/gontp/taskpool/internal/native"
	"github.com/gontp/taskpool/logging"
)

// IOParams binds the file handle and operation at creation time; Buf is the
// caller's own receive buffer, and if nil, the manager draws a scratch
// buffer from its bufpool.Manager for the duration of the transfer.
type IOParams struct {
	FD       uintptr
	Op       native.IOOp
	Buf      []byte
	NUMANode int
}

// IOManager owns the I-O object kind, including the abort protocol.
type IOManager struct {
	base    *Base[ID, IOParams]
	engine  *native.IOEngine
	buffers *bufpool.Manager
	gen     idGen

	mu      sync.Mutex
	started map[ID]uintptr // fd, present once Arm has submitted the op
}

// NewIOManager constructs an I-O manager backed by engine, drawing
// caller-omitted receive buffers from buffers.
func NewIOManager(engine *native.IOEngine, buffers *bufpool.Manager) *IOManager {
	m := &IOManager{engine: engine, buffers: buffers, started: make(map[ID]uintptr)}
	m.base = NewBase[ID, IOParams](m)
	return m
}

// Submit registers and arms a new I-O object, returning its opaque id.
func (m *IOManager) Submit(w *callback.Wrapper, params IOParams) (ID, error) {
	id := m.gen.generate()
	ctx := &Context[IOParams]{Wrapper: w, Params: params}
	if err := m.base.Submit(id, ctx); err != nil {
		return 0, err
	}
	return id, nil
}

// Cancel asks the engine to drop the pending operation before it becomes
// ready, then forgets the slot. If the operation already started
// completing, the engine-level cancel is a no-op and Cancel still waits
// (via Base.Cancel's drain) for that completion to run to the end.
func (m *IOManager) Cancel(id ID) error { return m.base.Cancel(id) }

// Abort releases the tracking slot for an I-O the caller failed to place
// in flight. The core cannot itself detect that condition, so forgetting
// to call Abort after a failed native I/O call leaks the slot for this id
// permanently.
func (m *IOManager) Abort(id ID) error {
	m.mu.Lock()
	_, started := m.started[id]
	m.mu.Unlock()
	if started {
		logging.Log(logging.Extended, "abort_io called on id %d after start; treating as cancel", id)
	}
	return m.base.Cancel(id)
}

// CancelAll cancels every outstanding I-O object, returning the count.
func (m *IOManager) CancelAll() int { return m.base.CancelAll() }

// Arm implements Ops: starts the asynchronous transfer.
func (m *IOManager) Arm(handle ID, ctx *Context[IOParams]) error {
	params := ctx.Params
	buf := params.Buf
	pooled := buf == nil && m.buffers != nil
	if pooled {
		buf = m.buffers.Get(params.NUMANode)
	}
	m.mu.Lock()
	m.started[handle] = params.FD
	m.mu.Unlock()
	m.engine.Submit(params.FD, params.Op, buf, ctx.MarkRunning, func(c api.IOCompletion) {
		if pooled {
			defer m.buffers.Put(params.NUMANode, buf)
		}
		m.fire(handle, ctx, c)
	})
	return nil
}

// Close implements Ops: cancels fd's pending operation at the engine if it
// has not yet become ready (native.IOEngine.Cancel), then forgets the slot
// either way. Idempotent and safe to call after the operation already
// fired, in which case the engine-level cancel is simply a no-op.
func (m *IOManager) Close(handle ID) error {
	m.mu.Lock()
	fd, ok := m.started[handle]
	delete(m.started, handle)
	m.mu.Unlock()
	if ok {
		m.engine.Cancel(fd)
	}
	return nil
}

// fire invokes the wrapper in effect for handle. Running-count bookkeeping
// is the engine's responsibility (see native.IOEngine.Submit's onFire
// contract), not fire's: by the time this runs, ctx.MarkRunning has already
// been called for it.
func (m *IOManager) fire(handle ID, ctx *Context[IOParams], completion api.IOCompletion) {
	instance := native.NewInstanceHandle()
	wrapper := ctx.CurrentWrapper()
	if wrapper == nil {
		return
	}
	if err := wrapper.Invoke(instance, completion); err != nil {
		logging.Log(logging.Error, "io callback %d: %v", handle, err)
	}
	m.base.CleanupContext(instance, handle)
}

// Package manager implements the generic ownership-map skeleton shared by
// the Wait, Timer, and I/O managers (ring-fenced by the [H comparable, P any]
// type parameters: H is the manager's native-handle type, P its
// object-specific parameter struct), so one body of locking and lifecycle
// code serves several concrete shapes.
//
// The Work manager does not use Base: it has no per-object identity (see
// work_manager.go). Wait, Timer, and I/O each wrap a *Base[H, P] configured
// with their own Ops implementation.
package manager

import (
	"sync"

	"github.com/gontp/taskpool/api"
	"github.com/gontp/taskpool/internal/callback"
)

// Context pairs a callback wrapper with the object-specific parameters that
// were used to arm it, plus a mutable slot the manager overwrites on
// replace, and a running count so Cancel/CancelAll can block until a
// trampoline invocation already in flight has finished.
type Context[P any] struct {
	mu      sync.Mutex
	Wrapper *callback.Wrapper
	Params  P
	running sync.WaitGroup
}

// MarkRunning records that a trampoline invocation for this context has
// begun. The caller must defer the returned func, after any cleanup the
// invocation performs, so Cancel/CancelAll see the context as in-flight for
// its full duration. A handle's own callback must never call Cancel or
// CancelAll on itself: like the native threadpool's wait-for-callbacks
// functions, doing so deadlocks waiting on its own completion.
func (c *Context[P]) MarkRunning() func() {
	c.running.Add(1)
	return c.running.Done
}

// SwapWrapper atomically replaces the wrapper a completion will invoke.
func (c *Context[P]) SwapWrapper(w *callback.Wrapper) {
	c.mu.Lock()
	c.Wrapper = w
	c.mu.Unlock()
}

// CurrentWrapper returns the wrapper in effect right now.
func (c *Context[P]) CurrentWrapper() *callback.Wrapper {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Wrapper
}

// Ops is the subclass contract a concrete manager supplies to Base: arming a
// native object and quiescing/closing it. Both must be safe to call from
// within the writer lock Base already holds, and Close must be idempotent
// since cancel, replace, and natural one-shot completion can each reach it.
type Ops[H comparable, P any] interface {
	Arm(handle H, ctx *Context[P]) error
	Close(handle H) error
}

// Base is the generic ownership-map manager: serialized mutation via a
// reader/writer lock, plus the removal-permission flag that lets a bulk
// cancel_all iterate the map without racing a concurrently completing
// trampoline's self-removal.
type Base[H comparable, P any] struct {
	ops Ops[H, P]

	mu             sync.RWMutex
	objects        map[H]*Context[P]
	removalAllowed bool
}

// NewBase constructs an empty manager bound to ops.
func NewBase[H comparable, P any](ops Ops[H, P]) *Base[H, P] {
	return &Base[H, P]{
		ops:            ops,
		objects:        make(map[H]*Context[P]),
		removalAllowed: true,
	}
}

// Submit installs ctx under handle and arms it. If arming fails, the slot is
// rolled back so no orphaned entry survives a failed submission.
func (b *Base[H, P]) Submit(handle H, ctx *Context[P]) error {
	b.mu.Lock()
	b.objects[handle] = ctx
	err := b.ops.Arm(handle, ctx)
	if err != nil {
		delete(b.objects, handle)
	}
	b.mu.Unlock()
	return err
}

// Lookup returns the context registered under handle, if any.
func (b *Base[H, P]) Lookup(handle H) (*Context[P], bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ctx, ok := b.objects[handle]
	return ctx, ok
}

// Cancel forgets handle, quiesces it, then waits for an already-in-flight
// callback invocation to finish. Returns api.ErrNotFound if handle is not
// currently tracked. Cancellation is cooperative: a callback that had
// already started before Cancel was called runs to completion before Cancel
// returns.
func (b *Base[H, P]) Cancel(handle H) error {
	b.mu.Lock()
	ctx, ok := b.objects[handle]
	if !ok {
		b.mu.Unlock()
		return api.ErrNotFound
	}
	delete(b.objects, handle)
	b.mu.Unlock()

	err := b.ops.Close(handle)
	ctx.running.Wait()
	return err
}

// CancelAll quiesces and forgets every tracked object, pinning
// removal-permission to forbidden for the duration. The whole pass runs
// under the writer lock, which CleanupContext also needs, so a trampoline
// racing this call blocks until the map has been cleared and the flag
// restored. It then waits for every already-in-flight callback invocation
// to finish before returning. Returns the number of objects that were
// cancelled.
func (b *Base[H, P]) CancelAll() int {
	b.mu.Lock()
	b.removalAllowed = false
	handles := make([]H, 0, len(b.objects))
	ctxs := make([]*Context[P], 0, len(b.objects))
	for h, ctx := range b.objects {
		handles = append(handles, h)
		ctxs = append(ctxs, ctx)
	}
	for _, h := range handles {
		_ = b.ops.Close(h)
	}
	n := len(b.objects)
	b.objects = make(map[H]*Context[P])
	b.removalAllowed = true
	b.mu.Unlock()

	for _, ctx := range ctxs {
		ctx.running.Wait()
	}
	return n
}

// CleanupContext is called from a one-shot completion trampoline: it
// disassociates the worker from instance (so Close below cannot deadlock
// waiting on the very worker invoking it), closes the native object, and
// removes the slot if removal-permission currently allows self-removal
// (refused while a concurrent CancelAll iteration owns the map).
func (b *Base[H, P]) CleanupContext(instance api.InstanceHandle, handle H) {
	if instance != nil {
		instance.DisassociateFromCallback()
	}
	_ = b.ops.Close(handle)
	b.mu.Lock()
	if b.removalAllowed {
		delete(b.objects, handle)
	}
	b.mu.Unlock()
}

// Len reports the number of currently tracked objects.
func (b *Base[H, P]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}

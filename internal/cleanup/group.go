// Package cleanup implements the cleanup group: the construct that becomes
// the implicit parent of every native pool object created after it, and
// collectively tears them all down exactly once at facade destruction.
// Close is single-shot and mutex-guarded, generalized from "one executor" to
// "an arbitrary number of registered members".
package cleanup

import "sync"

// Member is anything the cleanup group can collectively tear down: a
// manager's CancelAll, or any other owned native resource.
type Member interface {
	// CancelAndWait cancels pending callbacks and waits for in-flight ones
	// to drain, then releases the native resource. Must be idempotent and
	// must not panic (teardown path).
	CancelAndWait()
}

// Group collects Members during pool construction and closes them all,
// in reverse registration order, exactly once.
type Group struct {
	mu      sync.Mutex
	members []Member
	closed  bool
}

// New returns an empty cleanup group bound to no particular environment;
// in this Go runtime the "environment" a native PTP_CALLBACK_ENVIRON would
// represent is implicit in which Dispatcher a member was built against.
func New() *Group {
	return &Group{}
}

// Add registers a member as an implicit child of this group. Safe to call
// concurrently with other Add calls; after Close it is a no-op.
func (g *Group) Add(m Member) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.members = append(g.members, m)
}

// Close marks the group closed, then collectively cancels pending callbacks
// and waits for in-flight ones across every registered member, in reverse
// registration order. A second call is a no-op, matching the native
// CloseThreadpoolCleanupGroupMembers's single-shot semantics.
func (g *Group) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	members := g.members
	g.members = nil
	g.mu.Unlock()

	for i := len(members) - 1; i >= 0; i-- {
		members[i].CancelAndWait()
	}
}

package manager

import "sync/atomic"

// ID is the opaque handle the facade returns from SubmitWait, SubmitTimer,
// and SubmitIO.
type ID uint64

// idGen hands out ids unique within one manager. A manager owns its own
// generator; ids from different managers may collide numerically but are
// never compared across manager kinds.
type idGen struct {
	next atomic.Uint64
}

func (g *idGen) generate() ID {
	return ID(g.next.Add(1))
}

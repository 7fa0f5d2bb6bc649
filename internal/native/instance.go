package native

import (
	"sync/atomic"

	"github.com/gontp/taskpool/api"
)

// instance implements api.InstanceHandle for one callback invocation. A
// worker creates one per dispatch and hands it to the trampoline; calling
// DisassociateFromCallback records that this worker should no longer be
// treated as "inside" the originating object's callback. internal/manager's
// cleanup step calls it before closing the native handle from within its own
// completion; no dispatch path reads the recorded flag back.
type instance struct {
	disassociated atomic.Bool
}

func newInstance() *instance { return &instance{} }

// NewInstanceHandle constructs a fresh per-callback instance handle for the
// Wait, Timer, and I-O managers, which dispatch from goroutines started by
// their respective engines rather than from an Executor worker.
func NewInstanceHandle() api.InstanceHandle { return newInstance() }

func (i *instance) DisassociateFromCallback() {
	i.disassociated.Store(true)
}

func (i *instance) isDisassociated() bool {
	return i.disassociated.Load()
}

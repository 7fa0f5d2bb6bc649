// Package safecall provides the guarded-call primitive: a way to invoke a
// native dispatcher call, or a user callback, from a context where an
// unrecovered panic would corrupt dispatcher invariants (teardown,
// trampoline), converting a panic into an *api.Error instead. Grounded on
// the defer/recover wrapping already used around native-facing
// invocations elsewhere in this codebase: a reactor's Poll wraps each
// fired callback in its own recover, and an executor's task runner
// recovers around the task body so one bad task cannot kill a worker.
package safecall

import (
	"fmt"

	"github.com/gontp/taskpool/api"
)

// Native guards a call into the native dispatcher. Any panic is converted to
// an *api.Error with code ErrCodeNativeFailure.
func Native(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = api.Wrap(api.ErrCodeNativeFailure, "native dispatcher call panicked", fmt.Errorf("%v", r))
		}
	}()
	return fn()
}

// Callback guards a user-supplied callable invoked from a trampoline. Any
// panic is converted to an *api.Error with code ErrCodeUserCallbackFault and
// returned rather than propagated, so the calling worker goroutine can
// return normally.
func Callback(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = api.Wrap(api.ErrCodeUserCallbackFault, "user callback panicked", fmt.Errorf("%v", r))
		}
	}()
	fn()
	return nil
}

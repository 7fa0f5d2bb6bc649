package manager

import (
	"sync"
	"time"

	"github.com/gontp/taskpool/api"
	"github.com/gontp/taskpool/internal/callback"
	"github.com/gontp/taskpool/internal/native"
	"github.com/gontp/taskpool/internal/queue"
	"github.com/gontp/taskpool/logging"
)

// defaultCancelPollInterval is how often WaitAll consults the cancel
// predicate while draining.
const defaultCancelPollInterval = 20 * time.Millisecond

// WorkManager owns the Work object kind: unlike Wait/Timer/I-O it has no
// per-object identity. One intrusive lock-free queue (internal/queue.Stack)
// holds submitted wrappers; the executor's worker pool drains it in
// whatever order workers happen to run.
type WorkManager struct {
	executor *native.Executor
	queue    queue.Stack[*callback.Wrapper]

	// admit serializes Submit against CancelAll's drain: the intrusive
	// queue's DrainInto is only safe "when no producer is racing" (see
	// internal/queue's doc comment), so CancelAll takes the writer side
	// while ordinary submissions only need the reader side.
	admit sync.RWMutex
	wg    sync.WaitGroup
}

// NewWorkManager constructs a Work manager backed by executor.
func NewWorkManager(executor *native.Executor) *WorkManager {
	return &WorkManager{executor: executor}
}

// Submit pushes w onto the queue and asks the executor to dispatch one
// trampoline invocation for it.
func (m *WorkManager) Submit(w *callback.Wrapper) error {
	m.admit.RLock()
	defer m.admit.RUnlock()
	m.wg.Add(1)
	m.queue.Push(w)
	err := m.executor.Submit(func(instance api.InstanceHandle) {
		m.runOne(instance)
	})
	if err != nil {
		// The executor could not accept the paired task; best-effort
		// compensation: if our own entry is still on top, reclaim it so the
		// pending count does not drift. A concurrent submitter may have
		// already popped it for its own task, in which case their task will
		// simply find ours running fine and we leave the count as is.
		if popped, ok := m.queue.Pop(); ok {
			if popped == w {
				m.wg.Done()
			} else {
				m.queue.Push(popped)
			}
		}
		return err
	}
	return nil
}

// runOne is the Work completion trampoline: pop one entry; if none, report
// "no more items" and return; otherwise invoke it.
func (m *WorkManager) runOne(instance api.InstanceHandle) {
	entry, ok := m.queue.Pop()
	if !ok {
		logging.Log(logging.Extended, "work trampoline fired with no queued items")
		return
	}
	defer m.wg.Done()
	if err := entry.Invoke(instance, nil); err != nil {
		logging.Log(logging.Error, "work callback: %v", err)
	}
}

// WaitAll blocks until every work item submitted before the call has run,
// polling cancelPredicate (if non-nil) every defaultCancelPollInterval.
// Returns true iff the drain completed without cancellation.
func (m *WorkManager) WaitAll(cancelPredicate api.CancelPredicate) bool {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	if cancelPredicate == nil {
		<-done
		return true
	}

	ticker := time.NewTicker(defaultCancelPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return true
		case <-ticker.C:
			if cancelPredicate() {
				m.CancelAll()
				<-done
				return false
			}
		}
	}
}

// CancelAll discards every queued-but-not-started item and waits for
// in-flight callbacks to finish, returning the number of items freed
// without running.
func (m *WorkManager) CancelAll() int {
	m.admit.Lock()
	freed := m.queue.DrainInto(func(*callback.Wrapper) {
		m.wg.Done()
	})
	m.admit.Unlock()
	m.wg.Wait()
	return freed
}

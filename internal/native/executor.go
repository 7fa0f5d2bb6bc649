// File: internal/native/executor.go
//
// Executor dispatches tasks across worker goroutines, using lock-free local
// queues and a global fallback channel. Takes a single fixed worker count
// (the pool passes the max of the band internal/traits computes), and runs
// arbitrary instance-bound trampolines.

package native

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gontp/taskpool/affinity"
	"github.com/gontp/taskpool/api"
)

// Task is one unit of dispatchable work: a trampoline bound to its instance.
type Task func(api.InstanceHandle)

// Executor manages a fixed pool of worker goroutines backing Work object
// dispatch and every other object kind's one-shot callback dispatch. An idle
// worker steals from a peer's local queue before falling back to sleeping,
// so a burst of submissions routed (by Submit's round robin) onto one
// worker's queue still drains across every worker rather than stalling
// behind whichever queue happened to receive it.
type Executor struct {
	globalQueue chan Task
	localQueues []*ringQueue[Task]
	next        atomic.Uint64
	stealCursor atomic.Uint64
	steals      atomic.Uint64
	stopCh      chan struct{}
	closed      atomic.Bool
	wg          sync.WaitGroup
}

// NewExecutor starts a fixed pool of numWorkers goroutines. If numWorkers <=
// 0, it defaults to runtime.NumCPU(). affinityIDs, if non-empty, pins
// worker i to affinityIDs[i % len(affinityIDs)].
func NewExecutor(numWorkers int, affinityIDs []int) *Executor {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	e := &Executor{
		globalQueue: make(chan Task, numWorkers*4),
		stopCh:      make(chan struct{}),
	}
	e.localQueues = make([]*ringQueue[Task], numWorkers)
	for i := range e.localQueues {
		e.localQueues[i] = newRingQueue[Task](1024)
	}
	for i := 0; i < numWorkers; i++ {
		cpu := -1
		if len(affinityIDs) > 0 {
			cpu = affinityIDs[i%len(affinityIDs)]
		}
		e.wg.Add(1)
		go e.runWorker(i, cpu)
	}
	return e
}

// Submit enqueues a task for execution, returning ErrClosed if the executor
// has been shut down.
func (e *Executor) Submit(task Task) error {
	if e.closed.Load() {
		return api.ErrClosed
	}
	idx := int(e.next.Add(1) % uint64(len(e.localQueues)))
	if e.localQueues[idx].enqueue(task) {
		return nil
	}
	select {
	case e.globalQueue <- task:
		return nil
	case <-e.stopCh:
		return api.ErrClosed
	default:
		return api.NewError(api.ErrCodeOutOfResources, "executor queues full")
	}
}

// NumWorkers reports the fixed worker count.
func (e *Executor) NumWorkers() int { return len(e.localQueues) }

// QueueDepths returns a racy, lock-free snapshot of each worker's local
// queue depth, for control.DebugProbes.
func (e *Executor) QueueDepths() []int {
	depths := make([]int, len(e.localQueues))
	for i, q := range e.localQueues {
		depths[i] = q.approxLen()
	}
	return depths
}

// GlobalQueueDepth returns how many tasks are currently sitting in the
// overflow channel, for control.DebugProbes.
func (e *Executor) GlobalQueueDepth() int { return len(e.globalQueue) }

// Steals reports how many tasks this executor has ever picked up from a
// peer worker's local queue rather than its own, for control.DebugProbes.
func (e *Executor) Steals() uint64 { return e.steals.Load() }

// Close stops all workers, letting in-flight tasks finish, and discards
// anything still queued. Idempotent.
func (e *Executor) Close() {
	if e.closed.CompareAndSwap(false, true) {
		close(e.stopCh)
		e.wg.Wait()
	}
}

func (e *Executor) runWorker(id, cpuID int) {
	defer e.wg.Done()
	if cpuID >= 0 {
		if err := affinity.Pin(cpuID); err != nil {
			// Affinity is best-effort: the error is dropped and the
			// worker continues unpinned.
			_ = err
		}
	}
	local := e.localQueues[id]
	inst := newInstance()
	backoff := time.Microsecond
	for {
		select {
		case <-e.stopCh:
			return
		default:
		}
		if task, ok := local.dequeue(); ok {
			e.run(task, inst)
			backoff = time.Microsecond
			continue
		}
		select {
		case task := <-e.globalQueue:
			e.run(task, inst)
			backoff = time.Microsecond
			continue
		default:
		}
		if task, ok := e.steal(id); ok {
			e.run(task, inst)
			backoff = time.Microsecond
			continue
		}
		select {
		case task := <-e.globalQueue:
			e.run(task, inst)
			backoff = time.Microsecond
		case <-e.stopCh:
			return
		default:
			time.Sleep(backoff)
			if backoff < time.Millisecond {
				backoff *= 2
			}
		}
	}
}

// steal looks for one task sitting in another worker's local queue. It walks
// the other workers starting from a shared cursor rather than always
// starting at id+1, so a long run of failed steals (every peer idle too)
// doesn't keep hammering the same one or two victims' cache lines. Every
// queue involved is the same ringQueue used for each worker's own
// dequeue, so a thief and the queue's owner racing each other for the same
// slot is exactly the concurrent-consumer case the sequence-number protocol
// already handles; no extra locking is needed here.
func (e *Executor) steal(id int) (Task, bool) {
	n := len(e.localQueues)
	if n <= 1 {
		return nil, false
	}
	start := int(e.stealCursor.Add(1))
	for i := 0; i < n-1; i++ {
		victim := (id + 1 + (start+i)%(n-1)) % n
		if task, ok := e.localQueues[victim].dequeue(); ok {
			e.steals.Add(1)
			return task, true
		}
	}
	return nil, false
}

func (e *Executor) run(task Task, inst *instance) {
	defer func() { recover() }() // a task's own panic must never kill the worker
	task(inst)
}

// File: pool/threadpool.go
//
// Package pool is the thread-pool facade: it composes traits, cleanup
// group, cancel predicate, and the four object managers behind one
// user-facing type.
package pool

import (
	"sync/atomic"

	"github.com/gontp/taskpool/api"
	"github.com/gontp/taskpool/bufpool"
	"github.com/gontp/taskpool/control"
	"github.com/gontp/taskpool/internal/cleanup"
	"github.com/gontp/taskpool/internal/manager"
	"github.com/gontp/taskpool/internal/native"
	"github.com/gontp/taskpool/internal/traits"
	"github.com/gontp/taskpool/logging"
)

// Pool is the user-facing aggregator: traits, cleanup group, the four
// object managers, and the native engines that back them.
type Pool struct {
	traits  traits.Traits
	cleanup *cleanup.Group

	executor    *native.Executor
	timerEngine *native.TimerEngine
	waitEngine  *native.WaitEngine
	ioEngine    *native.IOEngine

	work  *manager.WorkManager
	wait  *manager.WaitManager
	timer *manager.TimerManager
	io    *manager.IOManager

	cancelPredicate api.CancelPredicate

	Metrics *control.MetricsRegistry
	Debug   *control.DebugProbes

	closed atomic.Bool
}

// memberFunc adapts a plain func() to cleanup.Member.
type memberFunc func()

func (f memberFunc) CancelAndWait() { f() }

// New constructs a shared (system-default) pool customized by opts.
func New(opts ...Option) (*Pool, error) {
	cfg := config{cancelPred: api.NeverCancel}
	for _, opt := range opts {
		opt(&cfg)
	}

	var tr traits.Traits
	var numWorkers int
	if cfg.owned {
		tr = traits.NewCustom(cfg.minThreads, cfg.maxThreads, cfg.affinityIDs)
		numWorkers = tr.MaxThreads
	} else {
		tr = traits.NewSystemDefault()
		numWorkers = 0 // native.NewExecutor defaults to runtime.NumCPU()
	}

	ioEngine, err := native.NewIOEngine()
	if err != nil {
		return nil, err
	}

	p := &Pool{
		traits:          tr,
		cleanup:         cleanup.New(),
		executor:        native.NewExecutor(numWorkers, tr.AffinityIDs),
		timerEngine:     native.NewTimerEngine(),
		waitEngine:      native.NewWaitEngine(),
		ioEngine:        ioEngine,
		cancelPredicate: cfg.cancelPred,
		Metrics:         control.NewMetricsRegistry(),
		Debug:           control.NewDebugProbes(0),
	}

	p.work = manager.NewWorkManager(p.executor)
	p.wait = manager.NewWaitManager(p.waitEngine)
	p.timer = manager.NewTimerManager(p.timerEngine)
	p.io = manager.NewIOManager(p.ioEngine, bufpool.NewManager(0))

	p.cleanup.Add(memberFunc(func() { p.wait.CancelAll() }))
	p.cleanup.Add(memberFunc(func() { p.timer.CancelAll() }))
	p.cleanup.Add(memberFunc(func() { p.io.CancelAll() }))
	p.cleanup.Add(memberFunc(func() { p.work.CancelAll() }))

	p.Debug.RegisterProbe("executor_queues", func() any {
		return map[string]any{
			"local_depths": p.executor.QueueDepths(),
			"global_depth": p.executor.GlobalQueueDepth(),
			"steals":       p.executor.Steals(),
		}
	})

	return p, nil
}

// SystemPool builds a pool that dispatches onto the shared, platform-global
// worker set.
func SystemPool(opts ...Option) (*Pool, error) { return New(opts...) }

// OwnedPool builds a pool with its own [min, max] worker band, normalized
// by internal/traits.
func OwnedPool(min, max int, opts ...Option) (*Pool, error) {
	return New(append([]Option{WithOwnedThreads(min, max)}, opts...)...)
}

// Traits exposes the resolved pool shape, mainly for tests and diagnostics.
func (p *Pool) Traits() traits.Traits { return p.traits }

// CancelAllCallbacks cancels across all four object kinds.
func (p *Pool) CancelAllCallbacks() {
	n := p.wait.CancelAll()
	p.Debug.RecordCancellation(control.CancellationEvent{Kind: "wait"})
	p.Metrics.Incr("wait_cancelled", int64(n))

	n = p.timer.CancelAll()
	p.Debug.RecordCancellation(control.CancellationEvent{Kind: "timer"})
	p.Metrics.Incr("timer_cancelled", int64(n))

	n = p.io.CancelAll()
	p.Debug.RecordCancellation(control.CancellationEvent{Kind: "io"})
	p.Metrics.Incr("io_cancelled", int64(n))

	n = p.work.CancelAll()
	p.Debug.RecordCancellation(control.CancellationEvent{Kind: "work"})
	p.Metrics.Incr("work_cancelled", int64(n))
}

// Close tears the pool down: the cleanup group collectively cancels pending
// callbacks and waits for in-flight ones across every manager (reverse
// registration order), then the native engines and executor are released.
// Idempotent.
func (p *Pool) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	p.cleanup.Close()
	p.timerEngine.Close()
	if err := p.ioEngine.Close(); err != nil {
		logging.Log(logging.Error, "io engine close: %v", err)
	}
	p.executor.Close()
}

package native

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/gontp/taskpool/api"
)

func TestExecutorSubmitRuns(t *testing.T) {
	ex := NewExecutor(2, nil)
	defer ex.Close()

	done := make(chan struct{})
	if err := ex.Submit(func(api.InstanceHandle) { close(done) }); err != nil {
		t.Fatal(err)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
}

func TestExecutorClosedRejectsSubmit(t *testing.T) {
	ex := NewExecutor(1, nil)
	ex.Close()
	if err := ex.Submit(func(api.InstanceHandle) {}); err != api.ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

// TestExecutorStealsFromBusyPeer backs worker 0's own local queue up behind
// a long-blocked task and confirms a second, otherwise-idle worker drains
// the backlog by stealing from worker 0's queue rather than leaving it
// stuck there until the blocking task returns.
func TestExecutorStealsFromBusyPeer(t *testing.T) {
	ex := NewExecutor(2, nil)
	defer func() {
		ex.Close()
	}()

	block := make(chan struct{})
	ex.localQueues[0].enqueue(Task(func(api.InstanceHandle) { <-block }))

	const backlog = 10
	var ran atomic.Int32
	for i := 0; i < backlog; i++ {
		ex.localQueues[0].enqueue(Task(func(api.InstanceHandle) { ran.Add(1) }))
	}

	deadline := time.Now().Add(2 * time.Second)
	for ran.Load() < backlog && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	close(block)

	if got := ran.Load(); got != backlog {
		t.Fatalf("expected all %d backlog tasks to run, got %d", backlog, got)
	}
	if ex.Steals() == 0 {
		t.Fatal("expected the idle worker to have stolen at least one task")
	}
}

func TestExecutorQueueDepthsAndGlobalDepth(t *testing.T) {
	ex := NewExecutor(2, nil)
	defer ex.Close()

	block := make(chan struct{})
	defer close(block)
	ex.localQueues[0].enqueue(Task(func(api.InstanceHandle) { <-block }))
	ex.localQueues[1].enqueue(Task(func(api.InstanceHandle) { <-block }))
	time.Sleep(10 * time.Millisecond) // let both workers pick up their blocker

	ex.localQueues[0].enqueue(Task(func(api.InstanceHandle) {}))
	depths := ex.QueueDepths()
	if len(depths) != 2 {
		t.Fatalf("expected 2 queue depths, got %d", len(depths))
	}
	if depths[0] == 0 {
		t.Fatal("expected worker 0's queue to report a nonzero depth while its worker is blocked")
	}
	if g := ex.GlobalQueueDepth(); g != 0 {
		t.Fatalf("expected empty overflow channel, got depth %d", g)
	}
}

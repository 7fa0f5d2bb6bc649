package manager

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/gontp/taskpool/api"
)

type fakeOps struct {
	armFail   atomic.Bool
	armCount  atomic.Int32
	closeLog  []int
	closeFn   func(h int)
}

func (o *fakeOps) Arm(handle int, ctx *Context[string]) error {
	o.armCount.Add(1)
	if o.armFail.Load() {
		return api.ErrOutOfResources
	}
	return nil
}

func (o *fakeOps) Close(handle int) error {
	o.closeLog = append(o.closeLog, handle)
	if o.closeFn != nil {
		o.closeFn(handle)
	}
	return nil
}

func TestBaseSubmitAndLookup(t *testing.T) {
	ops := &fakeOps{}
	b := NewBase[int, string](ops)
	ctx := &Context[string]{Params: "p"}
	if err := b.Submit(1, ctx); err != nil {
		t.Fatal(err)
	}
	got, ok := b.Lookup(1)
	if !ok || got.Params != "p" {
		t.Fatalf("expected lookup to find context, got %v %v", got, ok)
	}
	if b.Len() != 1 {
		t.Fatalf("expected len 1, got %d", b.Len())
	}
}

func TestBaseSubmitArmFailureRollsBack(t *testing.T) {
	ops := &fakeOps{}
	ops.armFail.Store(true)
	b := NewBase[int, string](ops)
	ctx := &Context[string]{}
	if err := b.Submit(1, ctx); err == nil {
		t.Fatal("expected arm failure to propagate")
	}
	if _, ok := b.Lookup(1); ok {
		t.Fatal("expected failed submission to roll back")
	}
}

func TestBaseCancelUnknown(t *testing.T) {
	ops := &fakeOps{}
	b := NewBase[int, string](ops)
	if err := b.Cancel(99); err != api.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBaseCancelRemoves(t *testing.T) {
	ops := &fakeOps{}
	b := NewBase[int, string](ops)
	b.Submit(1, &Context[string]{})
	if err := b.Cancel(1); err != nil {
		t.Fatal(err)
	}
	if _, ok := b.Lookup(1); ok {
		t.Fatal("expected handle removed after cancel")
	}
}

func TestBaseCancelAllClearsMap(t *testing.T) {
	ops := &fakeOps{}
	b := NewBase[int, string](ops)
	for i := 0; i < 5; i++ {
		b.Submit(i, &Context[string]{})
	}
	n := b.CancelAll()
	if n != 5 {
		t.Fatalf("expected 5 cancelled, got %d", n)
	}
	if b.Len() != 0 {
		t.Fatal("expected map cleared")
	}
}

func TestBaseCleanupContextHonorsRemovalPermission(t *testing.T) {
	ops := &fakeOps{}
	b := NewBase[int, string](ops)
	b.Submit(1, &Context[string]{})

	b.mu.Lock()
	b.removalAllowed = false
	b.mu.Unlock()

	b.CleanupContext(nil, 1)
	if _, ok := b.Lookup(1); !ok {
		t.Fatal("expected slot retained while removal forbidden")
	}

	b.mu.Lock()
	b.removalAllowed = true
	b.mu.Unlock()
	b.CleanupContext(nil, 1)
	if _, ok := b.Lookup(1); ok {
		t.Fatal("expected slot removed once removal allowed")
	}
}

func TestBaseCancelWaitsForInFlightCallback(t *testing.T) {
	ops := &fakeOps{}
	b := NewBase[int, string](ops)
	ctx := &Context[string]{}
	b.Submit(1, ctx)

	release := make(chan struct{})
	entered := make(chan struct{})
	done := ctx.MarkRunning()
	go func() {
		close(entered)
		<-release
		done()
	}()
	<-entered

	cancelReturned := make(chan struct{})
	go func() {
		if err := b.Cancel(1); err != nil {
			t.Error(err)
		}
		close(cancelReturned)
	}()

	select {
	case <-cancelReturned:
		t.Fatal("Cancel returned before the in-flight callback finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-cancelReturned:
	case <-time.After(time.Second):
		t.Fatal("Cancel never returned after the callback finished")
	}
}

func TestBaseCancelAllWaitsForInFlightCallbacks(t *testing.T) {
	ops := &fakeOps{}
	b := NewBase[int, string](ops)
	ctx1 := &Context[string]{}
	ctx2 := &Context[string]{}
	b.Submit(1, ctx1)
	b.Submit(2, ctx2)

	release := make(chan struct{})
	done1 := ctx1.MarkRunning()
	go func() {
		<-release
		done1()
	}()

	cancelReturned := make(chan struct{})
	go func() {
		b.CancelAll()
		close(cancelReturned)
	}()

	select {
	case <-cancelReturned:
		t.Fatal("CancelAll returned before the in-flight callback finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-cancelReturned:
	case <-time.After(time.Second):
		t.Fatal("CancelAll never returned after the callback finished")
	}
}

package manager

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/gontp/taskpool/internal/callback"
	"github.com/gontp/taskpool/internal/native"
)

func TestTimerManagerOneShot(t *testing.T) {
	engine := native.NewTimerEngine()
	defer engine.Close()
	m := NewTimerManager(engine)

	var count atomic.Int32
	done := make(chan struct{})
	w, err := callback.New(callback.KindTimer, func() {
		count.Add(1)
		close(done)
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Submit(w, TimerParams{FirstFire: 10 * time.Millisecond}); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
	time.Sleep(30 * time.Millisecond)
	if count.Load() != 1 {
		t.Fatalf("expected exactly 1 fire, got %d", count.Load())
	}
}

func TestTimerManagerPeriodic(t *testing.T) {
	engine := native.NewTimerEngine()
	defer engine.Close()
	m := NewTimerManager(engine)

	var count atomic.Int32
	w, _ := callback.New(callback.KindTimer, func() { count.Add(1) }, nil)
	id, err := m.Submit(w, TimerParams{FirstFire: 2 * time.Millisecond, Period: 5 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(40 * time.Millisecond)
	m.Cancel(id)
	if count.Load() <= 1 {
		t.Fatalf("expected periodic timer to fire more than once, got %d", count.Load())
	}
}

func TestTimerManagerCancelDrainsInFlightCallback(t *testing.T) {
	engine := native.NewTimerEngine()
	defer engine.Close()
	m := NewTimerManager(engine)

	entered := make(chan struct{})
	release := make(chan struct{})
	w, _ := callback.New(callback.KindTimer, func() {
		close(entered)
		<-release
	}, nil)
	id, err := m.Submit(w, TimerParams{FirstFire: 2 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	<-entered

	cancelReturned := make(chan struct{})
	go func() {
		m.Cancel(id)
		close(cancelReturned)
	}()

	select {
	case <-cancelReturned:
		t.Fatal("Cancel returned while the timer callback was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-cancelReturned:
	case <-time.After(time.Second):
		t.Fatal("Cancel never returned after the callback finished")
	}
}

func TestTimerManagerReplace(t *testing.T) {
	engine := native.NewTimerEngine()
	defer engine.Close()
	m := NewTimerManager(engine)

	wA, _ := callback.New(callback.KindTimer, func() { t.Error("A should not run") }, nil)
	id, err := m.Submit(wA, TimerParams{FirstFire: 10 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	calledB := make(chan struct{})
	wB, _ := callback.New(callback.KindTimer, func() { close(calledB) }, nil)
	if err := m.Replace(id, wB); err != nil {
		t.Fatal(err)
	}

	select {
	case <-calledB:
	case <-time.After(time.Second):
		t.Fatal("replacement timer callback never fired")
	}
}

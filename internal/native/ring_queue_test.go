package native

import (
	"testing"
	"time"
)

func TestRingQueueEnqueueDequeueFIFO(t *testing.T) {
	q := newRingQueue[int](4)
	for i := 0; i < 4; i++ {
		if !q.enqueue(i) {
			t.Fatalf("enqueue %d: expected room", i)
		}
	}
	if q.enqueue(4) {
		t.Fatal("expected queue at capacity to reject a fifth item")
	}
	for i := 0; i < 4; i++ {
		v, ok := q.dequeue()
		if !ok || v != i {
			t.Fatalf("expected %d, got %d (ok=%v)", i, v, ok)
		}
	}
	if _, ok := q.dequeue(); ok {
		t.Fatal("expected empty queue to report ok=false")
	}
}

func TestRingQueueApproxLen(t *testing.T) {
	q := newRingQueue[int](8)
	if n := q.approxLen(); n != 0 {
		t.Fatalf("expected empty queue len 0, got %d", n)
	}
	for i := 0; i < 3; i++ {
		q.enqueue(i)
	}
	if n := q.approxLen(); n != 3 {
		t.Fatalf("expected len 3, got %d", n)
	}
	q.dequeue()
	if n := q.approxLen(); n != 2 {
		t.Fatalf("expected len 2, got %d", n)
	}
}

func TestRingQueueConcurrentStealingConsumers(t *testing.T) {
	q := newRingQueue[int](1024)
	const n = 500
	for i := 0; i < n; i++ {
		q.enqueue(i)
	}

	results := make(chan int, n)
	done := make(chan struct{})
	for c := 0; c < 4; c++ {
		go func() {
			for {
				v, ok := q.dequeue()
				if !ok {
					select {
					case <-done:
						return
					default:
						continue
					}
				}
				results <- v
			}
		}()
	}

	seen := make(map[int]bool, n)
	deadline := time.After(5 * time.Second)
	for len(seen) < n {
		select {
		case v := <-results:
			seen[v] = true
		case <-deadline:
			t.Fatalf("timed out with %d/%d items collected", len(seen), n)
		}
	}
	close(done)
}

package duration

import (
	"testing"
	"time"
)

func TestRoundTripWithinOneQuantum(t *testing.T) {
	cases := []time.Duration{
		0, time.Microsecond, 10 * time.Millisecond, 3 * time.Second, 72 * time.Hour,
	}
	for _, d := range cases {
		native := ToNative(d)
		back := native.ToDuration()
		diff := d - back
		if diff < 0 {
			diff = -diff
		}
		if diff > Tick {
			t.Errorf("round trip for %v drifted by %v (> one quantum)", d, diff)
		}
	}
}

func TestNegateIsInvolutiveExceptSentinels(t *testing.T) {
	n := ToNative(5 * time.Millisecond)
	if n.Negate().Negate() != n {
		t.Fatalf("negate should be its own inverse")
	}
	if Infinite.Negate() != Infinite {
		t.Fatalf("infinite must not be negated")
	}
	if Native(0).Negate() != 0 {
		t.Fatalf("zero must not be negated")
	}
}

func TestUntilDeadlineClampsPastToZero(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	got := UntilDeadline(past, now)
	if got != 0 {
		t.Fatalf("expected clamped-to-zero native timeout, got %d", got)
	}
}

func TestUntilDeadlineFuture(t *testing.T) {
	now := time.Now()
	future := now.Add(10 * time.Millisecond)
	got := UntilDeadline(future, now)
	// Relative timeouts are negated: a real future deadline must be < 0 (and not 0).
	if got >= 0 {
		t.Fatalf("expected negative relative timeout, got %d", got)
	}
}

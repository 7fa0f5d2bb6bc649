package cleanup

import "testing"

type fakeMember struct {
	name   string
	closed *[]string
}

func (f *fakeMember) CancelAndWait() {
	*f.closed = append(*f.closed, f.name)
}

func TestGroupClosesInReverseOrder(t *testing.T) {
	var closed []string
	g := New()
	g.Add(&fakeMember{name: "work", closed: &closed})
	g.Add(&fakeMember{name: "wait", closed: &closed})
	g.Add(&fakeMember{name: "timer", closed: &closed})

	g.Close()

	want := []string{"timer", "wait", "work"}
	if len(closed) != len(want) {
		t.Fatalf("got %v want %v", closed, want)
	}
	for i := range want {
		if closed[i] != want[i] {
			t.Fatalf("got %v want %v", closed, want)
		}
	}
}

func TestGroupCloseIsIdempotent(t *testing.T) {
	var closed []string
	g := New()
	g.Add(&fakeMember{name: "only", closed: &closed})
	g.Close()
	g.Close()
	if len(closed) != 1 {
		t.Fatalf("expected single close, got %v", closed)
	}
}

func TestAddAfterCloseIsNoop(t *testing.T) {
	var closed []string
	g := New()
	g.Close()
	g.Add(&fakeMember{name: "late", closed: &closed})
	g.Close()
	if len(closed) != 0 {
		t.Fatalf("expected no members closed, got %v", closed)
	}
}

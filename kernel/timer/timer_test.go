package timer

import (
	"testing"
	"time"
)

func TestClockSeam(t *testing.T) {
	defer SetClock(nil)

	fixed := time.Unix(100, int64(250*time.Millisecond))
	SetClock(func() time.Time { return fixed })

	if exp, got := uint64(100250), NowMS(); got != exp {
		t.Errorf("expected NowMS to return %d; got %d", exp, got)
	}

	if exp, got := uint64(100250000), NowUS(); got != exp {
		t.Errorf("expected NowUS to return %d; got %d", exp, got)
	}

	SetClock(nil)
	if NowMS() == 100250 {
		t.Error("expected SetClock(nil) to restore the default clock")
	}
}

func TestQueueExpiry(t *testing.T) {
	var q Queue
	q.Add(30, "c")
	q.Add(10, "a")
	q.Add(20, "b")

	if deadline, ok := q.NextDeadline(); !ok || deadline != 10 {
		t.Fatalf("expected next deadline (10, true); got (%d, %t)", deadline, ok)
	}

	if due := q.Expired(5); due != nil {
		t.Fatalf("expected no expired entries at t=5; got %v", due)
	}

	due := q.Expired(20)
	if exp := 2; len(due) != exp {
		t.Fatalf("expected %d expired entries at t=20; got %d", exp, len(due))
	}
	if due[0] != "a" || due[1] != "b" {
		t.Fatalf("expected expired entries in deadline order [a b]; got %v", due)
	}

	if exp, got := 1, q.Len(); got != exp {
		t.Fatalf("expected %d pending entry; got %d", exp, got)
	}
}

func TestQueueFIFOOnEqualDeadlines(t *testing.T) {
	var q Queue
	for _, payload := range []string{"first", "second", "third"} {
		q.Add(42, payload)
	}

	due := q.Expired(42)
	for specIndex, exp := range []string{"first", "second", "third"} {
		if due[specIndex] != exp {
			t.Errorf("[spec %d] expected payload %q; got %q", specIndex, exp, due[specIndex])
		}
	}

	if _, ok := q.NextDeadline(); ok {
		t.Error("expected drained queue to report no next deadline")
	}
}

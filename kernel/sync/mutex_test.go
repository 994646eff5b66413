package sync

import (
	"testing"

	"rvos/kernel/sched"
)

func newTask(tid int) *sched.Task {
	return &sched.Task{TID: tid, Priority: sched.DefaultPriority}
}

func TestBlockingMutexHandoff(t *testing.T) {
	e := sched.NewExecutor()
	m := NewBlockingMutex(e)

	var events []string
	e.Spawn(newTask(0), func() {
		m.Lock()
		events = append(events, "A locked")
		e.Yield() // let B and C pile up on the mutex
		e.Yield()
		events = append(events, "A unlocking")
		m.Unlock()
	})
	e.Spawn(newTask(1), func() {
		m.Lock()
		events = append(events, "B locked")
		m.Unlock()
	})
	e.Spawn(newTask(2), func() {
		m.Lock()
		events = append(events, "C locked")
		m.Unlock()
	})

	e.Run()

	exp := []string{"A locked", "A unlocking", "B locked", "C locked"}
	if len(events) != len(exp) {
		t.Fatalf("expected events %v; got %v", exp, events)
	}
	for i := range exp {
		if events[i] != exp[i] {
			t.Fatalf("expected FIFO ownership transfer %v; got %v", exp, events)
		}
	}
}

func TestBlockingMutexNeverObservablyFree(t *testing.T) {
	e := sched.NewExecutor()
	m := NewBlockingMutex(e)

	var events []string
	e.Spawn(newTask(0), func() {
		m.Lock()
		e.Yield() // B blocks on the mutex
		m.Unlock()
		events = append(events, "A unlocked")
		e.Yield() // C attempts the lock while B holds a pending transfer
		e.Yield()
	})
	e.Spawn(newTask(1), func() {
		m.Lock()
		events = append(events, "B locked")
		e.Yield()
		m.Unlock()
		events = append(events, "B unlocked")
	})
	e.Spawn(newTask(2), func() {
		e.Yield() // run after A's unlock
		e.Yield()
		m.Lock()
		events = append(events, "C locked")
		m.Unlock()
	})

	e.Run()

	// C must not acquire the mutex between A's unlock and B's wakeup:
	// ownership moved directly to B.
	for i, exp := range []string{"A unlocked", "B locked"} {
		if i >= len(events) || events[i] != exp {
			t.Fatalf("expected handoff order starting [A unlocked, B locked]; got %v", events)
		}
	}
	if last := events[len(events)-1]; last != "C locked" {
		t.Fatalf("expected C to lock only after B's unlock; got %v", events)
	}
}

func TestSpinMutexYieldsWhileContended(t *testing.T) {
	e := sched.NewExecutor()
	m := NewSpinMutex(e)

	var events []string
	e.Spawn(newTask(0), func() {
		m.Lock()
		events = append(events, "A locked")
		e.Yield() // B spins and yields at least once
		m.Unlock()
		events = append(events, "A unlocked")
	})
	e.Spawn(newTask(1), func() {
		m.Lock()
		events = append(events, "B locked")
		m.Unlock()
	})

	e.Run()

	exp := []string{"A locked", "A unlocked", "B locked"}
	if len(events) != len(exp) {
		t.Fatalf("expected events %v; got %v", exp, events)
	}
	for i := range exp {
		if events[i] != exp[i] {
			t.Fatalf("expected spin acquisition order %v; got %v", exp, events)
		}
	}
}

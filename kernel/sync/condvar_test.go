package sync

import (
	"testing"

	"rvos/kernel/sched"
)

func TestCondvarReleasesMutexWhileWaiting(t *testing.T) {
	e := sched.NewExecutor()
	m := NewBlockingMutex(e)
	c := NewCondvar(e)

	var events []string
	e.Spawn(newTask(0), func() {
		m.Lock()
		events = append(events, "A waits")
		c.Wait(m)
		events = append(events, "A returned")
		m.Unlock()
	})
	e.Spawn(newTask(1), func() {
		// A is inside Wait: the mutex must be acquirable, proving it
		// was released before A parked.
		m.Lock()
		events = append(events, "B locked")
		c.Signal()
		m.Unlock()
	})

	e.Run()

	exp := []string{"A waits", "B locked", "A returned"}
	if len(events) != len(exp) {
		t.Fatalf("expected events %v; got %v", exp, events)
	}
	for i := range exp {
		if events[i] != exp[i] {
			t.Fatalf("expected events %v; got %v", exp, events)
		}
	}
}

func TestCondvarWaiterReacquiresBeforeThirdTask(t *testing.T) {
	e := sched.NewExecutor()
	m := NewBlockingMutex(e)
	c := NewCondvar(e)

	var events []string
	e.Spawn(newTask(0), func() {
		m.Lock()
		c.Wait(m)
		events = append(events, "A reacquired")
		m.Unlock()
	})
	e.Spawn(newTask(1), func() {
		m.Lock()
		c.Signal() // A moves to the mutex queue when it reacquires
		m.Unlock() // ownership transfer rules apply from here on
	})
	e.Spawn(newTask(2), func() {
		e.Yield() // let B signal first
		m.Lock()
		events = append(events, "C locked")
		m.Unlock()
	})

	e.Run()

	if len(events) != 2 || events[0] != "A reacquired" || events[1] != "C locked" {
		t.Fatalf("expected A to reacquire the mutex before C; got %v", events)
	}
}

func TestCondvarSignalWithoutWaitersIsLost(t *testing.T) {
	e := sched.NewExecutor()
	m := NewBlockingMutex(e)
	c := NewCondvar(e)

	var waited bool
	e.Spawn(newTask(0), func() {
		c.Signal() // no waiter: lost
	})
	e.Spawn(newTask(1), func() {
		m.Lock()
		c.Wait(m)
		waited = true
		m.Unlock()
	})

	e.Run()

	if waited {
		t.Fatal("expected the earlier signal to be lost, leaving the waiter parked")
	}
}

func TestCondvarSignalsWakeInFIFOOrder(t *testing.T) {
	e := sched.NewExecutor()
	m := NewBlockingMutex(e)
	c := NewCondvar(e)

	var woken []int
	for tid := 0; tid < 2; tid++ {
		tid := tid
		e.Spawn(newTask(tid), func() {
			m.Lock()
			c.Wait(m)
			woken = append(woken, tid)
			m.Unlock()
		})
	}
	e.Spawn(newTask(2), func() {
		c.Signal()
		c.Signal()
	})

	e.Run()

	if len(woken) != 2 || woken[0] != 0 || woken[1] != 1 {
		t.Fatalf("expected waiters woken in FIFO order [0 1]; got %v", woken)
	}
}

package sched

import (
	"testing"
	"time"

	"rvos/kernel/timer"
)

func TestExecutorRunsTasksToCompletion(t *testing.T) {
	e := NewExecutor()

	var order []int
	for tid := 0; tid < 3; tid++ {
		tid := tid
		e.Spawn(&Task{TID: tid, Priority: DefaultPriority}, func() {
			order = append(order, tid)
			e.Yield()
			order = append(order, tid)
		})
	}

	e.Run()

	if exp, got := 6, len(order); got != exp {
		t.Fatalf("expected %d scheduling slices; got %d (%v)", exp, got, order)
	}

	// Equal priorities and strides: creation order on the first pass.
	for i, exp := range []int{0, 1, 2} {
		if order[i] != exp {
			t.Fatalf("expected first round order [0 1 2]; got %v", order)
		}
	}
}

func TestExecutorBlockAndWake(t *testing.T) {
	e := NewExecutor()

	var (
		blocked = &Task{TID: 0, Priority: DefaultPriority}
		events  []string
	)

	e.Spawn(blocked, func() {
		events = append(events, "block")
		e.Block()
		events = append(events, "woken")
	})
	e.Spawn(&Task{TID: 1, Priority: DefaultPriority}, func() {
		events = append(events, "waker")
		e.WakeUp(blocked)
	})

	e.Run()

	if exp := []string{"block", "waker", "woken"}; len(events) != len(exp) ||
		events[0] != exp[0] || events[1] != exp[1] || events[2] != exp[2] {
		t.Fatalf("expected events %v; got %v", exp, events)
	}

	if blocked.Status != StatusZombie {
		t.Fatalf("expected woken task to finish as Zombie; got %v", blocked.Status)
	}
}

func TestExecutorLeavesBlockedTasksParked(t *testing.T) {
	e := NewExecutor()

	stuck := &Task{TID: 0, Priority: DefaultPriority}
	e.Spawn(stuck, func() {
		e.Block() // nothing will ever wake this task
	})

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected Run to return once no task is runnable")
	}

	if stuck.Status != StatusBlocked {
		t.Fatalf("expected the parked task to remain Blocked; got %v", stuck.Status)
	}
}

func TestExecutorSleepWakeup(t *testing.T) {
	var fakeMS uint64
	timer.SetClock(func() time.Time {
		return time.Unix(0, int64(fakeMS)*int64(time.Millisecond))
	})
	defer timer.SetClock(nil)

	e := NewExecutor()
	e.SetIdleWait(func(d time.Duration) {
		fakeMS += uint64(d / time.Millisecond)
	})
	defer e.SetIdleWait(nil)

	var wokeAt []uint64
	for _, delay := range []uint64{30, 10} {
		delay := delay
		e.Spawn(&Task{TID: int(delay), Priority: DefaultPriority}, func() {
			e.SleepUntil(timer.NowMS() + delay)
			wokeAt = append(wokeAt, delay)
		})
	}

	e.Run()

	if exp := 2; len(wokeAt) != exp {
		t.Fatalf("expected %d sleepers to wake; got %d", exp, len(wokeAt))
	}
	if wokeAt[0] != 10 || wokeAt[1] != 30 {
		t.Fatalf("expected sleepers to wake in deadline order [10 30]; got %v", wokeAt)
	}
	if fakeMS < 30 {
		t.Fatalf("expected the clock to advance past the last deadline; got %d", fakeMS)
	}
}

func TestExecutorKillUnwindsTask(t *testing.T) {
	e := NewExecutor()

	var resumedUserCode bool
	victim := &Task{TID: 0, Priority: DefaultPriority}
	e.Spawn(victim, func() {
		e.Block()
		resumedUserCode = true
	})
	e.Spawn(&Task{TID: 1, Priority: DefaultPriority}, func() {
		e.Kill(victim)
	})

	e.Run()

	if resumedUserCode {
		t.Fatal("expected killed task to unwind without re-entering user code")
	}
	if victim.Status != StatusZombie {
		t.Fatalf("expected killed task to finish as Zombie; got %v", victim.Status)
	}
}

func TestExecutorExitHook(t *testing.T) {
	e := NewExecutor()

	var hookCodes []int32
	e.OnTaskExit = func(task *Task) {
		hookCodes = append(hookCodes, task.ExitCode)
	}

	e.Spawn(&Task{TID: 0, Priority: DefaultPriority}, func() {
		e.ExitCurrent(42)
		t.Error("ExitCurrent must not return")
	})

	e.Run()

	if len(hookCodes) != 1 || hookCodes[0] != 42 {
		t.Fatalf("expected exit hook to observe code [42]; got %v", hookCodes)
	}
}

func TestExecutorCurrent(t *testing.T) {
	e := NewExecutor()

	task := &Task{TID: 7, PID: 3, Priority: DefaultPriority}
	var observed *Task
	e.Spawn(task, func() {
		observed = e.Current()
	})

	e.Run()

	if observed != task {
		t.Fatalf("expected Current to return the running task; got %+v", observed)
	}
	if e.Current() != nil {
		t.Fatal("expected Current to return nil after Run drains")
	}
}

package sched

import (
	"container/heap"
	"runtime"
	"sync"
	"time"

	"rvos/kernel/timer"
)

// Executor is the single-core cooperative dispatcher. Exactly one task
// goroutine executes at any instant: the executor hands it the CPU through
// its resume channel and takes the CPU back on the traps channel at every
// suspension point (yield, block, sleep, exit).
//
// Executor and timer state is guarded by a short-section mutex released on
// every exit path. Tasks that remain blocked when Run returns stay parked;
// their goroutines are reclaimed only at process teardown via Kill.
type Executor struct {
	mu      sync.Mutex
	ready   readyQueue
	current *Task
	timers  timer.Queue
	nextSeq uint64

	// traps carries the CPU back from the running task to the dispatcher.
	traps chan struct{}

	// OnTaskExit is invoked on the exiting task's goroutine after its
	// status turns Zombie and before the CPU is handed back. The process
	// layer installs its teardown bookkeeping here.
	OnTaskExit func(*Task)

	// idleWait pauses the dispatcher until the next timer deadline when
	// no task is ready. Swappable for tests.
	idleWait func(time.Duration)
}

// NewExecutor returns an executor with an empty ready queue.
func NewExecutor() *Executor {
	return &Executor{
		traps:    make(chan struct{}),
		idleWait: time.Sleep,
	}
}

// SetIdleWait replaces the function used to pause the dispatcher while all
// tasks sleep. Passing nil restores the default.
func (e *Executor) SetIdleWait(fn func(time.Duration)) {
	if fn == nil {
		fn = time.Sleep
	}
	e.idleWait = fn
}

// Spawn registers t and starts its goroutine. The goroutine stays parked
// until the dispatcher selects the task; fn runs as the task's user code
// and the task exits when fn returns.
func (e *Executor) Spawn(t *Task, fn func()) {
	e.mu.Lock()
	t.resume = make(chan struct{})
	t.seq = e.nextSeq
	e.nextSeq++
	t.Status = StatusReady
	t.StartMS = timer.NowMS()
	heap.Push(&e.ready, t)
	e.mu.Unlock()

	go func() {
		<-t.resume
		defer e.finish(t)
		if !t.killed {
			fn()
		}
	}()
}

// Current returns the task holding the CPU, or nil while the dispatcher
// itself runs.
func (e *Executor) Current() *Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Yield suspends the current task, leaves it Ready and runs the next task.
// Returns when the scheduler selects this task again.
func (e *Executor) Yield() {
	e.mu.Lock()
	t := e.current
	t.Status = StatusReady
	heap.Push(&e.ready, t)
	e.current = nil
	e.mu.Unlock()

	e.relinquish(t)
}

// Block parks the current task until a WakeUp call makes it Ready again.
// The caller is responsible for recording the task in whatever wait set
// will wake it.
func (e *Executor) Block() {
	e.mu.Lock()
	t := e.current
	t.Status = StatusBlocked
	e.current = nil
	e.mu.Unlock()

	e.relinquish(t)
}

// SleepUntil parks the current task and arranges for the timer queue to
// wake it once deadlineMS passes. Sleeping tasks have no other wakeup path.
func (e *Executor) SleepUntil(deadlineMS uint64) {
	e.mu.Lock()
	t := e.current
	t.Status = StatusBlocked
	e.timers.Add(deadlineMS, t)
	e.current = nil
	e.mu.Unlock()

	e.relinquish(t)
}

// WakeUp moves a Blocked task back to the ready queue. Waking a Ready,
// Running or Zombie task has no effect, so a primitive may wake a task
// whose process has since exited without corrupting scheduler state.
func (e *Executor) WakeUp(t *Task) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t.Status != StatusBlocked {
		return
	}
	t.Status = StatusReady
	heap.Push(&e.ready, t)
}

// Kill marks t so it unwinds instead of re-entering user code and, if t is
// blocked, makes it Ready so its goroutine gets the chance to do so. Must
// not be called for the current task; the current task exits via
// ExitCurrent.
func (e *Executor) Kill(t *Task) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t.killed = true
	if t.Status == StatusBlocked {
		t.Status = StatusReady
		heap.Push(&e.ready, t)
	}
}

// ExitCurrent records the exit code and terminates the current task. It
// never returns: the task goroutine unwinds and the exit hook runs before
// the CPU moves on.
func (e *Executor) ExitCurrent(code int32) {
	e.mu.Lock()
	e.current.ExitCode = code
	e.mu.Unlock()

	runtime.Goexit()
}

// Run dispatches tasks until no task is Ready and no timer is pending.
// Tasks still Blocked at that point stay parked: with deadlock detection
// off, a circular wait is observable as Run returning while the involved
// tasks remain Blocked.
func (e *Executor) Run() {
	for {
		e.mu.Lock()
		e.wakeExpired()

		if e.ready.Len() == 0 {
			deadline, ok := e.timers.NextDeadline()
			e.mu.Unlock()
			if !ok {
				return
			}
			if now := timer.NowMS(); deadline > now {
				e.idleWait(time.Duration(deadline-now) * time.Millisecond)
			}
			continue
		}

		t := heap.Pop(&e.ready).(*Task)
		t.Stride += BigStride / uint64(t.Priority)
		t.Status = StatusRunning
		e.current = t
		e.mu.Unlock()

		t.resume <- struct{}{}
		<-e.traps
	}
}

// wakeExpired wakes every sleeper whose deadline has passed. Caller holds
// the executor lock.
func (e *Executor) wakeExpired() {
	for _, payload := range e.timers.Expired(timer.NowMS()) {
		t := payload.(*Task)
		if t.Status == StatusBlocked {
			t.Status = StatusReady
			heap.Push(&e.ready, t)
		}
	}
}

// relinquish hands the CPU back to the dispatcher and parks until the task
// is selected again. Killed tasks unwind here instead of returning to the
// interrupted user code.
func (e *Executor) relinquish(t *Task) {
	e.traps <- struct{}{}
	<-t.resume

	if t.killed {
		runtime.Goexit()
	}
}

// finish runs on the exiting task's goroutine, marks it Zombie, fires the
// exit hook and hands the CPU back for good.
func (e *Executor) finish(t *Task) {
	e.mu.Lock()
	t.Status = StatusZombie
	e.current = nil
	e.mu.Unlock()

	if e.OnTaskExit != nil {
		e.OnTaskExit(t)
	}

	e.traps <- struct{}{}
}

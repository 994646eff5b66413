package sync

import "rvos/kernel/sched"

// Condvar is a condition variable with monitor semantics: signals sent
// while no task waits are lost. The associated mutex is supplied at each
// wait call rather than fixed at creation.
type Condvar struct {
	ex    *sched.Executor
	waitq []*sched.Task
}

// NewCondvar returns a condition variable scheduled by ex.
func NewCondvar(ex *sched.Executor) *Condvar {
	return &Condvar{ex: ex}
}

// Signal wakes the first parked task, if any.
func (c *Condvar) Signal() {
	if len(c.waitq) > 0 {
		head := c.waitq[0]
		c.waitq = c.waitq[1:]
		c.ex.WakeUp(head)
	}
}

// Wait atomically releases mutex and parks the caller until a Signal, then
// reacquires mutex before returning. The caller must hold mutex. The
// caller is enqueued before the mutex is released so a signal arriving
// between the release and the park cannot be lost.
func (c *Condvar) Wait(mutex Mutex) {
	c.waitq = append(c.waitq, c.ex.Current())
	mutex.Unlock()
	c.ex.Block()
	mutex.Lock()
}

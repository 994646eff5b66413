// Package sync implements the user-facing synchronization primitives:
// spinning and blocking mutexes, counting semaphores and condition
// variables. All primitives target the single-core cooperative scheduling
// model: only the running task ever mutates a primitive's state, so the
// structures carry no internal locking. Porting to a preemptive multi-core
// model would require the spin variant to become a real compare-and-swap
// loop and every wait queue to gain its own lock.
package sync

import "rvos/kernel/sched"

// Mutex is the capability set shared by both mutex strategies. A condition
// variable accepts either strategy at each wait call.
//
// Ownership is not reentrant and Unlock does not verify that the caller
// holds the lock; that discipline is left to the caller.
type Mutex interface {
	Lock()
	Unlock()
}

// SpinMutex busy-waits by yielding back to the scheduler until the lock is
// free. Appropriate only under cooperative single-core scheduling, where a
// yield gives the holder the chance to run and release.
type SpinMutex struct {
	ex     *sched.Executor
	locked bool
}

// NewSpinMutex returns an unlocked spin mutex scheduled by ex.
func NewSpinMutex(ex *sched.Executor) *SpinMutex {
	return &SpinMutex{ex: ex}
}

// Lock acquires the mutex, yielding between attempts while it is held.
// The test-and-set below is atomic because no suspension point separates
// the check from the assignment.
func (m *SpinMutex) Lock() {
	for m.locked {
		m.ex.Yield()
	}
	m.locked = true
}

// Unlock releases the mutex.
func (m *SpinMutex) Unlock() {
	m.locked = false
}

// BlockingMutex parks contending tasks on a FIFO wait queue. Unlock hands
// ownership directly to the queue head: the mutex is never observably free
// in between, so a third task spinning on the same handle cannot steal the
// lock from a woken waiter.
type BlockingMutex struct {
	ex     *sched.Executor
	locked bool
	waitq  []*sched.Task
}

// NewBlockingMutex returns an unlocked blocking mutex scheduled by ex.
func NewBlockingMutex(ex *sched.Executor) *BlockingMutex {
	return &BlockingMutex{ex: ex}
}

// Lock acquires the mutex, parking the caller while it is held. When Lock
// returns after parking, ownership has already been transferred to the
// caller by the releasing task.
func (m *BlockingMutex) Lock() {
	if !m.locked {
		m.locked = true
		return
	}

	m.waitq = append(m.waitq, m.ex.Current())
	m.ex.Block()
}

// Unlock releases the mutex or, if tasks are parked, transfers ownership
// to the first of them.
func (m *BlockingMutex) Unlock() {
	if len(m.waitq) > 0 {
		head := m.waitq[0]
		m.waitq = m.waitq[1:]
		m.ex.WakeUp(head)
		return
	}
	m.locked = false
}

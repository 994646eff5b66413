package sync

import "rvos/kernel/sched"

// Semaphore is a counting semaphore with a FIFO wait queue. The count may
// run negative while tasks are parked; callers never observe the raw
// count, only whether Down parks them.
type Semaphore struct {
	ex    *sched.Executor
	count int
	waitq []*sched.Task
}

// NewSemaphore returns a semaphore scheduled by ex holding count units.
func NewSemaphore(ex *sched.Executor, count int) *Semaphore {
	return &Semaphore{ex: ex, count: count}
}

// Up releases one unit and wakes the first parked task, if any.
func (s *Semaphore) Up() {
	s.count++
	if len(s.waitq) > 0 {
		head := s.waitq[0]
		s.waitq = s.waitq[1:]
		s.ex.WakeUp(head)
	}
}

// Down claims one unit, parking the caller until a matching Up when no
// unit is free.
func (s *Semaphore) Down() {
	s.count--
	if s.count < 0 {
		s.waitq = append(s.waitq, s.ex.Current())
		s.ex.Block()
	}
}

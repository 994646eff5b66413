// Synchronization syscalls and the deadlock-detection protocol around
// their acquisition paths.

package syscall

import (
	"rvos/kernel/proc"
	"rvos/kernel/sched"
	ksync "rvos/kernel/sync"
	"rvos/kernel/timer"
)

// mutexSlot pairs a mutex with its detector resource id.
type mutexSlot struct {
	m        ksync.Mutex
	resID    int
	blocking bool
}

// semSlot pairs a semaphore with its detector resource id and the unit
// count granted at creation.
type semSlot struct {
	s     *ksync.Semaphore
	resID int
	units int64
}

// SysSleep parks the caller until at least ms milliseconds pass. The
// timer wakeup is the only resumption path for a sleeping task.
func (k *Kernel) SysSleep(ms uint64) int64 {
	k.trace(NumSleep, "sys_sleep")
	if _, _, ok := k.current(); !ok {
		return ErrGeneric
	}

	k.exec.SleepUntil(timer.NowMS() + ms)
	return 0
}

// SysMutexCreate creates a mutex of the requested strategy and returns
// its handle.
func (k *Kernel) SysMutexCreate(blocking bool) int64 {
	k.trace(NumMutexCreate, "sys_mutex_create")
	p, _, ok := k.current()
	if !ok {
		return ErrGeneric
	}

	var m ksync.Mutex
	if blocking {
		m = ksync.NewBlockingMutex(k.exec)
	} else {
		m = ksync.NewSpinMutex(k.exec)
	}

	resID := p.AllocResource()
	id := p.Mutexes.Alloc(&mutexSlot{m: m, resID: resID, blocking: blocking})
	p.Resources.Grant(resID, 1)
	return int64(id)
}

// SysMutexLock acquires the mutex under the deadlock-detection protocol.
// Returns ErrDeadlock without blocking if the detector refuses the
// request.
func (k *Kernel) SysMutexLock(id int) int64 {
	k.trace(NumMutexLock, "sys_mutex_lock")
	p, t, ok := k.current()
	if !ok {
		return ErrGeneric
	}
	slot, ok := p.Mutexes.Get(id)
	if !ok {
		return ErrGeneric
	}

	ms := slot.(*mutexSlot)
	if !ms.blocking {
		// The spin variant never parks, so it sits outside the
		// detector's scope.
		ms.m.Lock()
		return 0
	}

	return k.acquire(p, t, ms.resID, ms.m.Lock)
}

// SysMutexUnlock releases the mutex, returning its unit to the free pool
// first so the accounting stays consistent whether or not detection is
// enabled.
func (k *Kernel) SysMutexUnlock(id int) int64 {
	k.trace(NumMutexUnlock, "sys_mutex_unlock")
	p, t, ok := k.current()
	if !ok {
		return ErrGeneric
	}
	slot, ok := p.Mutexes.Get(id)
	if !ok {
		return ErrGeneric
	}

	ms := slot.(*mutexSlot)
	if ms.blocking {
		p.Resources.Release(t.TID, ms.resID)
	}
	ms.m.Unlock()
	return 0
}

// SysMutexDestroy frees the mutex slot for handle reuse and withdraws its
// unit from the detector tables. Destroying a held or contended mutex is
// caller error, as with unlock.
func (k *Kernel) SysMutexDestroy(id int) int64 {
	k.trace(NumMutexDestroy, "sys_mutex_destroy")
	p, _, ok := k.current()
	if !ok {
		return ErrGeneric
	}
	slot, ok := p.Mutexes.Get(id)
	if !ok {
		return ErrGeneric
	}

	p.Resources.Revoke(slot.(*mutexSlot).resID, 1)
	p.Mutexes.Remove(id)
	return 0
}

// SysSemaphoreCreate creates a semaphore holding count units and returns
// its handle.
func (k *Kernel) SysSemaphoreCreate(count uint) int64 {
	k.trace(NumSemaphoreCreate, "sys_semaphore_create")
	p, _, ok := k.current()
	if !ok {
		return ErrGeneric
	}

	resID := p.AllocResource()
	id := p.Semaphores.Alloc(&semSlot{
		s:     ksync.NewSemaphore(k.exec, int(count)),
		resID: resID,
		units: int64(count),
	})
	p.Resources.Grant(resID, int64(count))
	return int64(id)
}

// SysSemaphoreUp releases one unit. Up always succeeds; the accounting
// release runs before the wakeup so a woken task observes consistent
// tables.
func (k *Kernel) SysSemaphoreUp(id int) int64 {
	k.trace(NumSemaphoreUp, "sys_semaphore_up")
	p, t, ok := k.current()
	if !ok {
		return ErrGeneric
	}
	slot, ok := p.Semaphores.Get(id)
	if !ok {
		return ErrGeneric
	}

	ss := slot.(*semSlot)
	p.Resources.Release(t.TID, ss.resID)
	ss.s.Up()
	return 0
}

// SysSemaphoreDown claims one unit under the deadlock-detection protocol.
func (k *Kernel) SysSemaphoreDown(id int) int64 {
	k.trace(NumSemaphoreDown, "sys_semaphore_down")
	p, t, ok := k.current()
	if !ok {
		return ErrGeneric
	}
	slot, ok := p.Semaphores.Get(id)
	if !ok {
		return ErrGeneric
	}

	ss := slot.(*semSlot)
	return k.acquire(p, t, ss.resID, ss.s.Down)
}

// SysSemaphoreDestroy frees the semaphore slot and withdraws its granted
// units from the detector tables.
func (k *Kernel) SysSemaphoreDestroy(id int) int64 {
	k.trace(NumSemaphoreDestroy, "sys_semaphore_destroy")
	p, _, ok := k.current()
	if !ok {
		return ErrGeneric
	}
	slot, ok := p.Semaphores.Get(id)
	if !ok {
		return ErrGeneric
	}

	ss := slot.(*semSlot)
	p.Resources.Revoke(ss.resID, ss.units)
	p.Semaphores.Remove(id)
	return 0
}

// SysCondvarCreate creates a condition variable and returns its handle.
func (k *Kernel) SysCondvarCreate() int64 {
	k.trace(NumCondvarCreate, "sys_condvar_create")
	p, _, ok := k.current()
	if !ok {
		return ErrGeneric
	}

	return int64(p.Condvars.Alloc(ksync.NewCondvar(k.exec)))
}

// SysCondvarSignal wakes the condition variable's first waiter, if any.
func (k *Kernel) SysCondvarSignal(id int) int64 {
	k.trace(NumCondvarSignal, "sys_condvar_signal")
	p, _, ok := k.current()
	if !ok {
		return ErrGeneric
	}
	slot, ok := p.Condvars.Get(id)
	if !ok {
		return ErrGeneric
	}

	slot.(*ksync.Condvar).Signal()
	return 0
}

// SysCondvarWait releases the mutex, parks on the condition variable and
// reacquires the mutex before returning. The caller must hold the mutex.
func (k *Kernel) SysCondvarWait(condID, mutexID int) int64 {
	k.trace(NumCondvarWait, "sys_condvar_wait")
	p, _, ok := k.current()
	if !ok {
		return ErrGeneric
	}
	condSlot, ok := p.Condvars.Get(condID)
	if !ok {
		return ErrGeneric
	}
	mtxSlot, ok := p.Mutexes.Get(mutexID)
	if !ok {
		return ErrGeneric
	}

	condSlot.(*ksync.Condvar).Wait(mtxSlot.(*mutexSlot).m)
	return 0
}

// SysCondvarDestroy frees the condition variable slot for handle reuse.
func (k *Kernel) SysCondvarDestroy(id int) int64 {
	k.trace(NumCondvarDestroy, "sys_condvar_destroy")
	p, _, ok := k.current()
	if !ok {
		return ErrGeneric
	}
	if !p.Condvars.Remove(id) {
		return ErrGeneric
	}
	return 0
}

// SysEnableDeadlockDetect toggles the caller's process-wide detection
// flag: 0 disables, 1 enables, anything else is rejected.
func (k *Kernel) SysEnableDeadlockDetect(enabled uint64) int64 {
	k.trace(NumEnableDeadlockDetect, "sys_enable_deadlock_detect")
	p, _, ok := k.current()
	if !ok {
		return ErrGeneric
	}

	switch enabled {
	case 0:
		p.DeadlockDetect = false
	case 1:
		p.DeadlockDetect = true
	default:
		return ErrGeneric
	}
	return 0
}

// acquire wraps a blocking acquisition in the detection protocol: register
// the hypothetical request, run the safety check if the process opted in,
// then either refuse without blocking or commit the allocation and perform
// the real acquire. The commit happens before the acquire so release
// bookkeeping stays balanced even for tasks parked on an ownership
// transfer.
func (k *Kernel) acquire(p *proc.Process, t *sched.Task, resID int, doAcquire func()) int64 {
	tables := &p.Resources

	tables.AddNeed(t.TID, resID)
	if p.DeadlockDetect && !tables.Safe(len(p.Threads)) {
		tables.RemoveNeed(t.TID, resID)
		return ErrDeadlock
	}

	tables.Allocate(t.TID, resID)
	doAcquire()
	return 0
}

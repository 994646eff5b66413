// Process and thread management syscalls.

package syscall

import (
	"rvos/kernel/sched"
	"rvos/kernel/timer"
)

// TimeVal is the wall-clock result of SysGetTime.
type TimeVal struct {
	Sec  uint64
	USec uint64
}

// TaskInfo is the result of SysTaskInfo.
type TaskInfo struct {
	// Status of the calling task; always Running when observed by the
	// caller itself.
	Status sched.Status

	// SyscallTimes is a copy of the caller's syscall histogram.
	SyscallTimes [sched.MaxSyscallNum]uint32

	// TimeMS is the time elapsed since the task became runnable.
	TimeMS uint64
}

// SysExit terminates the calling thread with the given exit code and
// never returns. When the main thread exits it takes the whole process
// down: remaining threads are killed and children are handed to the init
// process.
func (k *Kernel) SysExit(code int32) {
	k.trace(NumExit, "sys_exit")
	k.exec.ExitCurrent(code)
}

// SysYield gives up the CPU and re-enters the ready queue.
func (k *Kernel) SysYield() int64 {
	k.trace(NumYield, "sys_yield")
	if k.exec.Current() == nil {
		return ErrGeneric
	}
	k.exec.Yield()
	return 0
}

// SysGetPID returns the calling process's pid.
func (k *Kernel) SysGetPID() int64 {
	k.trace(NumGetPID, "sys_getpid")
	p, _, ok := k.current()
	if !ok {
		return ErrGeneric
	}
	return int64(p.PID)
}

// SysSpawn creates a child process running the named program and returns
// its pid. Unlike a fork/exec pair, the child starts from a fresh address
// space and an empty table set of its own.
func (k *Kernel) SysSpawn(path string) int64 {
	k.trace(NumSpawn, "sys_spawn")
	p, _, ok := k.current()
	if !ok {
		return ErrGeneric
	}
	main, ok := k.apps[path]
	if !ok {
		return ErrGeneric
	}

	child := k.procs.NewProcess(p)
	k.startMainThread(child, main)
	return int64(child.PID)
}

// SysWaitPID reaps a zombie child. pid selects a specific child or any
// with -1. Returns the reaped child's pid with its exit code stored
// through exitCode, ErrGeneric when no matching child exists and ErrAgain
// while the match is still running. Never blocks; callers poll with
// yield.
func (k *Kernel) SysWaitPID(pid int, exitCode *int32) int64 {
	k.trace(NumWaitPID, "sys_waitpid")
	p, _, ok := k.current()
	if !ok {
		return ErrGeneric
	}

	matched := false
	for i, childPID := range p.Children {
		if pid != -1 && pid != childPID {
			continue
		}
		matched = true

		child, live := k.procs.Lookup(childPID)
		if !live || !child.Zombie {
			continue
		}

		p.Children = append(p.Children[:i], p.Children[i+1:]...)
		k.procs.Remove(childPID)
		if exitCode != nil {
			*exitCode = child.ExitCode
		}
		return int64(childPID)
	}

	if !matched {
		return ErrGeneric
	}
	return ErrAgain
}

// SysSetPriority adjusts the caller's scheduling priority. Zero and
// negative priorities are rejected: a zero priority would make the stride
// pass computation divide by zero.
func (k *Kernel) SysSetPriority(prio int64) int64 {
	k.trace(NumSetPriority, "sys_set_priority")
	_, t, ok := k.current()
	if !ok {
		return ErrGeneric
	}
	if prio < 1 {
		return ErrGeneric
	}

	t.Priority = int(prio)
	return prio
}

// SysGetTime stores the current wall-clock time through tv.
func (k *Kernel) SysGetTime(tv *TimeVal) int64 {
	k.trace(NumGetTime, "sys_get_time")
	if tv == nil {
		return ErrGeneric
	}

	us := timer.NowUS()
	tv.Sec = us / 1_000_000
	tv.USec = us % 1_000_000
	return 0
}

// SysTaskInfo stores the calling task's status, syscall histogram and
// elapsed running time through ti.
func (k *Kernel) SysTaskInfo(ti *TaskInfo) int64 {
	k.trace(NumTaskInfo, "sys_task_info")
	_, t, ok := k.current()
	if !ok || ti == nil {
		return ErrGeneric
	}

	ti.Status = t.Status
	ti.SyscallTimes = t.SyscallCounts
	ti.TimeMS = timer.NowMS() - t.StartMS
	return 0
}

// SysThreadCreate starts a new thread of the calling process running
// entry and returns its tid. The thread shares the process's address
// space, descriptor table and primitives, and starts at default priority.
func (k *Kernel) SysThreadCreate(entry func()) int64 {
	k.trace(NumThreadCreate, "sys_thread_create")
	p, _, ok := k.current()
	if !ok || entry == nil {
		return ErrGeneric
	}

	t := &sched.Task{PID: p.PID, Priority: sched.DefaultPriority}
	tid := p.AddThread(t)
	k.exec.Spawn(t, entry)
	return int64(tid)
}

// SysGetTID returns the calling thread's tid.
func (k *Kernel) SysGetTID() int64 {
	k.trace(NumGetTID, "sys_gettid")
	_, t, ok := k.current()
	if !ok {
		return ErrGeneric
	}
	return int64(t.TID)
}

// SysWaitTID reaps an exited sibling thread, returning its exit code and
// freeing the tid for reuse. Returns ErrGeneric for the caller's own tid
// or a dead slot, ErrAgain while the thread still runs. Never blocks.
func (k *Kernel) SysWaitTID(tid int) int64 {
	k.trace(NumWaitTID, "sys_waittid")
	p, t, ok := k.current()
	if !ok {
		return ErrGeneric
	}
	if tid == t.TID {
		return ErrGeneric
	}

	target, ok := p.Thread(tid)
	if !ok {
		return ErrGeneric
	}
	if target.Status != sched.StatusZombie {
		return ErrAgain
	}

	p.Threads[tid] = nil
	return int64(target.ExitCode)
}

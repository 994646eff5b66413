// Package proc implements the process-level records of the multitasking
// core: the process control block, the per-process handle and descriptor
// tables, and the pid-indexed process table.
//
// Process state is only ever mutated by the running task or by the exit
// hook, both of which execute under the single-core cooperative model, so
// no locking is required here.
package proc

import (
	"rvos/kernel/detect"
	"rvos/kernel/fs"
	"rvos/kernel/mm"
	"rvos/kernel/sched"
)

// Process is the process control block.
type Process struct {
	// PID identifies the process; valid while the process is registered
	// in the table.
	PID int

	// Parent is the pid of the owning parent, or zero for the initial
	// process. Resolved through the table; the parent may already be
	// gone.
	Parent int

	// Children holds the pids of exclusively-owned child processes.
	// Reaping removes a child from this list.
	Children []int

	// Threads maps TIDs to this process's tasks. Slots turn nil once a
	// thread is reaped; slot indexes are recycled for new threads.
	Threads []*sched.Task

	// Space is the opaque address-space handle, if the host attached
	// one.
	Space mm.AddressSpace

	// Files is the descriptor table; nil entries are closed descriptors.
	Files []fs.File

	// Mutexes, Semaphores and Condvars are the slot tables of the
	// process's live primitives.
	Mutexes    HandleTable
	Semaphores HandleTable
	Condvars   HandleTable

	// DeadlockDetect enables the Banker's algorithm safety check on this
	// process's blocking acquisitions. Off by default.
	DeadlockDetect bool

	// Resources is the detector's accounting block. Bookkeeping runs
	// unconditionally so the tables stay consistent across toggles of
	// DeadlockDetect.
	Resources detect.Tables

	// ExitCode is valid once Zombie is set.
	ExitCode int32

	// Zombie marks a dead process waiting to be reaped by its parent.
	Zombie bool

	nextResID int
}

// AllocResource returns a fresh resource id for the detector tables.
// Resource ids are shared between mutexes and semaphores and are never
// recycled, so two primitives can never alias a row of the accounting
// tables.
func (p *Process) AllocResource() int {
	id := p.nextResID
	p.nextResID++
	return id
}

// AddThread stores t in the lowest free thread slot and assigns its TID.
func (p *Process) AddThread(t *sched.Task) int {
	for tid, slot := range p.Threads {
		if slot == nil {
			p.Threads[tid] = t
			t.TID = tid
			return tid
		}
	}
	p.Threads = append(p.Threads, t)
	t.TID = len(p.Threads) - 1
	return t.TID
}

// Thread returns the task occupying slot tid.
func (p *Process) Thread(tid int) (*sched.Task, bool) {
	if tid < 0 || tid >= len(p.Threads) || p.Threads[tid] == nil {
		return nil, false
	}
	return p.Threads[tid], true
}

// MainThread returns the process's main thread (TID 0).
func (p *Process) MainThread() (*sched.Task, bool) {
	return p.Thread(0)
}

// AllocFD stores f in the lowest free descriptor slot and returns it.
func (p *Process) AllocFD(f fs.File) int {
	for fd, slot := range p.Files {
		if slot == nil {
			p.Files[fd] = f
			return fd
		}
	}
	p.Files = append(p.Files, f)
	return len(p.Files) - 1
}

// File returns the open file under fd.
func (p *Process) File(fd int) (fs.File, bool) {
	if fd < 0 || fd >= len(p.Files) || p.Files[fd] == nil {
		return nil, false
	}
	return p.Files[fd], true
}

// CloseFD frees descriptor fd and reports whether it was open.
func (p *Process) CloseFD(fd int) bool {
	if fd < 0 || fd >= len(p.Files) || p.Files[fd] == nil {
		return false
	}
	p.Files[fd] = nil
	return true
}

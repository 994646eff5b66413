package proc

import "rvos/kernel/sched"

// Table is the pid-indexed process registry. Pids start at 1 and are never
// recycled.
type Table struct {
	procs   map[int]*Process
	nextPID int

	// initPID is the pid of the first process ever created. Orphaned
	// children are reparented to it.
	initPID int
}

// NewTable returns an empty process table.
func NewTable() *Table {
	return &Table{procs: make(map[int]*Process), nextPID: 1}
}

// NewProcess allocates a pid, registers a fresh process and links it under
// parent. The new process starts with empty descriptor, slot and
// accounting tables of its own: table state is never shared with the
// parent. parent may be nil for the initial process.
func (tb *Table) NewProcess(parent *Process) *Process {
	p := &Process{PID: tb.nextPID}
	tb.nextPID++
	tb.procs[p.PID] = p

	if tb.initPID == 0 {
		tb.initPID = p.PID
	}
	if parent != nil {
		p.Parent = parent.PID
		parent.Children = append(parent.Children, p.PID)
	}

	return p
}

// Lookup resolves a pid. The second return value is false once the
// process has been torn down; callers holding a task's PID reference must
// handle that.
func (tb *Table) Lookup(pid int) (*Process, bool) {
	p, ok := tb.procs[pid]
	return p, ok
}

// InitProcess returns the reparenting target for orphans.
func (tb *Table) InitProcess() (*Process, bool) {
	return tb.Lookup(tb.initPID)
}

// Remove unregisters a reaped process.
func (tb *Table) Remove(pid int) {
	delete(tb.procs, pid)
}

// Len returns the number of registered processes.
func (tb *Table) Len() int {
	return len(tb.procs)
}

// ExitProcess turns p into a zombie: every live thread other than the
// exiting one is killed, descriptor and slot tables are dropped, and the
// surviving children are handed to the init process. The process record
// remains registered until the parent reaps it.
func (tb *Table) ExitProcess(e *sched.Executor, p *Process, exiting *sched.Task, code int32) {
	if p.Zombie {
		return
	}
	p.Zombie = true
	p.ExitCode = code

	for tid, t := range p.Threads {
		if t == nil || t == exiting {
			continue
		}
		if t.Status != sched.StatusZombie {
			e.Kill(t)
		}
		p.Threads[tid] = nil
	}

	p.Files = nil
	p.Mutexes = HandleTable{}
	p.Semaphores = HandleTable{}
	p.Condvars = HandleTable{}

	if init, ok := tb.InitProcess(); ok && init != p {
		for _, childPID := range p.Children {
			if child, live := tb.Lookup(childPID); live {
				child.Parent = init.PID
				init.Children = append(init.Children, childPID)
			}
		}
	}
	p.Children = nil
}

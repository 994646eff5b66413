// Package syscall binds the multitasking core to user programs. All kernel
// state hangs off one explicit Kernel object; there are no package-level
// mutable singletons. Syscalls are methods on Kernel and follow the numeric
// result convention: zero or positive values are success or handle ids,
// negative values are errors, and ErrDeadlock is the distinguished
// deadlock-refusal sentinel.
package syscall

import (
	"rvos/kernel"
	"rvos/kernel/fs"
	"rvos/kernel/ktrace"
	"rvos/kernel/proc"
	"rvos/kernel/sched"
)

const (
	// ErrGeneric is returned for invalid handles, arguments and paths.
	ErrGeneric int64 = -1

	// ErrAgain is returned by waitpid/waittid while the target is still
	// running.
	ErrAgain int64 = -2

	// ErrDeadlock is the reserved deadlock-refusal sentinel. A refused
	// acquisition never blocked; the caller may retry, reorder its
	// acquisitions or give up.
	ErrDeadlock int64 = -0xDEAD
)

// Syscall numbers index the per-task syscall histogram. They are internal
// to this kernel: the numeric user-space ABI encoding is outside the core.
const (
	NumOpen     = 0
	NumClose    = 1
	NumRead     = 2
	NumWrite    = 3
	NumFstat    = 4
	NumLinkAt   = 5
	NumUnlinkAt = 6

	NumMMap   = 10
	NumMUnmap = 11

	NumExit        = 20
	NumYield       = 21
	NumGetPID      = 22
	NumSpawn       = 23
	NumWaitPID     = 24
	NumSetPriority = 25
	NumGetTime     = 26
	NumTaskInfo    = 27
	NumSleep       = 28

	NumThreadCreate = 30
	NumGetTID       = 31
	NumWaitTID      = 32

	NumMutexCreate          = 40
	NumMutexLock            = 41
	NumMutexUnlock          = 42
	NumMutexDestroy         = 43
	NumSemaphoreCreate      = 44
	NumSemaphoreUp          = 45
	NumSemaphoreDown        = 46
	NumSemaphoreDestroy     = 47
	NumCondvarCreate        = 48
	NumCondvarSignal        = 49
	NumCondvarWait          = 50
	NumCondvarDestroy       = 51
	NumEnableDeadlockDetect = 52
)

// AppMain is the entry point of a registered user program.
type AppMain func(k *Kernel)

// ErrUnknownApp is returned by Boot when no program is registered under
// the requested name.
var ErrUnknownApp = &kernel.Error{Module: "syscall", Message: "unknown application name"}

// Kernel owns the executor, the process table, the timer queue behind the
// executor and the program registry. It is the single access point to all
// multitasking state.
type Kernel struct {
	exec  *sched.Executor
	procs *proc.Table
	apps  map[string]AppMain
	stdio []fs.File
}

// NewKernel assembles an empty kernel.
func NewKernel() *Kernel {
	k := &Kernel{
		exec:  sched.NewExecutor(),
		procs: proc.NewTable(),
		apps:  make(map[string]AppMain),
	}
	k.exec.OnTaskExit = k.onTaskExit
	return k
}

// Executor exposes the dispatcher, mainly so hosts can tune its idle wait.
func (k *Kernel) Executor() *sched.Executor {
	return k.exec
}

// RegisterApp adds a program to the loader registry. The registry is the
// hosted analog of resolving a program name to loadable image bytes.
func (k *Kernel) RegisterApp(name string, main AppMain) {
	k.apps[name] = main
}

// SetStdio fixes the three standard descriptors every new process starts
// with. Entries may be nil.
func (k *Kernel) SetStdio(stdin, stdout, stderr fs.File) {
	k.stdio = []fs.File{stdin, stdout, stderr}
}

// Boot creates the initial process from a registered program. Later
// processes descend from it via spawn.
func (k *Kernel) Boot(name string) (int, *kernel.Error) {
	main, ok := k.apps[name]
	if !ok {
		return 0, ErrUnknownApp
	}

	p := k.procs.NewProcess(nil)
	k.startMainThread(p, main)
	return p.PID, nil
}

// Run dispatches tasks until no process has runnable work left.
func (k *Kernel) Run() {
	k.exec.Run()
}

// startMainThread seeds a fresh process with its descriptor table and
// main thread (TID 0) and hands the thread to the scheduler.
func (k *Kernel) startMainThread(p *proc.Process, main AppMain) {
	if k.stdio != nil {
		p.Files = append([]fs.File(nil), k.stdio...)
	}

	t := &sched.Task{PID: p.PID, Priority: sched.DefaultPriority}
	p.AddThread(t)
	k.exec.Spawn(t, func() { main(k) })
}

// onTaskExit runs on every exiting task. A main thread takes its whole
// process down with it; other threads stay in their slot as zombies until
// a waittid reaps them.
func (k *Kernel) onTaskExit(t *sched.Task) {
	p, ok := k.procs.Lookup(t.PID)
	if !ok {
		return
	}
	if t.TID == 0 {
		k.procs.ExitProcess(k.exec, p, t, t.ExitCode)
	}
}

// current resolves the running task and its owning process. The process
// lookup can fail if the task outlived its process record.
func (k *Kernel) current() (*proc.Process, *sched.Task, bool) {
	t := k.exec.Current()
	if t == nil {
		return nil, nil, false
	}
	p, ok := k.procs.Lookup(t.PID)
	if !ok {
		return nil, t, false
	}
	return p, t, true
}

// trace records the syscall in the caller's histogram and emits a trace
// line in the kernel's pid/tid format.
func (k *Kernel) trace(num int, name string) {
	t := k.exec.Current()
	if t == nil {
		ktrace.Printf("kernel: %s", name)
		return
	}
	if num >= 0 && num < sched.MaxSyscallNum {
		t.SyscallCounts[num]++
	}
	ktrace.Printf("kernel: pid[%d] tid[%d] %s", t.PID, t.TID, name)
}

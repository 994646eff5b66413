// Package sched implements the kernel's thread-level task records, the
// stride scheduler that orders them, and the single-core cooperative
// executor that hands the CPU to one task at a time.
package sched

// MaxSyscallNum bounds the syscall numbers tracked by the per-task syscall
// histogram.
const MaxSyscallNum = 500

const (
	// BigStride is the stride numerator. Each time a task is scheduled
	// its stride grows by BigStride divided by its priority, so long-run
	// CPU shares converge to the priority ratio.
	BigStride uint64 = 0xFFFE

	// DefaultPriority is assigned to tasks that never called
	// set_priority.
	DefaultPriority = 16
)

// Status describes where a task is in its life cycle.
type Status uint8

const (
	// StatusReady marks a task waiting in the scheduler's ready queue.
	StatusReady Status = iota

	// StatusRunning marks the task currently holding the CPU.
	StatusRunning

	// StatusBlocked marks a task parked on a primitive or a timer.
	StatusBlocked

	// StatusZombie marks an exited task awaiting reaping.
	StatusZombie
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusRunning:
		return "Running"
	case StatusBlocked:
		return "Blocked"
	case StatusZombie:
		return "Zombie"
	}
	return "Unknown"
}

// Task is the thread-level unit of scheduling. The owning process is
// referenced only by PID; callers resolve it through the process table,
// which can fail if the process has been torn down.
//
// A task record is owned by exactly one of: the ready queue, a primitive's
// wait set, the executor's running slot, or its process's thread list
// awaiting reap.
type Task struct {
	// TID is the thread id, unique within the owning process.
	TID int

	// PID is the non-owning reference to the owning process.
	PID int

	// Status is guarded by the executor lock.
	Status Status

	// Priority must be >= 1; the set-priority boundary rejects zero.
	Priority int

	// Stride accumulates BigStride/Priority on every dispatch. Unsigned
	// wraparound is intended; ordering uses signed-difference compare.
	Stride uint64

	// SyscallCounts is the per-task histogram, indexed by syscall number.
	SyscallCounts [MaxSyscallNum]uint32

	// StartMS is the time the task was first made runnable.
	StartMS uint64

	// ExitCode is valid once Status is StatusZombie.
	ExitCode int32

	// seq provides the deterministic tie-break for equal strides.
	seq uint64

	// killed is set when the owning process is torn down; the task
	// unwinds at its next resumption instead of re-entering user code.
	killed bool

	// resume is the channel the executor uses to hand the CPU to the
	// task's goroutine.
	resume chan struct{}
}

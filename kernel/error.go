// Package kernel provides the error type shared by all kernel subsystems.
package kernel

// Error describes a kernel error. Kernel errors that carry no dynamic
// context should be defined as global variables that are pointers to the
// Error structure so they can be compared by identity at the syscall
// boundary.
type Error struct {
	// The module where the error occurred.
	Module string

	// The error message
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

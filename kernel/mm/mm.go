// Package mm defines the narrow contract the multitasking core consumes
// from the address-space collaborator. Virtual-memory layout policy and
// page-table internals stay on the host's side of this interface.
package mm

import "rvos/kernel"

const (
	// PageShift is the number of offset bits within a page.
	PageShift = 12

	// PageSize is the page size in bytes.
	PageSize = 1 << PageShift
)

// VirtAddr is a virtual address within a process address space.
type VirtAddr uintptr

// PageAligned returns true if the address sits on a page boundary.
func (v VirtAddr) PageAligned() bool {
	return v&(PageSize-1) == 0
}

// MapPerm describes the access permissions of a mapped area.
type MapPerm uint8

const (
	// PermRead marks a readable mapping.
	PermRead MapPerm = 1 << 1

	// PermWrite marks a writable mapping.
	PermWrite MapPerm = 1 << 2

	// PermExecute marks an executable mapping.
	PermExecute MapPerm = 1 << 3

	// PermUser makes a mapping accessible from user mode.
	PermUser MapPerm = 1 << 4
)

// AddressSpace is the page-table handle owned by each process. The core
// calls it to validate user pointers and to service mmap/munmap; it never
// inspects mappings beyond this contract.
type AddressSpace interface {
	// Translate resolves a user virtual address to a host address.
	// Returns an error for unmapped or invalid addresses.
	Translate(addr VirtAddr) (uintptr, *kernel.Error)

	// InsertFramedArea maps [start, end) with the supplied permissions,
	// allocating backing frames. Fails if any page in the range is
	// already mapped or no memory is available.
	InsertFramedArea(start, end VirtAddr, perm MapPerm) *kernel.Error

	// DeleteFramedArea unmaps [start, end). Fails if any page in the
	// range is not currently mapped.
	DeleteFramedArea(start, end VirtAddr) *kernel.Error
}

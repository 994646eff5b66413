// File and memory-mapping syscalls. The core moves descriptors and bytes;
// inode management and page-table internals stay behind the fs and mm
// collaborator contracts.

package syscall

import (
	"rvos/kernel/fs"
	"rvos/kernel/mm"
)

// SysOpen resolves path through the attached filesystem and returns a new
// descriptor for it.
func (k *Kernel) SysOpen(path string, flags fs.OpenFlags) int64 {
	k.trace(NumOpen, "sys_open")
	p, _, ok := k.current()
	if !ok {
		return ErrGeneric
	}

	file, ok := fs.Open(path, flags)
	if !ok {
		return ErrGeneric
	}
	return int64(p.AllocFD(file))
}

// SysClose releases descriptor fd.
func (k *Kernel) SysClose(fd int) int64 {
	k.trace(NumClose, "sys_close")
	p, _, ok := k.current()
	if !ok {
		return ErrGeneric
	}
	if !p.CloseFD(fd) {
		return ErrGeneric
	}
	return 0
}

// SysRead fills buf from descriptor fd and returns the number of bytes
// read.
func (k *Kernel) SysRead(fd int, buf []byte) int64 {
	k.trace(NumRead, "sys_read")
	p, _, ok := k.current()
	if !ok {
		return ErrGeneric
	}

	file, ok := p.File(fd)
	if !ok || !file.Readable() {
		return ErrGeneric
	}
	return int64(file.Read(buf))
}

// SysWrite copies buf to descriptor fd and returns the number of bytes
// written.
func (k *Kernel) SysWrite(fd int, buf []byte) int64 {
	k.trace(NumWrite, "sys_write")
	p, _, ok := k.current()
	if !ok {
		return ErrGeneric
	}

	file, ok := p.File(fd)
	if !ok || !file.Writable() {
		return ErrGeneric
	}
	return int64(file.Write(buf))
}

// SysFstat stores the stat of descriptor fd through st. Objects without
// an inode report inode zero and a single link.
func (k *Kernel) SysFstat(fd int, st *fs.Stat) int64 {
	k.trace(NumFstat, "sys_fstat")
	p, _, ok := k.current()
	if !ok || st == nil {
		return ErrGeneric
	}

	file, ok := p.File(fd)
	if !ok {
		return ErrGeneric
	}

	ino, _ := file.InodeID()
	nlink, hasLinks := file.LinkCount()
	if !hasLinks {
		nlink = 1
	}

	*st = fs.Stat{Ino: uint64(ino), Mode: fs.ModeFile, Nlink: nlink}
	return 0
}

// SysLinkAt creates hard link newPath to oldPath.
func (k *Kernel) SysLinkAt(oldPath, newPath string) int64 {
	k.trace(NumLinkAt, "sys_linkat")
	if _, _, ok := k.current(); !ok {
		return ErrGeneric
	}

	if _, ok := fs.Link(oldPath, newPath); !ok {
		return ErrGeneric
	}
	return 0
}

// SysUnlinkAt removes the link named path. Descriptors of the caller that
// now refer to a fully unlinked inode are closed.
func (k *Kernel) SysUnlinkAt(path string) int64 {
	k.trace(NumUnlinkAt, "sys_unlinkat")
	p, _, ok := k.current()
	if !ok {
		return ErrGeneric
	}

	if !fs.Unlink(path) {
		return ErrGeneric
	}

	for fd, file := range p.Files {
		if file == nil {
			continue
		}
		if nlink, ok := file.LinkCount(); ok && nlink == 0 {
			p.Files[fd] = nil
		}
	}
	return 0
}

// portBits are the user-supplied mmap permission bits: read, write,
// execute.
const portBits = 0x7

// SysMMap maps [start, start+length) with the permissions encoded in
// port. The start address must be page-aligned, port must use only the
// three permission bits and must not be empty; the address-space
// collaborator rejects overlaps with existing mappings.
func (k *Kernel) SysMMap(start, length uintptr, port uint64) int64 {
	k.trace(NumMMap, "sys_mmap")
	p, _, ok := k.current()
	if !ok || p.Space == nil {
		return ErrGeneric
	}

	if !mm.VirtAddr(start).PageAligned() {
		return ErrGeneric
	}
	if port&^uint64(portBits) != 0 || port&portBits == 0 {
		return ErrGeneric
	}

	perm := mm.MapPerm(port<<1) | mm.PermUser
	end := pageCeil(start + length)
	if err := p.Space.InsertFramedArea(mm.VirtAddr(start), end, perm); err != nil {
		return ErrGeneric
	}
	return 0
}

// SysMUnmap unmaps [start, start+length). The range must be fully mapped
// and start must be page-aligned.
func (k *Kernel) SysMUnmap(start, length uintptr) int64 {
	k.trace(NumMUnmap, "sys_munmap")
	p, _, ok := k.current()
	if !ok || p.Space == nil {
		return ErrGeneric
	}

	if !mm.VirtAddr(start).PageAligned() {
		return ErrGeneric
	}

	end := pageCeil(start + length)
	if err := p.Space.DeleteFramedArea(mm.VirtAddr(start), end); err != nil {
		return ErrGeneric
	}
	return 0
}

// pageCeil rounds addr up to the next page boundary.
func pageCeil(addr uintptr) mm.VirtAddr {
	return mm.VirtAddr((addr + mm.PageSize - 1) &^ uintptr(mm.PageSize-1))
}

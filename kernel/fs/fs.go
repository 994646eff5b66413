// Package fs defines the file-object contract the multitasking core
// consumes from the filesystem collaborator. The core stores File handles
// in per-process descriptor tables and moves bytes through them; the
// on-disk format and inode management stay on the host's side.
//
// The host filesystem registers its entry points through SetFilesystem,
// following the driver-registration pattern of the rest of the kernel.
package fs

// File is implemented by every object a file descriptor can refer to:
// regular files, directories, pipes and the standard streams.
type File interface {
	// Readable reports whether the file was opened for reading.
	Readable() bool

	// Writable reports whether the file was opened for writing.
	Writable() bool

	// Read fills buf from the file and returns the number of bytes read.
	Read(buf []byte) int

	// Write copies buf to the file and returns the number of bytes
	// written.
	Write(buf []byte) int

	// InodeID returns the file's inode number. The second return value
	// is false for objects without one (pipes, standard streams).
	InodeID() (uint32, bool)

	// LinkCount returns the number of hard links to the file's inode,
	// if it has one.
	LinkCount() (uint32, bool)
}

// OpenFlags control how Open resolves and prepares a file.
type OpenFlags uint32

const (
	// OpenRDONLY opens a file read-only.
	OpenRDONLY OpenFlags = 0

	// OpenWRONLY opens a file write-only.
	OpenWRONLY OpenFlags = 1 << 0

	// OpenRDWR opens a file for both reading and writing.
	OpenRDWR OpenFlags = 1 << 1

	// OpenCreate creates the file if it does not exist.
	OpenCreate OpenFlags = 1 << 9

	// OpenTrunc truncates the file to zero length.
	OpenTrunc OpenFlags = 1 << 10
)

// StatMode encodes the type of an inode.
type StatMode uint32

const (
	// ModeNull marks an invalid stat result.
	ModeNull StatMode = 0

	// ModeDir marks a directory.
	ModeDir StatMode = 0o040000

	// ModeFile marks an ordinary regular file.
	ModeFile StatMode = 0o100000
)

// Stat describes an inode.
type Stat struct {
	// Dev is the id of the device containing the file.
	Dev uint64

	// Ino is the inode number.
	Ino uint64

	// Mode is the file type.
	Mode StatMode

	// Nlink is the number of hard links.
	Nlink uint32
}

// Filesystem collects the host filesystem entry points consumed by the
// syscall layer.
type Filesystem struct {
	// Open resolves path to a File honoring flags, or returns false.
	Open func(path string, flags OpenFlags) (File, bool)

	// Link creates hard link newPath to oldPath and returns an open File
	// for it, or returns false.
	Link func(oldPath, newPath string) (File, bool)

	// Unlink removes the link named path and reports success.
	Unlink func(path string) bool
}

var active Filesystem

// SetFilesystem installs the host filesystem entry points. Passing the
// zero value detaches the filesystem; all operations then fail.
func SetFilesystem(f Filesystem) {
	active = f
}

// Open resolves path through the attached filesystem.
func Open(path string, flags OpenFlags) (File, bool) {
	if active.Open == nil {
		return nil, false
	}
	return active.Open(path, flags)
}

// Link creates a hard link through the attached filesystem.
func Link(oldPath, newPath string) (File, bool) {
	if active.Link == nil {
		return nil, false
	}
	return active.Link(oldPath, newPath)
}

// Unlink removes a link through the attached filesystem.
func Unlink(path string) bool {
	if active.Unlink == nil {
		return false
	}
	return active.Unlink(path)
}

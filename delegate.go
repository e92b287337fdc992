package embedfs

import "golang.org/x/sys/unix"

// Delegate is the real operating system behind the router. Every call that
// is not governed by the embedded tree is forwarded to it unchanged, and its
// errors are returned to the caller as is.
type Delegate interface {
	Open(path string, flags int, mode uint32) (int, error)
	Openat(dirfd int, path string, flags int, mode uint32) (int, error)
	Mmap(fd int, offset int64, length int, prot int, flags int) ([]byte, error)
	Munmap(b []byte) error
	Read(fd int, p []byte) (int, error)
	Close(fd int) error
	Stat(path string, st *unix.Stat_t) error
	Lstat(path string, st *unix.Stat_t) error
	Fstat(fd int, st *unix.Stat_t) error
	Fstatat(dirfd int, path string, st *unix.Stat_t, flags int) error
	Getcwd() (string, error)
	Chdir(path string) error
	Mkdir(path string, mode uint32) error
	Realpath(path string) (string, error)
	Opendir(path string) (DirStream, error)
	Fdopendir(fd int) (DirStream, error)
}

// DirStream is an open directory on the real OS.
// Next returns nil, nil once the listing is exhausted.
type DirStream interface {
	Fd() int
	Next() (*Dirent, error)
	Rewind() error
	Close() error
}

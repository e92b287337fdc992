// Package realos binds the router's pass-through calls to the real operating
// system.
package realos

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/brettbedarf/embedfs"
	"github.com/brettbedarf/embedfs/internal/util"
	"golang.org/x/sys/unix"
)

// OS implements embedfs.Delegate with the entry points it was bound to.
type OS struct {
	open    func(path string, flags int, mode uint32) (int, error)
	openat  func(dirfd int, path string, flags int, mode uint32) (int, error)
	mmap    func(fd int, offset int64, length int, prot int, flags int) ([]byte, error)
	munmap  func(b []byte) error
	read    func(fd int, p []byte) (int, error)
	close   func(fd int) error
	stat    func(path string, st *unix.Stat_t) error
	lstat   func(path string, st *unix.Stat_t) error
	fstat   func(fd int, st *unix.Stat_t) error
	fstatat func(dirfd int, path string, st *unix.Stat_t, flags int) error
	getwd   func() (string, error)
	chdir   func(path string) error
	mkdir   func(path string, mode uint32) error
}

var _ embedfs.Delegate = (*OS)(nil)

var bind = sync.OnceValue(func() *OS {
	logger := util.GetLogger("RealOS")
	logger.Debug().Msg("Binding real OS entry points")
	return &OS{
		open:    unix.Open,
		openat:  unix.Openat,
		mmap:    unix.Mmap,
		munmap:  unix.Munmap,
		read:    unix.Read,
		close:   unix.Close,
		stat:    unix.Stat,
		lstat:   unix.Lstat,
		fstat:   unix.Fstat,
		fstatat: unix.Fstatat,
		getwd:   unix.Getwd,
		chdir:   unix.Chdir,
		mkdir:   unix.Mkdir,
	}
})

// Default returns the process wide delegate. Entry points are bound on the
// first call and shared afterwards.
func Default() *OS {
	return bind()
}

func (o *OS) Open(path string, flags int, mode uint32) (int, error) {
	return o.open(path, flags, mode)
}

func (o *OS) Openat(dirfd int, path string, flags int, mode uint32) (int, error) {
	return o.openat(dirfd, path, flags, mode)
}

func (o *OS) Mmap(fd int, offset int64, length int, prot int, flags int) ([]byte, error) {
	return o.mmap(fd, offset, length, prot, flags)
}

func (o *OS) Munmap(b []byte) error {
	return o.munmap(b)
}

func (o *OS) Read(fd int, p []byte) (int, error) {
	return o.read(fd, p)
}

func (o *OS) Close(fd int) error {
	return o.close(fd)
}

func (o *OS) Stat(path string, st *unix.Stat_t) error {
	return o.stat(path, st)
}

func (o *OS) Lstat(path string, st *unix.Stat_t) error {
	return o.lstat(path, st)
}

func (o *OS) Fstat(fd int, st *unix.Stat_t) error {
	return o.fstat(fd, st)
}

func (o *OS) Fstatat(dirfd int, path string, st *unix.Stat_t, flags int) error {
	return o.fstatat(dirfd, path, st, flags)
}

func (o *OS) Getcwd() (string, error) {
	return o.getwd()
}

func (o *OS) Chdir(path string) error {
	return o.chdir(path)
}

func (o *OS) Mkdir(path string, mode uint32) error {
	return o.mkdir(path, mode)
}

// Realpath resolves symbolic links and relative components. Failures are
// reported as the bare errno of the failing lookup.
func (o *OS) Realpath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", bareErrno(err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", bareErrno(err)
	}
	return resolved, nil
}

func (o *OS) Opendir(path string) (embedfs.DirStream, error) {
	fd, err := o.open(path, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	return newDirStream(fd, path), nil
}

func (o *OS) Fdopendir(fd int) (embedfs.DirStream, error) {
	var st unix.Stat_t
	if err := o.fstat(fd, &st); err != nil {
		return nil, err
	}
	if st.Mode&unix.S_IFMT != unix.S_IFDIR {
		return nil, unix.ENOTDIR
	}
	return newDirStream(fd, ""), nil
}

func bareErrno(err error) error {
	var errno unix.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return err
}

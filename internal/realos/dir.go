package realos

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/brettbedarf/embedfs"
	"golang.org/x/sys/unix"
)

// dirStream lists a real directory. "." and ".." come first, as they do from
// readdir(3).
type dirStream struct {
	f   *os.File
	fd  int
	pos int
}

func newDirStream(fd int, name string) *dirStream {
	return &dirStream{f: os.NewFile(uintptr(fd), name), fd: fd}
}

func (d *dirStream) Fd() int {
	return d.fd
}

func (d *dirStream) Next() (*embedfs.Dirent, error) {
	switch d.pos {
	case 0, 1:
		name := "."
		if d.pos == 1 {
			name = ".."
		}
		d.pos++
		ino, err := d.inode(name)
		if err != nil {
			return nil, err
		}
		return &embedfs.Dirent{Ino: ino, Type: unix.DT_DIR, Name: name}, nil
	}

	entries, err := d.f.ReadDir(1)
	if errors.Is(err, io.EOF) || (err == nil && len(entries) == 0) {
		return nil, nil
	}
	if err != nil {
		return nil, bareErrno(err)
	}
	d.pos++
	e := entries[0]
	ino, err := d.inode(e.Name())
	if err != nil {
		// the entry vanished between listing and stat
		ino = 0
	}
	return &embedfs.Dirent{Ino: ino, Type: direntType(e.Type()), Name: e.Name()}, nil
}

func (d *dirStream) inode(name string) (uint64, error) {
	var st unix.Stat_t
	if err := unix.Fstatat(d.fd, name, &st, unix.AT_SYMLINK_NOFOLLOW); err != nil {
		return 0, err
	}
	return uint64(st.Ino), nil
}

func (d *dirStream) Rewind() error {
	if _, err := d.f.Seek(0, io.SeekStart); err != nil {
		return bareErrno(err)
	}
	d.pos = 0
	return nil
}

func (d *dirStream) Close() error {
	return bareErrno(d.f.Close())
}

func direntType(mode fs.FileMode) uint8 {
	switch {
	case mode.IsRegular():
		return unix.DT_REG
	case mode.IsDir():
		return unix.DT_DIR
	case mode&fs.ModeSymlink != 0:
		return unix.DT_LNK
	case mode&fs.ModeNamedPipe != 0:
		return unix.DT_FIFO
	case mode&fs.ModeSocket != 0:
		return unix.DT_SOCK
	case mode&fs.ModeCharDevice != 0:
		return unix.DT_CHR
	case mode&fs.ModeDevice != 0:
		return unix.DT_BLK
	default:
		return unix.DT_UNKNOWN
	}
}

package embedfs

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

var (
	// ErrNotFound indicates a path that does not resolve in the Asset Store
	ErrNotFound = errors.New("no such file or directory")

	// ErrBadDescriptor indicates a descriptor absent from the descriptor table
	ErrBadDescriptor = errors.New("bad file descriptor")

	ErrIsDir    = errors.New("is a directory")
	ErrNotDir   = errors.New("not a directory")
	ErrReadOnly = errors.New("read-only file system")

	// ErrNameTooLong indicates a caller supplied buffer too small for a path
	ErrNameTooLong = errors.New("file name too long")

	// ErrPoisoned indicates the store lock was abandoned by a panicking operation
	ErrPoisoned = errors.New("asset store state is poisoned")

	// ErrCorruptImage indicates an embedded image whose sections do not agree
	ErrCorruptImage = errors.New("corrupt embedded image")
)

// Error wraps an error with the operation and path it occurred on.
type Error struct {
	Op   string
	Path string
	Err  error
}

func NewError(op, path string, err error) *Error {
	return &Error{Op: op, Path: path, Err: err}
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ToErrno maps err onto the errno a POSIX caller expects. Errors that already
// carry a unix.Errno, such as those returned by the real OS, keep it.
func ToErrno(err error) unix.Errno {
	if err == nil {
		return 0
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		return errno
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return unix.ENOENT
	case errors.Is(err, ErrBadDescriptor):
		return unix.EBADF
	case errors.Is(err, ErrIsDir):
		return unix.EISDIR
	case errors.Is(err, ErrNotDir):
		return unix.ENOTDIR
	case errors.Is(err, ErrReadOnly):
		return unix.EROFS
	case errors.Is(err, ErrNameTooLong):
		return unix.ENAMETOOLONG
	default:
		return unix.EIO
	}
}

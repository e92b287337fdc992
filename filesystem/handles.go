package filesystem

import (
	"fmt"

	"github.com/brettbedarf/embedfs"
	"golang.org/x/sys/unix"
)

// FDAllocator hands out real, otherwise unused kernel descriptors to number
// virtual handles.
type FDAllocator interface {
	Alloc() (int, error)
	Release(fd int) error
	Close() error
}

// dupAllocator duplicates a sentinel descriptor. The kernel then treats every
// virtual descriptor as live and never reuses its number while it is open.
type dupAllocator struct {
	sentinel int
	owned    bool
}

// NewDupAllocator duplicates sentinel for every allocation. A negative
// sentinel opens a private /dev/null descriptor that Close releases.
func NewDupAllocator(sentinel int) (FDAllocator, error) {
	if sentinel >= 0 {
		if _, err := unix.FcntlInt(uintptr(sentinel), unix.F_GETFD, 0); err != nil {
			return nil, fmt.Errorf("sentinel descriptor %d: %w", sentinel, err)
		}
		return &dupAllocator{sentinel: sentinel}, nil
	}
	fd, err := unix.Open("/dev/null", unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open sentinel: %w", err)
	}
	return &dupAllocator{sentinel: fd, owned: true}, nil
}

func (a *dupAllocator) Alloc() (int, error) {
	return unix.FcntlInt(uintptr(a.sentinel), unix.F_DUPFD_CLOEXEC, 0)
}

func (a *dupAllocator) Release(fd int) error {
	return unix.Close(fd)
}

func (a *dupAllocator) Close() error {
	if !a.owned {
		return nil
	}
	a.owned = false
	return unix.Close(a.sentinel)
}

// OpenHandle is the state behind a virtual descriptor. The cursor is a byte
// offset for files and an index into the children snapshot for directories.
type OpenHandle struct {
	FD     int
	Entry  *embedfs.Entry
	cursor int
}

// handleTable maps virtual descriptors to their handles. Callers hold the
// store lock.
type handleTable struct {
	handles map[int]*OpenHandle
}

func newHandleTable() *handleTable {
	return &handleTable{handles: make(map[int]*OpenHandle)}
}

func (t *handleTable) insert(h *OpenHandle) {
	t.handles[h.FD] = h
}

func (t *handleTable) get(fd int) (*OpenHandle, bool) {
	h, ok := t.handles[fd]
	return h, ok
}

func (t *handleTable) remove(fd int) bool {
	if _, ok := t.handles[fd]; !ok {
		return false
	}
	delete(t.handles, fd)
	return true
}

// drain empties the table and returns the descriptors it held.
func (t *handleTable) drain() []int {
	fds := make([]int, 0, len(t.handles))
	for fd := range t.handles {
		fds = append(fds, fd)
	}
	clear(t.handles)
	return fds
}

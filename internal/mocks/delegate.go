package mocks

import (
	"github.com/brettbedarf/embedfs"
	"github.com/stretchr/testify/mock"
	"golang.org/x/sys/unix"
)

// MockDelegate implements embedfs.Delegate for testing across packages.
// Stat style methods accept a func(*unix.Stat_t) as their first return value
// to fill the caller's struct.
type MockDelegate struct {
	mock.Mock
}

func (m *MockDelegate) Open(path string, flags int, mode uint32) (int, error) {
	args := m.Called(path, flags, mode)
	return args.Int(0), args.Error(1)
}

func (m *MockDelegate) Openat(dirfd int, path string, flags int, mode uint32) (int, error) {
	args := m.Called(dirfd, path, flags, mode)
	return args.Int(0), args.Error(1)
}

func (m *MockDelegate) Mmap(fd int, offset int64, length int, prot int, flags int) ([]byte, error) {
	args := m.Called(fd, offset, length, prot, flags)

	// Handle function return types so tests can size the mapping
	if fn, ok := args.Get(0).(func(int) []byte); ok {
		return fn(length), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockDelegate) Munmap(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockDelegate) Read(fd int, p []byte) (int, error) {
	args := m.Called(fd, p)
	return args.Int(0), args.Error(1)
}

func (m *MockDelegate) Close(fd int) error {
	args := m.Called(fd)
	return args.Error(0)
}

func fillStat(args mock.Arguments, st *unix.Stat_t) error {
	if fn, ok := args.Get(0).(func(*unix.Stat_t)); ok {
		fn(st)
	}
	return args.Error(1)
}

func (m *MockDelegate) Stat(path string, st *unix.Stat_t) error {
	return fillStat(m.Called(path, st), st)
}

func (m *MockDelegate) Lstat(path string, st *unix.Stat_t) error {
	return fillStat(m.Called(path, st), st)
}

func (m *MockDelegate) Fstat(fd int, st *unix.Stat_t) error {
	return fillStat(m.Called(fd, st), st)
}

func (m *MockDelegate) Fstatat(dirfd int, path string, st *unix.Stat_t, flags int) error {
	return fillStat(m.Called(dirfd, path, st, flags), st)
}

func (m *MockDelegate) Getcwd() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockDelegate) Chdir(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockDelegate) Mkdir(path string, mode uint32) error {
	args := m.Called(path, mode)
	return args.Error(0)
}

func (m *MockDelegate) Realpath(path string) (string, error) {
	args := m.Called(path)
	return args.String(0), args.Error(1)
}

func (m *MockDelegate) Opendir(path string) (embedfs.DirStream, error) {
	args := m.Called(path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(embedfs.DirStream), args.Error(1)
}

func (m *MockDelegate) Fdopendir(fd int) (embedfs.DirStream, error) {
	args := m.Called(fd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(embedfs.DirStream), args.Error(1)
}

var _ embedfs.Delegate = (*MockDelegate)(nil)

// MockDirStream implements embedfs.DirStream for testing across packages
type MockDirStream struct {
	mock.Mock
}

func (m *MockDirStream) Fd() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockDirStream) Next() (*embedfs.Dirent, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*embedfs.Dirent), args.Error(1)
}

func (m *MockDirStream) Rewind() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDirStream) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ embedfs.DirStream = (*MockDirStream)(nil)

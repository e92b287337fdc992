package router

import (
	"github.com/brettbedarf/embedfs"
	"github.com/brettbedarf/embedfs/filesystem"
	"github.com/brettbedarf/embedfs/internal/util"
	"golang.org/x/sys/unix"
)

// target is where a path-taking call ends up. Governed targets carry a store
// key, others the dirfd and path to forward.
type target struct {
	key      embedfs.PathKey
	governed bool
	dirfd    int
	path     string
}

// resolveAt routes a (dirfd, path) pair. A virtual directory descriptor
// resolves relative paths against its own key; paths that escape the tree
// from there are forwarded in absolute form.
func (r *Router) resolveAt(st *state, dirfd int, path string) (target, error) {
	if filesystem.IsAbs(path) || dirfd == unix.AT_FDCWD {
		key, osPath, governed := st.resolver.Route(path)
		if governed {
			return target{key: key, governed: true, dirfd: unix.AT_FDCWD, path: osPath}, nil
		}
		if osPath != path {
			return target{dirfd: unix.AT_FDCWD, path: osPath}, nil
		}
		return target{dirfd: dirfd, path: path}, nil
	}

	e, ok := st.store.Handle(dirfd)
	if !ok {
		return target{dirfd: dirfd, path: path}, nil
	}
	if !e.IsDir() {
		return target{}, unix.ENOTDIR
	}
	key, osPath, governed := st.resolver.RouteAt(e.Key, path)
	return target{key: key, governed: governed, dirfd: unix.AT_FDCWD, path: osPath}, nil
}

// openVirtual serves an open of a governed path. Any write access is refused
// since the tree is read-only.
func (r *Router) openVirtual(st *state, key embedfs.PathKey, flags int) (int, error) {
	logger := util.GetLogger("Router.Open")

	if flags&(unix.O_WRONLY|unix.O_RDWR|unix.O_TRUNC) != 0 {
		return -1, unix.EROFS
	}
	if flags&unix.O_DIRECTORY != 0 {
		e, err := st.store.Lookup(key)
		if err != nil {
			return -1, errno(err)
		}
		if !e.IsDir() {
			return -1, unix.ENOTDIR
		}
	}
	fd, err := st.store.Open(key)
	if err != nil {
		logger.Trace().Err(err).Str("path", key.String()).Msg("Embedded open failed")
		return -1, errno(err)
	}
	logger.Trace().Int("fd", fd).Str("path", key.String()).Msg("Opened embedded entry")
	return fd, nil
}

// Open opens path. Requests that may create a file are always forwarded.
func (r *Router) Open(path string, flags int, mode uint32) (int, error) {
	st, err := r.state()
	if err != nil {
		return -1, err
	}
	key, osPath, governed := st.resolver.Route(path)
	if governed && !creates(flags) {
		return r.openVirtual(st, key, flags)
	}
	return r.delegate.Open(osPath, flags, mode)
}

// Openat opens path relative to dirfd, which may be AT_FDCWD, a real
// descriptor or a virtual directory descriptor.
func (r *Router) Openat(dirfd int, path string, flags int, mode uint32) (int, error) {
	st, err := r.state()
	if err != nil {
		return -1, err
	}
	t, err := r.resolveAt(st, dirfd, path)
	if err != nil {
		return -1, err
	}
	if t.governed && !creates(flags) {
		return r.openVirtual(st, t.key, flags)
	}
	return r.delegate.Openat(t.dirfd, t.path, flags, mode)
}

// Read reads from the cursor of a virtual file or from a real descriptor.
func (r *Router) Read(fd int, p []byte) (int, error) {
	st, err := r.state()
	if err != nil {
		return -1, err
	}
	if !st.store.IsVirtual(fd) {
		return r.delegate.Read(fd, p)
	}
	n, err := st.store.Read(fd, p)
	if err != nil {
		return -1, errno(err)
	}
	return n, nil
}

// Close drops the descriptor table entry of a virtual descriptor, then
// closes the kernel descriptor in every case.
func (r *Router) Close(fd int) error {
	logger := util.GetLogger("Router.Close")

	st, err := r.state()
	if err != nil {
		return err
	}
	if st.store.IsVirtual(fd) {
		if err := st.store.Close(fd); err != nil {
			logger.Debug().Err(err).Int("fd", fd).Msg("Descriptor vanished before close")
		}
	}
	return r.delegate.Close(fd)
}

// Mmap maps a descriptor. Virtual files get a private anonymous mapping
// filled from offset; the requested protection is not applied and pages
// past the end of the content stay zero.
func (r *Router) Mmap(fd int, offset int64, length int, prot int, flags int) ([]byte, error) {
	logger := util.GetLogger("Router.Mmap")

	st, err := r.state()
	if err != nil {
		return nil, err
	}
	if fd < 0 || !st.store.IsVirtual(fd) {
		return r.delegate.Mmap(fd, offset, length, prot, flags)
	}

	mem, err := r.delegate.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}
	if _, err := st.store.ReadAt(fd, mem, offset); err != nil {
		logger.Debug().Err(err).Int("fd", fd).Int64("offset", offset).Msg("Failed to fill mapping")
		if uerr := r.delegate.Munmap(mem); uerr != nil {
			logger.Warn().Err(uerr).Msg("Failed to release mapping")
		}
		return nil, unix.EBADF
	}
	return mem, nil
}

// Munmap releases any mapping returned by Mmap.
func (r *Router) Munmap(b []byte) error {
	return r.delegate.Munmap(b)
}

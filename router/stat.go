package router

import (
	"github.com/brettbedarf/embedfs"
	"golang.org/x/sys/unix"
)

func (r *Router) statKey(st *state, key embedfs.PathKey, stat *unix.Stat_t) error {
	md, err := st.cache.GetOrCompute(key.String(), func() (embedfs.Metadata, error) {
		return st.store.Metadata(key)
	})
	if err != nil {
		return errno(err)
	}
	fillStat(stat, &md)
	return nil
}

// Stat fills stat for path. Embedded entries never have symlinks so Lstat
// behaves the same for them.
func (r *Router) Stat(path string, stat *unix.Stat_t) error {
	st, err := r.state()
	if err != nil {
		return err
	}
	key, osPath, governed := st.resolver.Route(path)
	if !governed {
		return r.delegate.Stat(osPath, stat)
	}
	return r.statKey(st, key, stat)
}

func (r *Router) Lstat(path string, stat *unix.Stat_t) error {
	st, err := r.state()
	if err != nil {
		return err
	}
	key, osPath, governed := st.resolver.Route(path)
	if !governed {
		return r.delegate.Lstat(osPath, stat)
	}
	return r.statKey(st, key, stat)
}

func (r *Router) Fstat(fd int, stat *unix.Stat_t) error {
	st, err := r.state()
	if err != nil {
		return err
	}
	if !st.store.IsVirtual(fd) {
		return r.delegate.Fstat(fd, stat)
	}
	md, err := st.store.MetadataOf(fd)
	if err != nil {
		return errno(err)
	}
	fillStat(stat, &md)
	return nil
}

// Fstatat stats path relative to dirfd. An empty path with AT_EMPTY_PATH on
// a virtual descriptor describes the descriptor itself.
func (r *Router) Fstatat(dirfd int, path string, stat *unix.Stat_t, flags int) error {
	st, err := r.state()
	if err != nil {
		return err
	}
	if path == "" {
		if emptyPathFlag == 0 || flags&emptyPathFlag == 0 {
			return unix.ENOENT
		}
		if st.store.IsVirtual(dirfd) {
			return r.Fstat(dirfd, stat)
		}
	}
	t, err := r.resolveAt(st, dirfd, path)
	if err != nil {
		return err
	}
	if !t.governed {
		return r.delegate.Fstatat(t.dirfd, t.path, stat, flags)
	}
	return r.statKey(st, t.key, stat)
}

// Mkdir under the mount root succeeds only when the directory already
// exists, so recursive creation of existing trees works. Anything else there
// is EROFS.
func (r *Router) Mkdir(path string, mode uint32) error {
	st, err := r.state()
	if err != nil {
		return err
	}
	key, osPath, governed := st.resolver.Route(path)
	if !governed {
		return r.delegate.Mkdir(osPath, mode)
	}
	var stat unix.Stat_t
	if r.statKey(st, key, &stat) == nil {
		return nil
	}
	return unix.EROFS
}

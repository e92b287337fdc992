package router

import (
	"github.com/brettbedarf/embedfs"
	"github.com/brettbedarf/embedfs/internal/util"
)

// Dir is an open directory stream, either a virtual directory handle or a
// stream over a real directory.
type Dir struct {
	fd      int
	virtual bool
	stream  embedfs.DirStream
}

// Fd returns the descriptor backing the stream.
func (d *Dir) Fd() int {
	return d.fd
}

// Virtual reports whether the stream lists an embedded directory.
func (d *Dir) Virtual() bool {
	return d.virtual
}

func (r *Router) Opendir(path string) (*Dir, error) {
	st, err := r.state()
	if err != nil {
		return nil, err
	}
	key, osPath, governed := st.resolver.Route(path)
	if governed {
		fd, err := st.store.Opendir(key)
		if err != nil {
			return nil, errno(err)
		}
		return &Dir{fd: fd, virtual: true}, nil
	}
	ds, err := r.delegate.Opendir(osPath)
	if err != nil {
		return nil, err
	}
	return &Dir{fd: ds.Fd(), stream: ds}, nil
}

// Fdopendir wraps an open descriptor. A virtual descriptor must refer to a
// directory and keeps its listing position.
func (r *Router) Fdopendir(fd int) (*Dir, error) {
	st, err := r.state()
	if err != nil {
		return nil, err
	}
	if st.store.IsVirtual(fd) {
		if err := st.store.Fdopendir(fd); err != nil {
			return nil, errno(err)
		}
		return &Dir{fd: fd, virtual: true}, nil
	}
	ds, err := r.delegate.Fdopendir(fd)
	if err != nil {
		return nil, err
	}
	return &Dir{fd: fd, stream: ds}, nil
}

// Readdir returns the next entry, or nil once the listing is exhausted.
// Embedded listings contain no "." or ".." entries.
func (r *Router) Readdir(d *Dir) (*embedfs.Dirent, error) {
	if !d.virtual {
		return d.stream.Next()
	}
	st, err := r.state()
	if err != nil {
		return nil, err
	}
	de, err := st.store.Readdir(d.fd)
	if err != nil {
		return nil, errno(err)
	}
	return de, nil
}

// Rewinddir restarts the listing. Like its libc namesake it reports nothing.
func (r *Router) Rewinddir(d *Dir) {
	logger := util.GetLogger("Router.Rewinddir")

	if !d.virtual {
		if err := d.stream.Rewind(); err != nil {
			logger.Debug().Err(err).Int("fd", d.fd).Msg("Rewind failed")
		}
		return
	}
	st, err := r.state()
	if err != nil {
		return
	}
	if err := st.store.Rewinddir(d.fd); err != nil {
		logger.Debug().Err(err).Int("fd", d.fd).Msg("Rewind failed")
	}
}

// Closedir releases the stream and its descriptor.
func (r *Router) Closedir(d *Dir) error {
	if !d.virtual {
		return d.stream.Close()
	}
	st, err := r.state()
	if err != nil {
		return err
	}
	if err := st.store.Closedir(d.fd); err != nil {
		return errno(err)
	}
	return r.delegate.Close(d.fd)
}

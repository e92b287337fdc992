package router

import (
	"github.com/brettbedarf/embedfs/internal/util"
	"golang.org/x/sys/unix"
)

// Getcwd reports the virtual working directory when one is set.
func (r *Router) Getcwd() (string, error) {
	st, err := r.state()
	if err != nil {
		return "", err
	}
	if wd, ok := st.resolver.WorkingDir(); ok {
		return wd.String(), nil
	}
	return r.delegate.Getcwd()
}

// Chdir moves the virtual working directory when path resolves into the
// embedded tree. Otherwise the real process directory changes and the
// virtual one is cleared; a failed call changes nothing.
func (r *Router) Chdir(path string) error {
	logger := util.GetLogger("Router.Chdir")

	st, err := r.state()
	if err != nil {
		return err
	}
	key, osPath, governed := st.resolver.Route(path)
	if !governed {
		if err := r.delegate.Chdir(osPath); err != nil {
			return err
		}
		st.resolver.ClearWorkingDir()
		logger.Trace().Str("path", osPath).Msg("Working directory left embedded tree")
		return nil
	}

	e, err := st.store.Lookup(key)
	if err != nil {
		return errno(err)
	}
	if !e.IsDir() {
		return unix.ENOTDIR
	}
	st.resolver.SetWorkingDir(key)
	logger.Trace().Str("path", key.String()).Msg("Working directory set")
	return nil
}

// Realpath returns the canonical absolute form of path. Embedded paths are
// canonicalized lexically without an existence check. When resolved is not
// nil the result is also copied into it NUL terminated.
func (r *Router) Realpath(path string, resolved []byte) (string, error) {
	st, err := r.state()
	if err != nil {
		return "", err
	}
	var out string
	key, osPath, governed := st.resolver.Route(path)
	if governed {
		out = key.String()
	} else if out, err = r.delegate.Realpath(osPath); err != nil {
		return "", err
	}

	if resolved != nil {
		c := util.CString(out)
		if len(c) > len(resolved) {
			return "", unix.ENAMETOOLONG
		}
		copy(resolved, c)
	}
	return out, nil
}

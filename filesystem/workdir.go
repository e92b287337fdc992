package filesystem

import (
	"strings"
	"sync/atomic"

	"github.com/brettbedarf/embedfs"
)

// Resolver owns the mount root and the emulated working directory.
//
// The working directory is either unset, meaning relative paths belong to
// the real OS, or a virtual key inside the embedded tree. Loads and stores
// are individually atomic but a read-decide-write sequence such as chdir is
// not; concurrent chdir calls resolve as last write wins.
type Resolver struct {
	mountRoot string
	wd        atomic.Pointer[embedfs.PathKey]
}

func NewResolver(mountRoot string) *Resolver {
	if len(mountRoot) > 1 {
		mountRoot = strings.TrimSuffix(mountRoot, "/")
	}
	return &Resolver{mountRoot: mountRoot}
}

func (r *Resolver) MountRoot() string {
	return r.mountRoot
}

// IsUnderMountRoot is a byte-prefix test against the mount root.
func (r *Resolver) IsUnderMountRoot(p string) bool {
	return strings.HasPrefix(p, r.mountRoot)
}

// WorkingDir returns the virtual working directory if one is set.
func (r *Resolver) WorkingDir() (embedfs.PathKey, bool) {
	wd := r.wd.Load()
	if wd == nil {
		return nil, false
	}
	return *wd, true
}

func (r *Resolver) SetWorkingDir(key embedfs.PathKey) {
	key = key.Clone()
	r.wd.Store(&key)
}

func (r *Resolver) ClearWorkingDir() {
	r.wd.Store(nil)
}

// Expand returns raw unchanged when it is absolute or no virtual working
// directory is set, otherwise raw resolved against the working directory.
func (r *Resolver) Expand(raw string) string {
	wd, ok := r.WorkingDir()
	if !ok || IsAbs(raw) {
		return raw
	}
	return Canonicalize(wd, raw).String()
}

// Route decides whether raw belongs to the embedded tree and returns its
// canonical key when it does. osPath is the form to hand to the real OS:
// raw itself, or its expansion when a relative path was resolved against the
// virtual working directory.
func (r *Resolver) Route(raw string) (key embedfs.PathKey, osPath string, governed bool) {
	if raw == "" {
		return nil, raw, false
	}
	expanded := r.Expand(raw)
	if !IsAbs(expanded) {
		return nil, raw, false
	}
	key = Canonicalize(nil, expanded)
	if !r.IsUnderMountRoot(key.String()) {
		return nil, expanded, false
	}
	return key, expanded, true
}

// RouteAt is Route for a path relative to a virtual directory key.
func (r *Resolver) RouteAt(dir embedfs.PathKey, raw string) (key embedfs.PathKey, osPath string, governed bool) {
	if IsAbs(raw) {
		return r.Route(raw)
	}
	key = Canonicalize(dir, raw)
	if !r.IsUnderMountRoot(key.String()) {
		return nil, key.String(), false
	}
	return key, key.String(), true
}

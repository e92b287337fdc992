// Package router dispatches filesystem entry points between the embedded
// tree and the real operating system.
//
// Every method mirrors the golang.org/x/sys/unix call of the same name.
// Paths that canonicalize under the mount root are served from the Asset
// Store; everything else is forwarded to a Delegate unchanged. Errors are
// returned as bare unix.Errno values so callers can treat both sides alike.
package router

import (
	"sync"
	"sync/atomic"

	"github.com/brettbedarf/embedfs"
	"github.com/brettbedarf/embedfs/config"
	"github.com/brettbedarf/embedfs/filesystem"
	"github.com/brettbedarf/embedfs/image"
	"github.com/brettbedarf/embedfs/internal/realos"
	"github.com/brettbedarf/embedfs/internal/util"
	"golang.org/x/sys/unix"
)

// Router is the single process-wide context holding the lazily built
// store, the working directory emulation and the metadata cache.
type Router struct {
	cfg       *config.Config
	source    func() (*image.Layout, error)
	delegate  embedfs.Delegate
	storeOpts []filesystem.StoreOption
	fatal     func(error)

	load  func() (*state, error)
	built atomic.Bool
}

type state struct {
	store    *filesystem.Store
	resolver *filesystem.Resolver
	cache    *filesystem.MetaCache
}

type Option func(*Router)

// WithDelegate replaces the real OS implementation calls are forwarded to.
func WithDelegate(d embedfs.Delegate) Option {
	return func(r *Router) { r.delegate = d }
}

// WithFatalHandler replaces the handler for unrecoverable conditions: a
// failed image decode or a poisoned store. The default exits the process.
func WithFatalHandler(fn func(error)) Option {
	return func(r *Router) { r.fatal = fn }
}

// WithStoreOptions passes options through to the store when it is built.
func WithStoreOptions(opts ...filesystem.StoreOption) Option {
	return func(r *Router) { r.storeOpts = append(r.storeOpts, opts...) }
}

// New creates a router. source is not called until the first filesystem
// operation and then exactly once.
func New(cfg *config.Config, source func() (*image.Layout, error), opts ...Option) *Router {
	r := &Router{
		cfg:    cfg,
		source: source,
		fatal:  defaultFatal,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.delegate == nil {
		r.delegate = realos.Default()
	}
	r.load = sync.OnceValues(r.build)
	return r
}

func defaultFatal(err error) {
	logger := util.GetLogger("Router")
	logger.Fatal().Err(err).Msg("Embedded filesystem unavailable")
}

func (r *Router) build() (*state, error) {
	logger := util.GetLogger("Router.Init")

	layout, err := r.source()
	if err != nil {
		return nil, embedfs.NewError("load", "", err)
	}
	opts := append([]filesystem.StoreOption{filesystem.WithFatalHandler(r.fatal)}, r.storeOpts...)
	store, err := filesystem.NewStore(r.cfg, layout, opts...)
	if err != nil {
		return nil, err
	}
	r.built.Store(true)
	logger.Debug().Str("mountRoot", store.MountRoot()).Msg("Embedded filesystem ready")
	return &state{
		store:    store,
		resolver: filesystem.NewResolver(store.MountRoot()),
		cache:    filesystem.NewMetaCache(r.cfg.MetaCache),
	}, nil
}

// state returns the initialized context. A build failure is reported to the
// fatal handler on every call and surfaces as EIO when the handler returns.
func (r *Router) state() (*state, error) {
	st, err := r.load()
	if err != nil {
		r.fatal(err)
		return nil, unix.EIO
	}
	return st, nil
}

// errno flattens store errors into the errno a libc call would report.
func errno(err error) error {
	if err == nil {
		return nil
	}
	return embedfs.ToErrno(err)
}

// Store exposes the underlying Asset Store, building it if needed.
func (r *Router) Store() (*filesystem.Store, error) {
	st, err := r.state()
	if err != nil {
		return nil, err
	}
	return st.store, nil
}

// MountRoot returns the absolute prefix the embedded tree is visible under.
func (r *Router) MountRoot() (string, error) {
	st, err := r.state()
	if err != nil {
		return "", err
	}
	return st.resolver.MountRoot(), nil
}

// StartFile returns the entry point path recorded in the image, empty when
// none was set.
func (r *Router) StartFile() (string, error) {
	st, err := r.state()
	if err != nil {
		return "", err
	}
	return st.store.StartFile(), nil
}

// Shutdown releases descriptors still held by the store. It is a no-op if
// no operation ever built the store.
func (r *Router) Shutdown() error {
	if !r.built.Load() {
		return nil
	}
	st, err := r.load()
	if err != nil {
		return err
	}
	return st.store.Shutdown()
}

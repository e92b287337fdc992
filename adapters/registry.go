package adapters

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/brettbedarf/embedfs"
	"github.com/brettbedarf/embedfs/image"
	"github.com/brettbedarf/embedfs/internal/util"
)

// Registry maps a provider type to the provider that loads images of it.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]embedfs.ImageProvider
}

func NewRegistry() *Registry {
	return &Registry{providers: map[string]embedfs.ImageProvider{}}
}

// Register ties a provider to a type key. The first registration for a key
// wins so callers can install customized providers before the builtins.
func (r *Registry) Register(providerType string, p embedfs.ImageProvider) {
	logger := util.GetLogger("Registry.Register")

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[providerType]; ok {
		logger.Debug().Str("type", providerType).Msg("Provider already registered, ignoring")
		return
	}
	r.providers[providerType] = p
}

// GetProvider returns the provider registered for providerType.
func (r *Registry) GetProvider(providerType string) (embedfs.ImageProvider, error) {
	r.mu.RLock()
	p, ok := r.providers[providerType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no provider for %q", providerType)
	}
	return p, nil
}

// Resolve splits a source of the form "type:location". A source without a
// registered type prefix is detected from the filesystem: directories are
// packed, anything else is read as a bundle file, and the bare word
// "embedded" selects the image linked into the binary.
func (r *Registry) Resolve(source string) (providerType, location string) {
	if t, loc, ok := strings.Cut(source, ":"); ok {
		r.mu.RLock()
		_, known := r.providers[t]
		r.mu.RUnlock()
		if known {
			return t, loc
		}
	}
	if source == EmbeddedProviderType {
		return EmbeddedProviderType, ""
	}
	if fi, err := os.Stat(source); err == nil && fi.IsDir() {
		return DirProviderType, source
	}
	return BundleProviderType, source
}

// Load resolves source and loads its layout.
func (r *Registry) Load(source string) (*image.Layout, error) {
	logger := util.GetLogger("Registry.Load")

	providerType, location := r.Resolve(source)
	p, err := r.GetProvider(providerType)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("type", providerType).Str("location", location).Msg("Loading image")
	l, err := p.Load(location)
	if err != nil {
		return nil, fmt.Errorf("%s image %q: %w", providerType, location, err)
	}
	return l, nil
}

// Source returns a deferred loader for source, suitable for a lazily built
// router.
func (r *Registry) Source(source string) func() (*image.Layout, error) {
	return func() (*image.Layout, error) {
		return r.Load(source)
	}
}

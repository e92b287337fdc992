package adapters

import (
	"os"

	"github.com/brettbedarf/embedfs/image"
)

type BuiltInProviderType = string

const (
	BundleProviderType   BuiltInProviderType = "bundle"
	DirProviderType      BuiltInProviderType = "dir"
	EmbeddedProviderType BuiltInProviderType = "embedded"
)

// RegisterBuiltins registers all built-in providers by default
// or only the specific ones if keys are provided
func RegisterBuiltins(r *Registry, providers ...BuiltInProviderType) {
	if len(providers) == 0 {
		providers = append(providers, BundleProviderType, DirProviderType, EmbeddedProviderType)
	}

	for _, key := range providers {
		switch key {
		case BundleProviderType:
			r.Register(key, &BundleProvider{})
		case DirProviderType:
			r.Register(key, &DirProvider{})
		case EmbeddedProviderType:
			r.Register(key, &EmbeddedProvider{})
		}
	}
}

// BundleProvider reads a bundle file written by the pack command.
type BundleProvider struct{}

func (p *BundleProvider) Load(location string) (*image.Layout, error) {
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, err
	}
	b, err := image.DecodeBundle(data)
	if err != nil {
		return nil, err
	}
	return b.Layout, nil
}

// DirProvider packs a host directory on the fly. An empty MountRoot mounts
// the tree at the directory's own absolute path.
type DirProvider struct {
	MountRoot string
	StartFile string
}

func (p *DirProvider) Load(location string) (*image.Layout, error) {
	return image.Pack(location, p.MountRoot, p.StartFile)
}

// EmbeddedProvider serves the bundle registered by a generated embed stub.
type EmbeddedProvider struct{}

func (p *EmbeddedProvider) Load(string) (*image.Layout, error) {
	b, err := image.Embedded()
	if err != nil {
		return nil, err
	}
	return b.Layout, nil
}

package embedfs

import "github.com/brettbedarf/embedfs/image"

// ImageProvider loads an embedded image layout from a location whose meaning
// depends on the provider type (a bundle file, a directory to pack, ...).
type ImageProvider interface {
	Load(location string) (*image.Layout, error)
}

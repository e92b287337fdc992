package image

import "github.com/google/uuid"

// bundleDTO is the CBOR representation of a bundle following the magic prefix.
type bundleDTO struct {
	Version          uint16         `cbor:"version"`
	ID               uuid.UUID      `cbor:"id"`
	MountRoot        string         `cbor:"mount_root"`
	StartFile        string         `cbor:"start_file,omitempty"`
	PathsCompression CompressionTag `cbor:"paths_compression"`
	FilesCompression CompressionTag `cbor:"files_compression"`
	PathsLen         uint64         `cbor:"paths_len"`
	FilesLen         uint64         `cbor:"files_len"`
	Sizes            []uint64       `cbor:"sizes"`
	Paths            []byte         `cbor:"paths"`
	Files            []byte         `cbor:"files"`
	Checksum         []byte         `cbor:"checksum"` // blake3-256 over the uncompressed sections
}

// Header describes a bundle without its content.
type Header struct {
	ID          uuid.UUID      `yaml:"id" json:"id"`
	Version     uint16         `yaml:"version" json:"version"`
	MountRoot   string         `yaml:"mount_root" json:"mount_root"`
	StartFile   string         `yaml:"start_file,omitempty" json:"start_file,omitempty"`
	Compression CompressionTag `yaml:"compression" json:"compression"`
	Files       int            `yaml:"files" json:"files"`
	ContentSize uint64         `yaml:"content_size" json:"content_size"`
	Checksum    string         `yaml:"checksum" json:"checksum"`
}

func valueOrDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

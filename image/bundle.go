package image

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// BundleVersion is the bundle format version written by EncodeBundle.
const BundleVersion uint16 = 1

// Magic prefixes every bundle.
var Magic = []byte("EMBEDFS1")

var ErrNotBundle = errors.New("not an embedfs bundle")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("image: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("image: CBOR decoder initialization failed: " + err.Error())
	}
}

// EncodeOptions control how a layout is written as a bundle.
type EncodeOptions struct {
	Compression CompressionTag
	// ID identifies the bundle; a random one is generated when zero
	ID uuid.UUID
}

// Bundle is a decoded bundle.
type Bundle struct {
	Header Header
	Layout *Layout
}

// EncodeBundle serializes l. The layout is validated first.
func EncodeBundle(l *Layout, opts EncodeOptions) ([]byte, error) {
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}
	paths, pathsTag, err := compress(l.Paths, opts.Compression)
	if err != nil {
		return nil, fmt.Errorf("compress paths: %w", err)
	}
	files, filesTag, err := compress(l.Files, opts.Compression)
	if err != nil {
		return nil, fmt.Errorf("compress files: %w", err)
	}
	dto := bundleDTO{
		Version:          BundleVersion,
		ID:               valueOrDefault(opts.ID, uuid.New()),
		MountRoot:        l.MountRoot,
		StartFile:        l.StartFile,
		PathsCompression: pathsTag,
		FilesCompression: filesTag,
		PathsLen:         uint64(len(l.Paths)),
		FilesLen:         uint64(len(l.Files)),
		Sizes:            l.Sizes,
		Paths:            paths,
		Files:            files,
		Checksum:         checksum(l.Paths, l.Files, l.Sizes),
	}
	body, err := encMode.Marshal(&dto)
	if err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}
	out := make([]byte, 0, len(Magic)+len(body))
	out = append(out, Magic...)
	return append(out, body...), nil
}

// DecodeBundle parses, decompresses and verifies a bundle.
func DecodeBundle(data []byte) (*Bundle, error) {
	if !IsBundle(data) {
		return nil, ErrNotBundle
	}
	var dto bundleDTO
	if err := decMode.Unmarshal(data[len(Magic):], &dto); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if dto.Version != BundleVersion {
		return nil, fmt.Errorf("unsupported bundle version %d", dto.Version)
	}
	pathsLen, err := sectionLen(dto.PathsLen)
	if err != nil {
		return nil, fmt.Errorf("paths section: %w", err)
	}
	filesLen, err := sectionLen(dto.FilesLen)
	if err != nil {
		return nil, fmt.Errorf("files section: %w", err)
	}
	paths, err := decompress(dto.Paths, dto.PathsCompression, pathsLen)
	if err != nil {
		return nil, fmt.Errorf("paths section: %w", err)
	}
	files, err := decompress(dto.Files, dto.FilesCompression, filesLen)
	if err != nil {
		return nil, fmt.Errorf("files section: %w", err)
	}
	sum := checksum(paths, files, dto.Sizes)
	if !bytes.Equal(sum, dto.Checksum) {
		return nil, fmt.Errorf("checksum mismatch: got %x, expected %x", sum, dto.Checksum)
	}
	l := &Layout{
		Paths:     paths,
		Files:     files,
		Sizes:     dto.Sizes,
		MountRoot: dto.MountRoot,
		StartFile: dto.StartFile,
	}
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}
	tag := dto.FilesCompression
	if tag == CompressionNone {
		tag = dto.PathsCompression
	}
	return &Bundle{
		Header: Header{
			ID:          dto.ID,
			Version:     dto.Version,
			MountRoot:   dto.MountRoot,
			StartFile:   dto.StartFile,
			Compression: tag,
			Files:       l.Len(),
			ContentSize: dto.FilesLen,
			Checksum:    hex.EncodeToString(dto.Checksum),
		},
		Layout: l,
	}, nil
}

// IsBundle reports whether data starts with the bundle magic.
func IsBundle(data []byte) bool {
	return bytes.HasPrefix(data, Magic)
}

func checksum(paths, files []byte, sizes []uint64) []byte {
	h := blake3.New()
	h.Write(paths)
	h.Write(files)
	var buf [8]byte
	for _, s := range sizes {
		binary.LittleEndian.PutUint64(buf[:], s)
		h.Write(buf[:])
	}
	return h.Sum(nil)
}

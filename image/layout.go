// Package image decodes and produces the byte layout of an embedded file
// tree: NUL-terminated paths, concatenated contents and cumulative offsets,
// plus the mount root and start file baked in at build time.
package image

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Layout mirrors the embedded data section.
type Layout struct {
	// Paths holds NUL-terminated, slash-separated paths in file order
	Paths []byte
	// Files holds every file's content, concatenated in the order of Paths
	Files []byte
	// Sizes holds cumulative offsets into Files; len(Sizes) == count+1
	Sizes []uint64
	// MountRoot is the absolute path prefix under which the tree is visible
	MountRoot string
	// StartFile names the entry point inside the tree, may be empty
	StartFile string
}

// Entry is one embedded file. Content aliases the layout's Files buffer.
type Entry struct {
	Path    string
	Content []byte
}

// PathList splits Paths on NUL. A missing final terminator is tolerated.
func (l *Layout) PathList() []string {
	if len(l.Paths) == 0 {
		return nil
	}
	raw := bytes.TrimSuffix(l.Paths, []byte{0})
	parts := bytes.Split(raw, []byte{0})
	paths := make([]string, len(parts))
	for i, p := range parts {
		paths[i] = string(p)
	}
	return paths
}

// Validate checks that the three sections agree with each other.
func (l *Layout) Validate() error {
	paths := l.PathList()
	if len(l.Sizes) != len(paths)+1 {
		return fmt.Errorf("%d offsets for %d paths, expected %d", len(l.Sizes), len(paths), len(paths)+1)
	}
	if l.Sizes[0] != 0 {
		return fmt.Errorf("first offset %d is not zero", l.Sizes[0])
	}
	for i := 1; i < len(l.Sizes); i++ {
		if l.Sizes[i] < l.Sizes[i-1] {
			return fmt.Errorf("offset %d (%d) is smaller than offset %d (%d)", i, l.Sizes[i], i-1, l.Sizes[i-1])
		}
	}
	if last := l.Sizes[len(l.Sizes)-1]; last > uint64(len(l.Files)) {
		return fmt.Errorf("last offset %d exceeds content length %d", last, len(l.Files))
	}
	if l.MountRoot == "" || l.MountRoot[0] != '/' {
		return fmt.Errorf("mount root %q is not absolute", l.MountRoot)
	}
	return nil
}

// Entries validates the layout and returns its files in order.
func (l *Layout) Entries() ([]Entry, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	paths := l.PathList()
	entries := make([]Entry, len(paths))
	for i, p := range paths {
		start, end := l.Sizes[i], l.Sizes[i+1]
		entries[i] = Entry{Path: p, Content: l.Files[start:end:end]}
	}
	return entries, nil
}

// Len returns the number of files.
func (l *Layout) Len() int {
	return len(l.PathList())
}

// FromSections builds a Layout from raw section bytes as a linker would lay
// them out: sizes as little-endian u64 values and NUL-terminated strings for
// the mount root and start file.
func FromSections(paths, files, sizes, wd, start []byte) (*Layout, error) {
	if len(sizes)%8 != 0 {
		return nil, fmt.Errorf("offset section length %d is not a multiple of 8", len(sizes))
	}
	offsets := make([]uint64, len(sizes)/8)
	for i := range offsets {
		offsets[i] = binary.LittleEndian.Uint64(sizes[i*8:])
	}
	l := &Layout{
		Paths:     paths,
		Files:     files,
		Sizes:     offsets,
		MountRoot: cString(wd),
		StartFile: cString(start),
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

// Builder accumulates files into a Layout.
type Builder struct {
	paths bytes.Buffer
	files bytes.Buffer
	sizes []uint64
}

func NewBuilder() *Builder {
	return &Builder{sizes: []uint64{0}}
}

// Add appends a file. Paths containing NUL are rejected.
func (b *Builder) Add(path string, content []byte) error {
	if bytes.IndexByte([]byte(path), 0) >= 0 {
		return fmt.Errorf("path %q contains NUL", path)
	}
	b.paths.WriteString(path)
	b.paths.WriteByte(0)
	b.files.Write(content)
	b.sizes = append(b.sizes, uint64(b.files.Len()))
	return nil
}

// Layout returns the accumulated layout. The builder must not be reused.
func (b *Builder) Layout(mountRoot, startFile string) *Layout {
	return &Layout{
		Paths:     b.paths.Bytes(),
		Files:     b.files.Bytes(),
		Sizes:     b.sizes,
		MountRoot: mountRoot,
		StartFile: startFile,
	}
}

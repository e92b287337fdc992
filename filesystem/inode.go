package filesystem

import (
	"encoding/binary"

	"github.com/brettbedarf/embedfs"
	"github.com/zeebo/blake3"
	"golang.org/x/sys/unix"
)

const (
	FileMode = unix.S_IFREG | 0o444
	DirMode  = unix.S_IFDIR | 0o555
)

// InodeOf derives the synthetic inode number of key. It is stable for the
// lifetime of the binary and never zero, but not guaranteed collision-free.
func InodeOf(key embedfs.PathKey) uint64 {
	h := blake3.New()
	for _, c := range key {
		h.Write([]byte(c))
		h.Write([]byte{0})
	}
	var sum [32]byte
	ino := binary.LittleEndian.Uint64(h.Sum(sum[:0]))
	if ino == 0 {
		// readdir consumers treat inode 0 as a deleted entry
		ino = 1
	}
	return ino
}

// attrTemplate holds the metadata fields shared by every entry.
type attrTemplate struct {
	dev     uint64
	uid     uint32
	gid     uint32
	blksize int32
}

func (t attrTemplate) metadata(e *embedfs.Entry) embedfs.Metadata {
	md := embedfs.Metadata{
		Dev:     t.dev,
		Ino:     e.Ino,
		Nlink:   1,
		Uid:     t.uid,
		Gid:     t.gid,
		Blksize: t.blksize,
	}
	if e.IsDir() {
		md.Mode = DirMode
		md.Size = 1
		return md
	}
	md.Mode = FileMode
	md.Size = int64(len(e.Content))
	md.Blocks = blocksFor(md.Size, int64(t.blksize))
	return md
}

// blocksFor counts 512-byte blocks rounded up to whole blksize units.
func blocksFor(size, blksize int64) int64 {
	per := blksize / 512
	sectors := (size + 511) / 512
	return (sectors + per - 1) / per * per
}

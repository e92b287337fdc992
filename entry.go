package embedfs

import "golang.org/x/sys/unix"

// EntryKind distinguishes the two shapes an Asset Store entry can take.
type EntryKind uint8

const (
	FileEntry EntryKind = iota + 1
	DirEntry
)

func (k EntryKind) String() string {
	switch k {
	case FileEntry:
		return "file"
	case DirEntry:
		return "dir"
	default:
		return "unknown"
	}
}

// Child is an immediate child of a directory entry.
type Child struct {
	Key  PathKey
	Ino  uint64
	Kind EntryKind
}

// Entry is the result of resolving a PathKey in the Asset Store.
// Content is set for files and shared with the store; callers must not modify it.
// Children is set for directories and only holds direct children.
type Entry struct {
	Kind     EntryKind
	Key      PathKey
	Ino      uint64
	Content  []byte
	Children []Child
}

func (e *Entry) IsDir() bool {
	return e.Kind == DirEntry
}

// Metadata is the synthetic POSIX metadata of an entry in platform neutral
// form. Timestamps are always zero.
type Metadata struct {
	Dev     uint64
	Ino     uint64
	Mode    uint32
	Nlink   uint32
	Uid     uint32
	Gid     uint32
	Size    int64
	Blksize int32
	Blocks  int64
}

func (m Metadata) IsDir() bool {
	return m.Mode&unix.S_IFMT == unix.S_IFDIR
}

// Dirent is a single directory listing record.
// Type is unix.DT_REG or unix.DT_DIR for virtual entries.
type Dirent struct {
	Ino  uint64
	Type uint8
	Name string
}

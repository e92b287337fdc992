package server

import (
	"context"
	"syscall"

	"github.com/brettbedarf/embedfs"
	"github.com/brettbedarf/embedfs/internal/util"
	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// node is one embedded file or directory. It only remembers its key; all
// state lives in the store.
type node struct {
	gofuse.Inode
	efs *EmbedFs
	key embedfs.PathKey
}

var _ gofuse.InodeEmbedder = (*node)(nil)
var _ gofuse.NodeLookuper = (*node)(nil)
var _ gofuse.NodeGetattrer = (*node)(nil)
var _ gofuse.NodeReaddirer = (*node)(nil)
var _ gofuse.NodeOpener = (*node)(nil)
var _ gofuse.NodeReader = (*node)(nil)

// fillAttr copies metadata into the FUSE wire attributes.
func fillAttr(out *fuse.Attr, md *embedfs.Metadata) {
	out.Ino = md.Ino
	out.Size = uint64(md.Size)
	out.Blocks = uint64(md.Blocks)
	out.Mode = md.Mode
	out.Nlink = md.Nlink
	out.Owner = fuse.Owner{Uid: md.Uid, Gid: md.Gid}
	out.Blksize = uint32(md.Blksize)
}

func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	logger := util.GetLogger("Server.Lookup")

	key := n.key.Child(name)
	md, err := n.efs.metadata(key)
	if err != nil {
		logger.Trace().Err(err).Str("path", key.String()).Msg("Lookup miss")
		return nil, embedfs.ToErrno(err)
	}
	fillAttr(&out.Attr, &md)
	child := n.NewInode(ctx, &node{efs: n.efs, key: key}, gofuse.StableAttr{
		Mode: md.Mode & syscall.S_IFMT,
		Ino:  md.Ino,
	})
	return child, 0
}

func (n *node) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	md, err := n.efs.metadata(n.key)
	if err != nil {
		return embedfs.ToErrno(err)
	}
	fillAttr(&out.Attr, &md)
	return 0
}

func (n *node) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	e, err := n.efs.store.Lookup(n.key)
	if err != nil {
		return nil, embedfs.ToErrno(err)
	}
	if !e.IsDir() {
		return nil, syscall.ENOTDIR
	}
	entries := make([]fuse.DirEntry, 0, len(e.Children))
	for _, c := range e.Children {
		mode := uint32(syscall.S_IFREG)
		if c.Kind == embedfs.DirEntry {
			mode = syscall.S_IFDIR
		}
		entries = append(entries, fuse.DirEntry{Name: c.Key.Name(), Mode: mode, Ino: c.Ino})
	}
	return gofuse.NewListDirStream(entries), 0
}

// Open hands out no file handle; reads go straight to the entry content,
// which never changes so the kernel may keep its page cache.
func (n *node) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR|syscall.O_TRUNC) != 0 {
		return nil, 0, syscall.EROFS
	}
	return nil, fuse.FOPEN_KEEP_CACHE, 0
}

func (n *node) Read(ctx context.Context, f gofuse.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	e, err := n.efs.store.Lookup(n.key)
	if err != nil {
		return nil, embedfs.ToErrno(err)
	}
	if e.IsDir() {
		return nil, syscall.EISDIR
	}
	content := e.Content
	if off >= int64(len(content)) {
		return fuse.ReadResultData(nil), 0
	}
	end := min(off+int64(len(dest)), int64(len(content)))
	return fuse.ReadResultData(content[off:end]), 0
}

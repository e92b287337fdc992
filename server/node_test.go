package server

import (
	"context"
	"syscall"
	"testing"

	"github.com/brettbedarf/embedfs"
	"github.com/brettbedarf/embedfs/config"
	"github.com/brettbedarf/embedfs/filesystem"
	"github.com/brettbedarf/embedfs/image"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopAllocator struct{ next int }

func (a *nopAllocator) Alloc() (int, error) { a.next++; return 1000 + a.next, nil }
func (a *nopAllocator) Release(int) error   { return nil }
func (a *nopAllocator) Close() error        { return nil }

func createTestFs(t *testing.T, mountRoot string) *EmbedFs {
	t.Helper()
	b := image.NewBuilder()
	require.NoError(t, b.Add("app/main.rb", []byte("puts :hi\n")))
	require.NoError(t, b.Add("app/lib/util.rb", []byte("module Util; end\n")))
	cfg := config.NewDefaultConfig()
	store, err := filesystem.NewStore(cfg, b.Layout(mountRoot, ""), filesystem.WithAllocator(&nopAllocator{}))
	require.NoError(t, err)
	return New(cfg, store)
}

func TestFillAttr(t *testing.T) {
	t.Parallel()

	md := embedfs.Metadata{
		Ino:     42,
		Mode:    syscall.S_IFREG | 0o444,
		Nlink:   1,
		Uid:     1000,
		Gid:     100,
		Size:    10,
		Blksize: 4096,
		Blocks:  8,
	}
	var out fuse.Attr
	fillAttr(&out, &md)
	assert.Equal(t, uint64(42), out.Ino)
	assert.Equal(t, uint64(10), out.Size)
	assert.Equal(t, uint64(8), out.Blocks)
	assert.Equal(t, uint32(syscall.S_IFREG|0o444), out.Mode)
	assert.Equal(t, uint32(1), out.Nlink)
	assert.Equal(t, fuse.Owner{Uid: 1000, Gid: 100}, out.Owner)
	assert.Equal(t, uint32(4096), out.Blksize)
	assert.Zero(t, out.Mtime)
}

func TestRoot(t *testing.T) {
	t.Parallel()

	root, err := createTestFs(t, "/app").root()
	require.NoError(t, err)
	assert.Equal(t, "/app", root.key.String())

	_, err = createTestFs(t, "/srv").root()
	assert.ErrorIs(t, err, embedfs.ErrNotFound)
}

func TestNode_GetattrReaddir(t *testing.T) {
	t.Parallel()
	efs := createTestFs(t, "/app")
	root, err := efs.root()
	require.NoError(t, err)

	var out fuse.AttrOut
	require.Zero(t, root.Getattr(context.Background(), nil, &out))
	assert.Equal(t, uint32(syscall.S_IFDIR|0o555), out.Mode)

	ds, errno := root.Readdir(context.Background())
	require.Zero(t, errno)
	defer ds.Close()
	got := map[string]uint32{}
	for ds.HasNext() {
		e, errno := ds.Next()
		require.Zero(t, errno)
		got[e.Name] = e.Mode
	}
	assert.Equal(t, map[string]uint32{"main.rb": syscall.S_IFREG, "lib": syscall.S_IFDIR}, got)

	file := &node{efs: efs, key: embedfs.ParsePathKey("/app/main.rb")}
	_, errno = file.Readdir(context.Background())
	assert.Equal(t, syscall.ENOTDIR, errno)
}

func TestNode_OpenRead(t *testing.T) {
	t.Parallel()
	efs := createTestFs(t, "/app")
	file := &node{efs: efs, key: embedfs.ParsePathKey("/app/main.rb")}

	_, flags, errno := file.Open(context.Background(), syscall.O_RDONLY)
	require.Zero(t, errno)
	assert.Equal(t, uint32(fuse.FOPEN_KEEP_CACHE), flags)

	_, _, errno = file.Open(context.Background(), syscall.O_WRONLY)
	assert.Equal(t, syscall.EROFS, errno)

	buf := make([]byte, 4)
	res, errno := file.Read(context.Background(), nil, buf, 5)
	require.Zero(t, errno)
	data, status := res.Bytes(buf)
	require.Equal(t, fuse.OK, status)
	assert.Equal(t, []byte(":hi\n"), data)

	res, errno = file.Read(context.Background(), nil, buf, 100)
	require.Zero(t, errno)
	data, _ = res.Bytes(buf)
	assert.Empty(t, data)

	dir := &node{efs: efs, key: embedfs.ParsePathKey("/app/lib")}
	_, errno = dir.Read(context.Background(), nil, buf, 0)
	assert.Equal(t, syscall.EISDIR, errno)
}

// Package server exports an Asset Store as a read-only FUSE filesystem so
// external processes can browse the embedded tree.
package server

import (
	"fmt"
	"time"

	"github.com/brettbedarf/embedfs"
	"github.com/brettbedarf/embedfs/config"
	"github.com/brettbedarf/embedfs/filesystem"
	"github.com/brettbedarf/embedfs/internal/util"
	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// EmbedFs serves one store over FUSE.
type EmbedFs struct {
	cfg    *config.Config
	store  *filesystem.Store
	cache  *filesystem.MetaCache
	server *fuse.Server
}

func New(cfg *config.Config, store *filesystem.Store) *EmbedFs {
	return &EmbedFs{
		cfg:   cfg,
		store: store,
		cache: filesystem.NewMetaCache(cfg.MetaCache),
	}
}

// root returns the node for the store's mount root, which becomes the root
// of the mount.
func (efs *EmbedFs) root() (*node, error) {
	key := embedfs.ParsePathKey(efs.store.MountRoot())
	e, err := efs.store.Lookup(key)
	if err != nil {
		return nil, err
	}
	if !e.IsDir() {
		return nil, fmt.Errorf("mount root %s is not a directory", key)
	}
	return &node{efs: efs, key: key}, nil
}

func (efs *EmbedFs) metadata(key embedfs.PathKey) (embedfs.Metadata, error) {
	return efs.cache.GetOrCompute(key.String(), func() (embedfs.Metadata, error) {
		return efs.store.Metadata(key)
	})
}

func seconds(s float64) *time.Duration {
	d := time.Duration(s * float64(time.Second))
	return &d
}

// Serve mounts the tree at mountPoint and returns once the kernel has
// acknowledged the mount. Requests are served in the background until
// Unmount.
func (efs *EmbedFs) Serve(mountPoint string) error {
	logger := util.GetLogger("Server.Serve")

	root, err := efs.root()
	if err != nil {
		return err
	}
	opts := efs.cfg.MountOptions
	srv, err := gofuse.Mount(mountPoint, root, &gofuse.Options{
		EntryTimeout: seconds(efs.cfg.EntryTimeout),
		AttrTimeout:  seconds(efs.cfg.AttrTimeout),
		MountOptions: fuse.MountOptions{
			Name:   opts.Name,
			FsName: opts.FsName,
			Debug:  opts.Debug || efs.cfg.LogLvl == util.TraceLevel,
			Logger: util.NewLogLogger("FuseServer", util.TraceLevel),
		},
	})
	if err != nil {
		return fmt.Errorf("mounting at %s: %w", mountPoint, err)
	}
	efs.server = srv
	logger.Info().Str("mountPoint", mountPoint).Str("root", efs.store.MountRoot()).Msg("Embedded tree mounted")
	return nil
}

// Wait blocks until the filesystem is unmounted.
func (efs *EmbedFs) Wait() {
	if efs.server != nil {
		efs.server.Wait()
	}
}

// Unmount cleanly unmounts the filesystem.
func (efs *EmbedFs) Unmount() error {
	if efs.server == nil {
		return nil
	}
	return efs.server.Unmount()
}

package router

import (
	"github.com/brettbedarf/embedfs"
	"golang.org/x/sys/unix"
)

func fillStat(st *unix.Stat_t, md *embedfs.Metadata) {
	*st = unix.Stat_t{
		Dev:     md.Dev,
		Ino:     md.Ino,
		Nlink:   uint64(md.Nlink),
		Mode:    md.Mode,
		Uid:     md.Uid,
		Gid:     md.Gid,
		Size:    md.Size,
		Blksize: int64(md.Blksize),
		Blocks:  md.Blocks,
	}
}

package router

import (
	"github.com/brettbedarf/embedfs"
	"golang.org/x/sys/unix"
)

// dev_t is 32 bits wide here so the synthetic device id is truncated.
func fillStat(st *unix.Stat_t, md *embedfs.Metadata) {
	*st = unix.Stat_t{
		Dev:     int32(md.Dev),
		Mode:    uint16(md.Mode),
		Nlink:   uint16(md.Nlink),
		Ino:     md.Ino,
		Uid:     md.Uid,
		Gid:     md.Gid,
		Size:    md.Size,
		Blocks:  md.Blocks,
		Blksize: md.Blksize,
	}
}

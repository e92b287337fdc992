//go:build linux && (arm64 || riscv64 || loong64)

package router

import (
	"github.com/brettbedarf/embedfs"
	"golang.org/x/sys/unix"
)

func fillStat(st *unix.Stat_t, md *embedfs.Metadata) {
	*st = unix.Stat_t{
		Dev:     md.Dev,
		Ino:     md.Ino,
		Mode:    md.Mode,
		Nlink:   md.Nlink,
		Uid:     md.Uid,
		Gid:     md.Gid,
		Size:    md.Size,
		Blksize: md.Blksize,
		Blocks:  md.Blocks,
	}
}

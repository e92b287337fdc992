package main

import (
	"fmt"
	"io"

	"github.com/brettbedarf/embedfs"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"
)

// Relative paths given to these commands are taken from the mount root.

var lsCmd = &cobra.Command{
	Use:   "ls <source> [path]",
	Short: "List an embedded directory",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := openSession(args[0])
		defer s.close()
		if err := s.enterRoot(); err != nil {
			return err
		}
		p := "."
		if len(args) == 2 {
			p = args[1]
		}

		dir, err := s.Opendir(p)
		if err != nil {
			return s.fail("ls", p, err)
		}
		defer func() { _ = s.Closedir(dir) }()

		out := cmd.OutOrStdout()
		for {
			de, err := s.Readdir(dir)
			if err != nil {
				return s.fail("readdir", p, err)
			}
			if de == nil {
				return nil
			}
			name := de.Name
			if de.Type == unix.DT_DIR {
				name += "/"
			}
			fmt.Fprintln(out, name)
		}
	},
}

var catCmd = &cobra.Command{
	Use:   "cat <source> <path>",
	Short: "Print an embedded file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := openSession(args[0])
		defer s.close()
		if err := s.enterRoot(); err != nil {
			return err
		}
		p := args[1]

		fd, err := s.Open(p, unix.O_RDONLY|unix.O_CLOEXEC, 0)
		if err != nil {
			return s.fail("open", p, err)
		}
		defer func() { _ = s.Close(fd) }()

		_, err = io.Copy(cmd.OutOrStdout(), &fdReader{s: s, fd: fd})
		if err != nil {
			return s.fail("read", p, err)
		}
		return nil
	},
}

// fdReader adapts a routed descriptor to io.Reader.
type fdReader struct {
	s  *session
	fd int
}

func (r *fdReader) Read(p []byte) (int, error) {
	n, err := r.s.Read(r.fd, p)
	if err != nil {
		return 0, err
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

type statOutput struct {
	Path    string `yaml:"path"`
	Type    string `yaml:"type"`
	Mode    string `yaml:"mode"`
	Size    int64  `yaml:"size"`
	Blocks  int64  `yaml:"blocks"`
	Blksize int64  `yaml:"blksize"`
	Nlink   uint64 `yaml:"nlink"`
	Ino     uint64 `yaml:"ino"`
	Dev     uint64 `yaml:"dev"`
	Uid     uint32 `yaml:"uid"`
	Gid     uint32 `yaml:"gid"`
}

var statCmd = &cobra.Command{
	Use:   "stat <source> <path>",
	Short: "Print the metadata of an embedded path as YAML",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := openSession(args[0])
		defer s.close()
		if err := s.enterRoot(); err != nil {
			return err
		}
		p := args[1]

		var st unix.Stat_t
		if err := s.Stat(p, &st); err != nil {
			return s.fail("stat", p, err)
		}
		resolved, err := s.Realpath(p, nil)
		if err != nil {
			return s.fail("realpath", p, err)
		}

		kind := embedfs.FileEntry
		if uint32(st.Mode)&unix.S_IFMT == unix.S_IFDIR {
			kind = embedfs.DirEntry
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		defer enc.Close()
		return enc.Encode(statOutput{
			Path:    resolved,
			Type:    kind.String(),
			Mode:    fmt.Sprintf("%#o", uint32(st.Mode)&0o7777),
			Size:    st.Size,
			Blocks:  st.Blocks,
			Blksize: int64(st.Blksize),
			Nlink:   uint64(st.Nlink),
			Ino:     st.Ino,
			Dev:     uint64(st.Dev),
			Uid:     st.Uid,
			Gid:     st.Gid,
		})
	},
}

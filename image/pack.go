package image

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/brettbedarf/embedfs/internal/util"
)

// Pack walks dir and builds a layout of its regular files as they will appear
// under mountRoot. An empty mountRoot uses the absolute path of dir. A
// relative startFile is taken relative to mountRoot and must name a packed
// file.
func Pack(dir, mountRoot, startFile string) (*Layout, error) {
	logger := util.GetLogger("Image.Pack")

	if mountRoot == "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, err
		}
		mountRoot = filepath.ToSlash(abs)
	}
	if !path.IsAbs(mountRoot) {
		return nil, fmt.Errorf("mount root %q is not absolute", mountRoot)
	}
	mountRoot = path.Clean(mountRoot)

	b := NewBuilder()
	packed := make(map[string]struct{})
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			if !d.IsDir() {
				logger.Debug().Str("path", p).Str("type", d.Type().String()).Msg("Skipping non-regular file")
			}
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		stored := strings.TrimPrefix(path.Join(mountRoot, filepath.ToSlash(rel)), "/")
		if err := b.Add(stored, content); err != nil {
			return err
		}
		packed[stored] = struct{}{}
		logger.Trace().Str("path", stored).Int("size", len(content)).Msg("Packed file")
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", dir, err)
	}

	if startFile != "" {
		if !path.IsAbs(startFile) {
			startFile = path.Join(mountRoot, startFile)
		}
		startFile = path.Clean(startFile)
		if _, ok := packed[strings.TrimPrefix(startFile, "/")]; !ok {
			return nil, fmt.Errorf("start file %s is not part of %s", startFile, dir)
		}
	}

	l := b.Layout(mountRoot, startFile)
	logger.Debug().Str("dir", dir).Str("mountRoot", mountRoot).Int("files", len(packed)).Msg("Packed directory")
	return l, nil
}

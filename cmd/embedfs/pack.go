package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brettbedarf/embedfs/image"
	"github.com/brettbedarf/embedfs/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var packCmd = &cobra.Command{
	Use:   "pack <dir>",
	Short: "Pack a directory into a bundle",
	Long: `Pack writes every regular file below <dir> into a bundle. Files appear
under --mount-root at runtime, which defaults to the absolute path of <dir>.
With --go-out a Go source file is generated next to the bundle that embeds
it and registers it for the "embedded" source.`,
	Args: cobra.ExactArgs(1),
	RunE: runPack,
}

func init() {
	f := packCmd.Flags()
	f.StringP("output", "o", "", "Bundle file to write (default <dir>.embedfs)")
	f.String("mount-root", "", "Absolute path the tree is visible under")
	f.String("start", "", "Entry point file, relative to the mount root or absolute")
	f.Var(&compressionValue{tag: image.CompressionZstd}, "compression", "Section compression: none, lz4 or zstd")
	f.String("go-out", "", "Also write a Go file embedding the bundle")
	f.String("go-package", "main", "Package name of the generated Go file")
}

func runPack(cmd *cobra.Command, args []string) error {
	logger := util.GetLogger("Pack")

	dir := args[0]
	out, _ := cmd.Flags().GetString("output")
	mountRoot, _ := cmd.Flags().GetString("mount-root")
	start, _ := cmd.Flags().GetString("start")
	goOut, _ := cmd.Flags().GetString("go-out")
	goPkg, _ := cmd.Flags().GetString("go-package")

	tag := cmd.Flags().Lookup("compression").Value.(*compressionValue).tag
	if out == "" {
		out = filepath.Clean(dir) + ".embedfs"
	}

	layout, err := image.Pack(dir, mountRoot, start)
	if err != nil {
		return err
	}
	data, err := image.EncodeBundle(layout, image.EncodeOptions{Compression: tag})
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("writing bundle: %w", err)
	}
	logger.Info().
		Str("bundle", out).
		Str("mountRoot", layout.MountRoot).
		Int("files", layout.Len()).
		Int("bytes", len(data)).
		Msg("Bundle written")

	if goOut != "" {
		if err := writeStub(goOut, goPkg, out); err != nil {
			return err
		}
		logger.Info().Str("file", goOut).Msg("Embed stub written")
	}
	return nil
}

// compressionValue parses the --compression flag.
type compressionValue struct {
	tag image.CompressionTag
}

var _ pflag.Value = (*compressionValue)(nil)

func (v *compressionValue) String() string {
	return v.tag.String()
}

func (v *compressionValue) Set(s string) error {
	tag, err := image.ParseCompressionTag(s)
	if err != nil {
		return err
	}
	v.tag = tag
	return nil
}

func (v *compressionValue) Type() string {
	return "compression"
}

// writeStub generates the embedding Go file. go:embed cannot reach outside
// the package directory so the bundle must sit at or below it.
func writeStub(goOut, pkg, bundle string) (err error) {
	rel, err := filepath.Rel(filepath.Dir(goOut), bundle)
	if err != nil {
		return err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("bundle %s is outside the directory of %s", bundle, goOut)
	}

	f, err := os.Create(goOut)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(f)
	if err := image.WriteEmbedStub(w, pkg, filepath.ToSlash(rel)); err != nil {
		return err
	}
	return w.Flush()
}

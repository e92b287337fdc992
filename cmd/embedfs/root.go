package main

import (
	"github.com/brettbedarf/embedfs"
	"github.com/brettbedarf/embedfs/adapters"
	"github.com/brettbedarf/embedfs/config"
	"github.com/brettbedarf/embedfs/internal/util"
	"github.com/brettbedarf/embedfs/router"
	"github.com/spf13/cobra"
)

var (
	verbose    int
	configPath string

	cfg      *config.Config
	registry = adapters.NewRegistry()
)

var rootCmd = &cobra.Command{
	Use:   "embedfs",
	Short: "Build and inspect read-only embedded filesystem images",
	Long: `embedfs packs a directory tree into an image that a Go program can embed
and serve as a read-only filesystem under a fixed mount root.

Commands taking a <source> accept a bundle file, a directory (packed on
the fly), "embedded", or an explicit "type:location" pair.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.IntVarP(&verbose, "verbose", "v", config.InfoVerbose, "Log verbosity between 1 (error) and 5 (trace)")
	pf.StringVar(&configPath, "config", "", "Path to a YAML or JSON config file")

	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(catCmd)
	rootCmd.AddCommand(statCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(mountCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	c := config.NewDefaultConfig()
	if configPath != "" {
		override, err := config.LoadConfigOverrideFile(configPath)
		if err != nil {
			return err
		}
		c.Merge(override)
	}
	if cmd.Flags().Changed("verbose") {
		c.Merge(&config.ConfigOverride{LogLvl: &verbose})
	}
	if err := c.Validate(); err != nil {
		return err
	}
	util.InitializeLogger(c.LogLvl)
	cfg = c

	adapters.RegisterBuiltins(registry)
	return nil
}

// session is a router over one source. Image load failures are kept so
// commands can report them instead of a bare EIO.
type session struct {
	*router.Router
	loadErr error
}

func openSession(source string) *session {
	s := &session{}
	s.Router = router.New(cfg, registry.Source(source), router.WithFatalHandler(func(err error) {
		s.loadErr = err
	}))
	return s
}

func (s *session) fail(op, path string, err error) error {
	if s.loadErr != nil {
		return s.loadErr
	}
	return embedfs.NewError(op, path, err)
}

// enterRoot moves the virtual working directory to the mount root so
// relative arguments name embedded paths.
func (s *session) enterRoot() error {
	root, err := s.MountRoot()
	if err != nil {
		return s.fail("load", "", err)
	}
	if err := s.Chdir(root); err != nil {
		return s.fail("chdir", root, err)
	}
	return nil
}

func (s *session) close() {
	logger := util.GetLogger("main")
	if err := s.Shutdown(); err != nil {
		logger.Warn().Err(err).Msg("Shutdown failed")
	}
}

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/brettbedarf/embedfs/internal/hostctx"
	"github.com/brettbedarf/embedfs/internal/util"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

var startCmd = &cobra.Command{
	Use:   "start <source>",
	Short: "Print the entry point recorded in an image",
	Long: `Start resolves the image's start file inside an embedded-context scope,
checks that it can be opened and prints its path.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := util.GetLogger("Start")

		s := openSession(args[0])
		defer s.close()

		start, err := s.StartFile()
		if err != nil {
			return s.fail("load", "", err)
		}
		if start == "" {
			return errors.New("image has no start file")
		}

		tracker := hostctx.NewTracker()
		return tracker.Do(cmd.Context(), "start", func(ctx context.Context) error {
			logger.Debug().Bool("embedded", tracker.Active(ctx)).Str("start", start).Msg("Resolving start file")

			fd, err := s.Open(start, unix.O_RDONLY|unix.O_CLOEXEC, 0)
			if err != nil {
				return s.fail("open", start, err)
			}
			if err := s.Close(fd); err != nil {
				logger.Debug().Err(err).Int("fd", fd).Msg("Close failed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), start)
			return nil
		})
	},
}

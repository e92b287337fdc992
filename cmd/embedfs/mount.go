package main

import (
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/brettbedarf/embedfs/internal/util"
	"github.com/brettbedarf/embedfs/server"
	"github.com/spf13/cobra"
)

var mountCmd = &cobra.Command{
	Use:   "mount <source> <mountpoint>",
	Short: "Export an image read-only over FUSE until interrupted",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := util.GetLogger("Mount")
		mnt := args[1]

		umount, _ := cmd.Flags().GetBool("umount")
		if umount {
			// Not being mounted already is fine
			_ = exec.Command("fusermount", "-u", mnt).Run()
		}

		s := openSession(args[0])
		defer s.close()
		store, err := s.Store()
		if err != nil {
			return s.fail("load", "", err)
		}

		efs := server.New(cfg, store)
		if err := efs.Serve(mnt); err != nil {
			return err
		}

		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
		sig := <-signalChan
		logger.Info().Str("signal", sig.String()).Msg("Received signal, unmounting filesystem")

		if err := efs.Unmount(); err != nil {
			logger.Error().Err(err).Msg("Failed to unmount filesystem")
			return err
		}
		logger.Info().Msg("Filesystem unmounted successfully")
		return nil
	},
}

func init() {
	mountCmd.Flags().BoolP("umount", "u", false,
		"Unmount the mountpoint first if needed. Useful after a debugger did not exit cleanly.")
}

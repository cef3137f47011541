package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/devfs/pkg/fuse"
)

func newMountCmd(a *app) *cobra.Command {
	var allowOther, debug bool

	cmd := &cobra.Command{
		Use:   "mount [mountpoint]",
		Short: "Mount the catalog through FUSE",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			options := a.cfg.MountOptions()
			if len(args) == 1 {
				options.MountPoint = args[0]
			}
			if options.MountPoint == "" {
				return fmt.Errorf("mount point is required (argument or mount.mount_point)")
			}
			if cmd.Flags().Changed("allow-other") {
				options.AllowOther = allowOther
			}
			if cmd.Flags().Changed("debug") {
				options.Debug = debug
			}

			svc, err := a.setupService(nil)
			if err != nil {
				return err
			}
			defer svc.CloseAll()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return fuse.Mount(ctx, svc, options)
		},
	}

	cmd.Flags().BoolVar(&allowOther, "allow-other", false, "Allow other users to access the mount")
	cmd.Flags().BoolVar(&debug, "debug", false, "Log FUSE protocol messages")
	return cmd
}

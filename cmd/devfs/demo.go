package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/devfs/pkg/vfs"
)

func newDemoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Register the catalog with an in-process VFS and list it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := vfs.NewRegistry()
			svc, err := a.setupService(reg)
			if err != nil {
				return err
			}

			mountPath := a.cfg.Devfs.MountPath
			defer func() {
				svc.CloseAll()
				reg.Unregister(mountPath)
			}()

			entries, err := reg.ReadDir(mountPath)
			if err != nil {
				return fmt.Errorf("list %s: %w", mountPath, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s:\n", mountPath)
			for _, e := range entries {
				fmt.Fprintf(out, "  %-8d %-9s %s\n", e.Ino, vfs.EntryType(e.Type), e.NameString())
			}

			st := svc.Stats()
			fmt.Fprintf(out, "%d entries, %d open handles\n", st.Entries, st.OpenHandles)
			return nil
		},
	}
}

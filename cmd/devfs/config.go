package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/devfs/pkg/config"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print a sample configuration file",
		Args:  cobra.NoArgs,
		// the sample needs no loaded configuration
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), config.SampleConfig)
			return err
		},
	}
}

package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/devfs/pkg/client"
)

func newLsCmd(a *app) *cobra.Command {
	var serverAddr string
	var showStat bool

	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List a directory served by a devfs server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) == 1 {
				path = args[0]
			}

			clientConfig := a.cfg.ClientConfig()
			if serverAddr != "" {
				clientConfig.ServerAddress = serverAddr
			}
			c, err := client.NewClient(clientConfig)
			if err != nil {
				return err
			}
			defer c.Close()

			entries, err := c.ReadDirAll(cmd.Context(), path)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, e := range entries {
				fmt.Fprintf(w, "%d\t%s\t%s\n", e.Inode, e.Type, e.Name)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if !showStat {
				return nil
			}
			stats, err := c.Stat(cmd.Context())
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(stats))
			for k := range stats {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", k, stats[k])
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&serverAddr, "server", "s", "", "Server address (overrides client.address)")
	cmd.Flags().BoolVar(&showStat, "stat", false, "Print server counters after the listing")
	return cmd
}

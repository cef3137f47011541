package main

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/example/devfs/pkg/config"
	"github.com/example/devfs/pkg/devfs"
	"github.com/example/devfs/pkg/vfs"
)

// app carries what the root command loaded for its subcommands
type app struct {
	configPath string
	envFiles   []string
	logLevel   string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "devfs",
		Short: "Pseudo-filesystem directory service",
		Long: `devfs serves a catalog of virtual directory entries through the
open-directory / read-entry / close-directory protocol.

The catalog can be listed in-process (demo), served over gRPC (serve),
listed from a server (ls) or mounted through FUSE (mount).`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Configuration file (default devfs.yaml if present)")
	flags.StringSliceVar(&a.envFiles, "env-file", []string{".env"}, "Environment files to load")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newServeCmd(a),
		newMountCmd(a),
		newLsCmd(a),
		newDemoCmd(a),
		newConfigCmd(),
	)
	return rootCmd
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(a.envFiles...); err != nil {
		return err
	}
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := config.ConfigureLogging(cfg.LogLevel); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// setupService builds the directory service from the configuration and
// registers it with reg at the configured mount path
func (a *app) setupService(reg *vfs.Registry) (*devfs.Service, error) {
	entries, err := a.cfg.CatalogEntries()
	if err != nil {
		return nil, err
	}
	seeded, err := a.cfg.SeedEntries(afero.NewOsFs())
	if err != nil {
		return nil, err
	}
	entries = append(entries, seeded...)

	var opts []devfs.Option
	if a.cfg.Devfs.Root != "" {
		opts = append(opts, devfs.WithRoot(a.cfg.Devfs.Root))
	}
	svc := devfs.New(opts...)
	if err := svc.Setup(entries, reg, a.cfg.Devfs.MountPath); err != nil {
		return nil, err
	}
	return svc, nil
}

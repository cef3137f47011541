package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/example/devfs/pkg/server"
	"github.com/example/devfs/pkg/vfs"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over gRPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.setupService(vfs.NewRegistry())
			if err != nil {
				return err
			}

			serverConfig := a.cfg.ServerConfig()
			if listen != "" {
				serverConfig.ListenAddress = listen
			}
			dirServer, err := server.NewDirServer(serverConfig, svc)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, dirServer, func() {
				if n := svc.CloseAll(); n > 0 {
					log.Infof("Released %d directory handles left open by clients", n)
				}
			})
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Network address to listen on (overrides server.address)")
	return cmd
}

// runServer starts dirServer and stops it when ctx is done
func runServer(ctx context.Context, dirServer *server.DirServer, cleanup func()) error {
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- dirServer.Start()
	}()

	select {
	case err := <-serverErr:
		cleanup()
		return err
	case <-ctx.Done():
		log.Info("Shutting down...")
	}

	dirServer.Stop()
	err := <-serverErr
	cleanup()
	log.Info("Directory server stopped")
	return err
}

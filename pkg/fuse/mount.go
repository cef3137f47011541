package fuse

import (
	"context"
	"fmt"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	log "github.com/sirupsen/logrus"

	dfs "github.com/example/devfs/pkg/fs"
)

// MountOptions contains options for mounting the filesystem
type MountOptions struct {
	MountPoint string
	FSName     string
	ReadOnly   bool
	AllowOther bool
	Debug      bool
}

func (o MountOptions) fuseOptions() []fuse.MountOption {
	name := o.FSName
	if name == "" {
		name = "devfs"
	}
	opts := []fuse.MountOption{
		fuse.FSName(name),
		fuse.Subtype("devfs"),
	}
	if o.ReadOnly {
		opts = append(opts, fuse.ReadOnly())
	}
	if o.AllowOther {
		opts = append(opts, fuse.AllowOther())
	}
	return opts
}

// Mount mounts svc at options.MountPoint and serves it until ctx is done
// or the kernel connection ends, then unmounts.
func Mount(ctx context.Context, svc dfs.DirectoryService, options MountOptions) error {
	if options.MountPoint == "" {
		return fmt.Errorf("mount point is required")
	}

	if options.Debug {
		fuse.Debug = func(msg interface{}) {
			log.Debugf("FUSE: %v", msg)
		}
	}

	log.Infof("Mounting FUSE filesystem at %s", options.MountPoint)
	c, err := fuse.Mount(options.MountPoint, options.fuseOptions()...)
	if err != nil {
		return fmt.Errorf("failed to mount: %w", err)
	}
	defer c.Close()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Starting FUSE server")
		serveErr <- fs.Serve(c, NewDevFS(svc))
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("error serving filesystem: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Unmounting filesystem...")
	if err := Unmount(options.MountPoint); err != nil {
		log.Warnf("failed to unmount cleanly: %v", err)
		return err
	}
	if err := <-serveErr; err != nil {
		log.Warnf("FUSE server exited: %v", err)
	}
	return nil
}

// Unmount unmounts the filesystem
func Unmount(mountPoint string) error {
	return fuse.Unmount(mountPoint)
}

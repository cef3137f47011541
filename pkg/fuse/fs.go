// Package fuse exposes a directory service through a FUSE mount.
package fuse

import (
	"bazil.org/fuse/fs"

	dfs "github.com/example/devfs/pkg/fs"
)

// DevFS implements the FUSE filesystem interface
type DevFS struct {
	svc dfs.DirectoryService
}

var _ fs.FS = (*DevFS)(nil)

// NewDevFS creates a FUSE filesystem backed by svc
func NewDevFS(svc dfs.DirectoryService) *DevFS {
	return &DevFS{svc: svc}
}

// Root returns the root directory of the filesystem
func (d *DevFS) Root() (fs.Node, error) {
	return &Dir{svc: d.svc}, nil
}

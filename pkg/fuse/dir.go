package fuse

import (
	"context"
	"errors"
	"os"
	"syscall"
	"time"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	log "github.com/sirupsen/logrus"

	dfs "github.com/example/devfs/pkg/fs"
	"github.com/example/devfs/pkg/vfs"
)

// Dir represents the root directory of the filesystem
type Dir struct {
	svc dfs.DirectoryService
}

var (
	_ fs.Node               = (*Dir)(nil)
	_ fs.NodeStringLookuper = (*Dir)(nil)
	_ fs.NodeOpener         = (*Dir)(nil)
)

// Attr sets the attributes of the directory
func (d *Dir) Attr(ctx context.Context, attr *fuse.Attr) error {
	attr.Mode = os.ModeDir | 0555
	attr.Mtime = time.Now()
	return nil
}

// Lookup looks up a specific entry in the directory
func (d *Dir) Lookup(ctx context.Context, name string) (fs.Node, error) {
	e, err := d.svc.Lookup(name)
	if err != nil {
		return nil, toErrno(err)
	}
	return &File{entry: e}, nil
}

// Open starts a directory scan. Each open gets its own handle and sees the
// entries present at that moment.
func (d *Dir) Open(ctx context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fs.Handle, error) {
	if !req.Dir {
		return nil, fuse.Errno(syscall.EISDIR)
	}
	id, err := d.svc.OpenDir("/")
	if err != nil {
		return nil, toErrno(err)
	}
	log.Debugf("FUSE opendir: handle %d", id)
	return &dirHandle{svc: d.svc, id: id}, nil
}

// toErrno maps service errors to FUSE errno values. Errors with no errno
// of their own become EIO.
func toErrno(err error) error {
	status := vfs.MapErrorToStatus(err)
	if status == vfs.StatusFailure && !errors.Is(err, syscall.EPERM) {
		return fuse.EIO
	}
	return fuse.Errno(syscall.Errno(-status))
}

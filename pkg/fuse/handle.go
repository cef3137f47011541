package fuse

import (
	"context"
	"sync"
	"syscall"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	log "github.com/sirupsen/logrus"

	dfs "github.com/example/devfs/pkg/fs"
	"github.com/example/devfs/pkg/vfs"
)

// dirHandle streams one directory scan to the kernel.
//
// The kernel asks for entries in buffers of req.Size bytes. An entry that
// does not fit is kept in pending and sent first on the next read. An error
// hit after some entries were encoded is kept in err and returned on the
// next read, so it is never mistaken for the end of the directory.
type dirHandle struct {
	svc dfs.DirectoryService
	id  dfs.HandleID

	mu      sync.Mutex
	pending *dfs.Entry
	err     error
}

var (
	_ fs.HandleReader   = (*dirHandle)(nil)
	_ fs.HandleReleaser = (*dirHandle)(nil)
)

// Read fills resp with as many entries as fit into req.Size bytes.
// An empty response tells the kernel the directory is exhausted.
func (h *dirHandle) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	if !req.Dir {
		return fuse.Errno(syscall.EISDIR)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.err != nil {
		err := h.err
		h.err = nil
		return toErrno(err)
	}

	data := resp.Data[:0]
	for {
		var e dfs.Entry
		if h.pending != nil {
			e = *h.pending
			h.pending = nil
		} else {
			more, err := h.svc.ReadDir(h.id, &e)
			if err != nil {
				if len(data) == 0 {
					return toErrno(err)
				}
				h.err = err
				break
			}
			if !more {
				break
			}
		}

		next := fuse.AppendDirent(data, fuse.Dirent{
			Inode: e.Inode,
			Type:  direntType(e.Type),
			Name:  e.Name,
		})
		if len(next) > req.Size {
			if len(data) == 0 {
				log.Warnf("FUSE readdir: buffer of %d bytes too small for %q", req.Size, e.Name)
				h.pending = &e
				return fuse.Errno(syscall.EINVAL)
			}
			h.pending = &e
			break
		}
		data = next
	}

	resp.Data = data
	return nil
}

// Release closes the directory scan
func (h *dirHandle) Release(ctx context.Context, req *fuse.ReleaseRequest) error {
	if err := h.svc.CloseDir(h.id); err != nil {
		log.Errorf("FUSE releasedir: handle %d: %v", h.id, err)
		return toErrno(err)
	}
	return nil
}

func direntType(t dfs.EntryType) fuse.DirentType {
	return fuse.DirentType(vfs.TypeTag(t))
}

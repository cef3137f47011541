package fuse

import (
	"context"
	"os"
	"time"

	"bazil.org/fuse"

	dfs "github.com/example/devfs/pkg/fs"
)

// File represents a catalog entry. It has attributes but no content.
type File struct {
	entry dfs.Entry
}

// Attr sets the attributes of the file
func (f *File) Attr(ctx context.Context, attr *fuse.Attr) error {
	attr.Inode = f.entry.Inode
	attr.Mode = fileMode(f.entry.Type)
	attr.Size = 0
	attr.Mtime = time.Now()
	return nil
}

func fileMode(t dfs.EntryType) os.FileMode {
	switch t {
	case dfs.EntryTypeDirectory:
		return os.ModeDir | 0555
	case dfs.EntryTypeSymlink:
		return os.ModeSymlink | 0444
	case dfs.EntryTypeChar:
		return os.ModeDevice | os.ModeCharDevice | 0444
	case dfs.EntryTypeBlock:
		return os.ModeDevice | 0444
	case dfs.EntryTypeFIFO:
		return os.ModeNamedPipe | 0444
	case dfs.EntryTypeSocket:
		return os.ModeSocket | 0444
	default:
		return 0444
	}
}

// Package local builds catalog entries from a directory on the host.
// Only names, inode numbers and types are read; file content is never opened.
package local

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/example/devfs/pkg/fs"
)

// DefaultInodeBase is the first synthetic inode handed out by a Scanner.
const DefaultInodeBase = 1000

// Options controls how a Scanner numbers entries.
type Options struct {
	// InodeBase is the first synthetic inode; zero means DefaultInodeBase
	InodeBase uint64

	// HostInodes keeps the host inode numbers where the filesystem reports
	// them. Hard links would repeat an inode and are skipped.
	HostInodes bool
}

// Scanner lists one host directory.
type Scanner struct {
	fsys    afero.Fs
	root    string
	options Options
}

// NewScanner creates a scanner for dir on fsys.
func NewScanner(fsys afero.Fs, dir string, options Options) (*Scanner, error) {
	info, err := fsys.Stat(dir)
	if err != nil {
		return nil, fs.NewError("scan", dir, mapOSError(err))
	}
	if !info.IsDir() {
		return nil, fs.NewError("scan", dir, fs.ErrNotDir)
	}
	if options.InodeBase == 0 {
		options.InodeBase = DefaultInodeBase
	}

	return &Scanner{
		fsys:    fsys,
		root:    filepath.Clean(dir),
		options: options,
	}, nil
}

// Scan returns one entry per child of the directory, sorted by name.
// Names that cannot be catalog entries are skipped.
func (s *Scanner) Scan() ([]fs.Entry, error) {
	infos, err := afero.ReadDir(s.fsys, s.root)
	if err != nil {
		return nil, fs.NewError("scan", s.root, mapOSError(err))
	}

	entries := make([]fs.Entry, 0, len(infos))
	seen := make(map[uint64]bool, len(infos))
	next := s.options.InodeBase

	for _, info := range infos {
		name := info.Name()
		if err := fs.ValidateName(name); err != nil {
			log.WithField("dir", s.root).Warnf("scan: skipping %q: %v", name, err)
			continue
		}

		inode, ok := hostInode(info)
		if !s.options.HostInodes || !ok {
			for seen[next] {
				next++
			}
			inode = next
			next++
		} else if seen[inode] {
			log.WithField("dir", s.root).Warnf("scan: skipping %q: inode %d already listed", name, inode)
			continue
		}
		seen[inode] = true

		entries = append(entries, fs.Entry{
			Inode: inode,
			Type:  entryType(info.Mode()),
			Name:  name,
		})
	}
	return entries, nil
}

// hostInode returns the inode the host filesystem reports, if any
func hostInode(info os.FileInfo) (uint64, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok || stat == nil || stat.Ino == 0 {
		return 0, false
	}
	return uint64(stat.Ino), true
}

// entryType converts a file mode to an entry type
func entryType(mode os.FileMode) fs.EntryType {
	switch {
	case mode.IsDir():
		return fs.EntryTypeDirectory
	case mode&os.ModeSymlink != 0:
		return fs.EntryTypeSymlink
	case mode&os.ModeDevice != 0:
		if mode&os.ModeCharDevice != 0 {
			return fs.EntryTypeChar
		}
		return fs.EntryTypeBlock
	case mode&os.ModeNamedPipe != 0:
		return fs.EntryTypeFIFO
	case mode&os.ModeSocket != 0:
		return fs.EntryTypeSocket
	default:
		return fs.EntryTypeRegular
	}
}

// mapOSError maps os errors to fs errors
func mapOSError(err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fs.ErrNotExist
	case errors.Is(err, syscall.ENOTDIR):
		return fs.ErrNotDir
	default:
		return err
	}
}

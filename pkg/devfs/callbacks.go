package devfs

import (
	"github.com/example/devfs/pkg/fs"
	"github.com/example/devfs/pkg/vfs"
)

// Callbacks returns the callback table that exposes s to a vfs.Registry.
// The opaque directory reference handed to the host is the handle id.
func (s *Service) Callbacks() *vfs.CallbackTable {
	return &vfs.CallbackTable{
		Flags:    vfs.FlagDefault,
		Opendir:  s.vfsOpendir,
		ReaddirR: s.vfsReaddirR,
		Closedir: s.vfsClosedir,
	}
}

func (s *Service) vfsOpendir(path string) (uintptr, int32) {
	id, err := s.OpenDir(path)
	if err != nil {
		return 0, vfs.MapErrorToStatus(err)
	}
	return uintptr(id), vfs.StatusOK
}

func (s *Service) vfsReaddirR(dir uintptr, entry *vfs.Dirent) (bool, int32) {
	if entry == nil {
		return false, vfs.MapErrorToStatus(fs.ErrInvalidName)
	}

	var e fs.Entry
	more, err := s.ReadDir(fs.HandleID(dir), &e)
	if err != nil {
		return false, vfs.MapErrorToStatus(err)
	}
	if !more {
		return false, vfs.StatusOK
	}
	if err := entry.Fill(e); err != nil {
		return false, vfs.MapErrorToStatus(err)
	}
	return true, vfs.StatusOK
}

func (s *Service) vfsClosedir(dir uintptr) int32 {
	return vfs.MapErrorToStatus(s.CloseDir(fs.HandleID(dir)))
}

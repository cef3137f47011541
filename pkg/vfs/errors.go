// Package vfs is the host side of the directory protocol: a registry of
// mount points, each served by a callback table, with POSIX-style
// opendir/readdir_r/closedir entry points and errno status codes.
package vfs

import (
	"errors"
	"os"
	"syscall"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/example/devfs/pkg/fs"
)

// Status codes follow the host convention: zero is success and negative
// values are negated errno numbers. StatusFailure is the generic failure
// code; it shares its value with -EPERM and decodes as EPERM.
const (
	StatusOK      int32 = 0
	StatusFailure int32 = -1
)

func errnoStatus(errno syscall.Errno) int32 {
	return -int32(errno)
}

// MapErrorToStatus converts a Go error to a host status code
func MapErrorToStatus(err error) int32 {
	if err == nil {
		return StatusOK
	}

	// Map directory protocol errors
	if errors.Is(err, fs.ErrInvalidHandle) {
		return errnoStatus(unix.EBADF)
	} else if errors.Is(err, fs.ErrEntryVanished) {
		return errnoStatus(unix.ESTALE)
	} else if errors.Is(err, fs.ErrStale) {
		return errnoStatus(unix.ESTALE)
	} else if errors.Is(err, fs.ErrHandleTableCorruption) {
		return errnoStatus(unix.EIO)
	} else if errors.Is(err, fs.ErrDuplicateInode) {
		return errnoStatus(unix.EEXIST)
	} else if errors.Is(err, fs.ErrDuplicateName) {
		return errnoStatus(unix.EEXIST)
	} else if errors.Is(err, fs.ErrNotExist) {
		return errnoStatus(unix.ENOENT)
	} else if errors.Is(err, fs.ErrNameTooLong) {
		return errnoStatus(unix.ENAMETOOLONG)
	} else if errors.Is(err, fs.ErrInvalidName) {
		return errnoStatus(unix.EINVAL)
	} else if errors.Is(err, fs.ErrNotDir) {
		return errnoStatus(unix.ENOTDIR)
	}

	// Errno values pass through before the os.Err* checks, which would
	// otherwise fold EPERM into EACCES
	var errno syscall.Errno
	if errors.As(err, &errno) && errno != 0 {
		return errnoStatus(errno)
	}

	// Map standard Go errors
	if errors.Is(err, os.ErrNotExist) {
		return errnoStatus(unix.ENOENT)
	} else if errors.Is(err, os.ErrExist) {
		return errnoStatus(unix.EEXIST)
	} else if errors.Is(err, os.ErrPermission) {
		return errnoStatus(unix.EACCES)
	}

	// Default for unrecognized errors
	LogUnknownError(err)
	return StatusFailure
}

// StatusToError converts a host status code back to an error.
// Codes produced for the directory protocol errors map back to them.
func StatusToError(op string, status int32) error {
	if status >= 0 {
		return nil
	}
	var err error
	switch errno := syscall.Errno(-status); errno {
	case unix.EBADF:
		err = fs.ErrInvalidHandle
	case unix.ESTALE:
		err = fs.ErrEntryVanished
	case unix.EIO:
		err = fs.ErrHandleTableCorruption
	case unix.ENOENT:
		err = fs.ErrNotExist
	case unix.ENAMETOOLONG:
		err = fs.ErrNameTooLong
	case unix.ENOTDIR:
		err = fs.ErrNotDir
	default:
		err = errno
	}
	return fs.NewError(op, "", err)
}

// LogUnknownError logs detailed information about unrecognized errors
func LogUnknownError(err error) {
	log.Warnf("Unknown error type: %T, message: %v", err, err)
}

// pkg/fs/errors.go
package fs

import (
	"errors"
	"fmt"
)

// Error kinds reported by the catalog, the handle table and the shim.
// The host adapters map them to their own status conventions.
var (
	ErrInvalidHandle         = errors.New("invalid directory handle")
	ErrEntryVanished         = errors.New("directory entry vanished from catalog")
	ErrHandleTableCorruption = errors.New("directory handle table corrupted")
	ErrDuplicateInode        = errors.New("duplicate inode")
	ErrDuplicateName         = errors.New("duplicate entry name")
	ErrNotExist              = errors.New("file does not exist")
	ErrInvalidName           = errors.New("invalid name")
	ErrNameTooLong           = errors.New("file name too long")
	ErrStale                 = errors.New("stale directory handle")
	ErrNotDir                = errors.New("not a directory")
)

// FSError represents a filesystem error with additional context.
type FSError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *FSError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *FSError) Unwrap() error {
	return e.Err
}

// NewError creates a new FSError.
func NewError(op, path string, err error) error {
	return &FSError{
		Op:   op,
		Path: path,
		Err:  err,
	}
}

package client

import (
	"context"

	"github.com/example/devfs/pkg/fs"
)

// DirClient defines the directory scan operations of a remote service
type DirClient interface {
	// OpenDir starts a scan and returns the opaque handle reference
	OpenDir(ctx context.Context, path string) ([]byte, error)

	// ReadDir returns the next entry of a scan
	// more is false once the scan is exhausted
	ReadDir(ctx context.Context, handle []byte) (entry fs.Entry, more bool, err error)

	// CloseDir ends a scan
	CloseDir(ctx context.Context, handle []byte) error

	// ReadDirAll opens, drains and closes a scan of path
	ReadDirAll(ctx context.Context, path string) ([]fs.Entry, error)

	// Stat returns the server counters
	Stat(ctx context.Context) (map[string]interface{}, error)

	// Close closes the client connection and releases all resources
	Close() error
}

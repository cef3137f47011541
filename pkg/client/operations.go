package client

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/example/devfs/pkg/fs"
	"github.com/example/devfs/pkg/vfs"
)

// OpenDir starts a scan of path and returns its handle reference
func (c *Client) OpenDir(ctx context.Context, path string) ([]byte, error) {
	var handle []byte
	err := c.callWithRetry(ctx, "OpenDir", func(ctx context.Context) error {
		resp, err := c.dirClient.OpenDir(ctx, wrapperspb.String(path))
		if err != nil {
			return err
		}
		handle = resp.GetValue()
		return nil
	})
	if err != nil {
		return nil, StatusToError("OpenDir", err)
	}
	if len(handle) != fs.HandleRefSize {
		return nil, fmt.Errorf("OpenDir: handle of %d bytes: %w", len(handle), ErrBadResponse)
	}
	return handle, nil
}

// ReadDir returns the next entry of the scan. It is not retried.
func (c *Client) ReadDir(ctx context.Context, handle []byte) (fs.Entry, bool, error) {
	var data []byte
	err := c.call(ctx, func(ctx context.Context) error {
		resp, err := c.dirClient.ReadDir(ctx, wrapperspb.Bytes(handle))
		if err != nil {
			return err
		}
		data = resp.GetValue()
		return nil
	})
	if err != nil {
		return fs.Entry{}, false, StatusToError("ReadDir", err)
	}
	if len(data) == 0 {
		return fs.Entry{}, false, nil
	}

	var d vfs.Dirent
	if err := d.UnmarshalBinary(data); err != nil {
		return fs.Entry{}, false, fmt.Errorf("ReadDir: %v: %w", err, ErrBadResponse)
	}
	return d.Entry(), true, nil
}

// CloseDir ends the scan. It is not retried: a retry after a lost
// response would report an unknown handle.
func (c *Client) CloseDir(ctx context.Context, handle []byte) error {
	err := c.call(ctx, func(ctx context.Context) error {
		_, err := c.dirClient.CloseDir(ctx, wrapperspb.Bytes(handle))
		return err
	})
	return StatusToError("CloseDir", err)
}

// ReadDirAll lists path. Vanished entries are skipped; the handle is
// always closed.
func (c *Client) ReadDirAll(ctx context.Context, path string) (entries []fs.Entry, err error) {
	if c.listCache != nil {
		if cached, ok := c.listCache.Get(path); ok {
			return cached, nil
		}
	}

	handle, err := c.OpenDir(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := c.CloseDir(ctx, handle); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for {
		entry, more, err := c.ReadDir(ctx, handle)
		if errors.Is(err, fs.ErrEntryVanished) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
		entries = append(entries, entry)
	}

	if c.listCache != nil {
		c.listCache.Store(path, entries)
	}
	return entries, nil
}

// Stat returns the server counters
func (c *Client) Stat(ctx context.Context) (map[string]interface{}, error) {
	var fields map[string]interface{}
	err := c.callWithRetry(ctx, "Stat", func(ctx context.Context) error {
		resp, err := c.dirClient.Stat(ctx, &emptypb.Empty{})
		if err != nil {
			return err
		}
		fields = resp.AsMap()
		return nil
	})
	if err != nil {
		return nil, StatusToError("Stat", err)
	}
	return fields, nil
}

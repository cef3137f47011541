// Package catalog holds the ordered set of virtual directory entries.
package catalog

import (
	"fmt"

	iradix "github.com/hashicorp/go-immutable-radix"

	"github.com/example/devfs/pkg/fs"
)

// Catalog is an insertion-ordered collection of entries keyed by inode.
// Inodes and names are unique. A Catalog is not safe for concurrent use;
// the owning service serializes access.
type Catalog struct {
	// order holds inodes in insertion order
	order []uint64

	// entries maps inode to entry
	entries map[uint64]fs.Entry

	// names indexes entry names to inodes
	names *iradix.Tree
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		entries: make(map[uint64]fs.Entry),
		names:   iradix.New(),
	}
}

// Register appends e to the catalog. It fails without modifying the
// catalog if the inode or the name is already present, or if the name
// does not fit a directory entry buffer.
func (c *Catalog) Register(e fs.Entry) error {
	if err := fs.ValidateName(e.Name); err != nil {
		return fs.NewError("register", e.Name, unwrapKind(err))
	}
	if _, ok := c.entries[e.Inode]; ok {
		return fs.NewError("register", fmt.Sprintf("inode %d", e.Inode), fs.ErrDuplicateInode)
	}
	if _, ok := c.names.Get([]byte(e.Name)); ok {
		return fs.NewError("register", e.Name, fs.ErrDuplicateName)
	}

	names, _, _ := c.names.Insert([]byte(e.Name), e.Inode)
	c.names = names
	c.entries[e.Inode] = e
	c.order = append(c.order, e.Inode)
	return nil
}

// Remove deletes the entry with the given inode.
// Handles opened before the removal report ErrEntryVanished when they reach it.
func (c *Catalog) Remove(inode uint64) error {
	e, ok := c.entries[inode]
	if !ok {
		return fs.NewError("remove", fmt.Sprintf("inode %d", inode), fs.ErrNotExist)
	}

	names, _, _ := c.names.Delete([]byte(e.Name))
	c.names = names
	delete(c.entries, inode)
	for i, ino := range c.order {
		if ino == inode {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Lookup returns the entry with the given inode.
func (c *Catalog) Lookup(inode uint64) (fs.Entry, bool) {
	e, ok := c.entries[inode]
	return e, ok
}

// LookupName returns the entry with the given name.
func (c *Catalog) LookupName(name string) (fs.Entry, bool) {
	v, ok := c.names.Get([]byte(name))
	if !ok {
		return fs.Entry{}, false
	}
	return c.Lookup(v.(uint64))
}

// Snapshot returns the inodes in insertion order.
// The returned slice is owned by the caller.
func (c *Catalog) Snapshot() []uint64 {
	snapshot := make([]uint64, len(c.order))
	copy(snapshot, c.order)
	return snapshot
}

// Entries returns all entries in insertion order.
func (c *Catalog) Entries() []fs.Entry {
	out := make([]fs.Entry, len(c.order))
	for i, ino := range c.order {
		out[i] = c.entries[ino]
	}
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.order)
}

func unwrapKind(err error) error {
	if fsErr, ok := err.(*fs.FSError); ok {
		return fsErr.Err
	}
	return err
}

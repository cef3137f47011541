package vfs

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// FlagDefault is the only callback table flag currently defined.
const FlagDefault = 0

// CallbackTable is the set of directory callbacks a filesystem installs
// at a mount point. Paths passed to the callbacks are relative to the
// mount point and always start with "/".
type CallbackTable struct {
	Flags int

	// Opendir returns an opaque directory reference, or a negative status.
	Opendir func(path string) (dir uintptr, status int32)

	// ReaddirR fills entry with the next entry of dir. It returns more=false
	// with a zero status once the directory is exhausted.
	ReaddirR func(dir uintptr, entry *Dirent) (more bool, status int32)

	// Closedir releases dir.
	Closedir func(dir uintptr) int32
}

func (t *CallbackTable) validate() error {
	if t == nil {
		return fmt.Errorf("nil callback table")
	}
	if t.Opendir == nil || t.ReaddirR == nil || t.Closedir == nil {
		return fmt.Errorf("callback table must provide Opendir, ReaddirR and Closedir")
	}
	return nil
}

// DIR is an open directory stream returned by Registry.Opendir.
type DIR struct {
	// Ref is the opaque reference returned by the mount's Opendir
	Ref uintptr

	mount *mount
}

type mount struct {
	prefix string
	table  *CallbackTable
}

// Registry dispatches directory operations to registered filesystems.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	mounts map[string]*mount
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		mounts: make(map[string]*mount),
	}
}

// Register installs table at mountPath. mountPath must be absolute, clean,
// not the root and not already registered.
func (r *Registry) Register(mountPath string, table *CallbackTable) int32 {
	if err := table.validate(); err != nil {
		log.Errorf("Register(%s): %v", mountPath, err)
		return errnoStatus(unix.EINVAL)
	}
	if mountPath == "/" || !strings.HasPrefix(mountPath, "/") || path.Clean(mountPath) != mountPath {
		log.Errorf("Register(%s): invalid mount path", mountPath)
		return errnoStatus(unix.EINVAL)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.mounts[mountPath]; ok {
		log.Errorf("Register(%s): mount path already registered", mountPath)
		return errnoStatus(unix.EEXIST)
	}
	r.mounts[mountPath] = &mount{prefix: mountPath, table: table}
	log.Infof("Registered filesystem at %s", mountPath)
	return StatusOK
}

// Unregister removes the filesystem at mountPath.
func (r *Registry) Unregister(mountPath string) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.mounts[mountPath]; !ok {
		return errnoStatus(unix.EINVAL)
	}
	delete(r.mounts, mountPath)
	return StatusOK
}

// Mounts returns the registered mount paths in lexical order.
func (r *Registry) Mounts() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.mounts))
	for p := range r.mounts {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// resolve finds the mount with the longest prefix of p.
func (r *Registry) resolve(p string) (*mount, string, bool) {
	p = path.Clean("/" + p)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *mount
	for prefix, m := range r.mounts {
		if p != prefix && !strings.HasPrefix(p, prefix+"/") {
			continue
		}
		if best == nil || len(prefix) > len(best.prefix) {
			best = m
		}
	}
	if best == nil {
		return nil, "", false
	}
	rel := strings.TrimPrefix(p, best.prefix)
	if rel == "" {
		rel = "/"
	}
	return best, rel, true
}

// Opendir opens the directory at p through the owning filesystem.
func (r *Registry) Opendir(p string) (*DIR, int32) {
	m, rel, ok := r.resolve(p)
	if !ok {
		return nil, errnoStatus(unix.ENOENT)
	}
	ref, status := m.table.Opendir(rel)
	if status != StatusOK {
		return nil, status
	}
	return &DIR{Ref: ref, mount: m}, StatusOK
}

// ReaddirR reads the next entry of dir into entry. more is false once the
// directory is exhausted.
func (r *Registry) ReaddirR(dir *DIR, entry *Dirent) (more bool, status int32) {
	if dir == nil || dir.mount == nil {
		return false, errnoStatus(unix.EBADF)
	}
	return dir.mount.table.ReaddirR(dir.Ref, entry)
}

// Closedir closes dir.
func (r *Registry) Closedir(dir *DIR) int32 {
	if dir == nil || dir.mount == nil {
		return errnoStatus(unix.EBADF)
	}
	return dir.mount.table.Closedir(dir.Ref)
}

// ReadDirNames lists the directory at p using the open/read/close protocol.
func (r *Registry) ReadDirNames(p string) ([]string, error) {
	entries, err := r.ReadDir(p)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.NameString()
	}
	return names, nil
}

// ReadDir returns every entry of the directory at p.
func (r *Registry) ReadDir(p string) ([]Dirent, error) {
	dir, status := r.Opendir(p)
	if status != StatusOK {
		return nil, StatusToError("opendir "+p, status)
	}

	var out []Dirent
	for {
		var ent Dirent
		more, status := r.ReaddirR(dir, &ent)
		if status != StatusOK {
			r.Closedir(dir)
			return nil, StatusToError("readdir "+p, status)
		}
		if !more {
			break
		}
		out = append(out, ent)
	}

	if status := r.Closedir(dir); status != StatusOK {
		return nil, StatusToError("closedir "+p, status)
	}
	return out, nil
}

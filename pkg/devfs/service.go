// Package devfs implements the directory protocol of the pseudo-filesystem:
// an entry catalog, a table of open directory scans and the callback shim
// that host frameworks drive.
//
// All state lives in a Service and is guarded by one mutex, held only for
// in-memory bookkeeping. Host adapters close over a shared *Service.
package devfs

import (
	"errors"
	"fmt"
	"path"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/example/devfs/pkg/catalog"
	"github.com/example/devfs/pkg/fs"
	"github.com/example/devfs/pkg/handles"
	"github.com/example/devfs/pkg/vfs"
)

// DefaultMountPath is where Setup installs the callback table when no
// mount path is given.
const DefaultMountPath = "/dev"

// ErrAlreadySetup is returned by a second call to Setup.
var ErrAlreadySetup = errors.New("devfs: already set up")

// DefaultEntries is the catalog installed when no entries are configured.
func DefaultEntries() []fs.Entry {
	return []fs.Entry{
		{Inode: 1, Type: fs.EntryTypeRegular, Name: "test"},
	}
}

// Stats is a point-in-time view of the service.
type Stats struct {
	Entries     int
	OpenHandles int
	Opened      uint64
	Reads       uint64
	Closed      uint64
	Errors      uint64
}

// Service owns the catalog and the handle table.
type Service struct {
	mu      sync.Mutex
	catalog *catalog.Catalog
	handles *handles.Table
	setup   bool
	stats   Stats

	root   string
	logger log.FieldLogger
}

var _ fs.DirectoryService = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default is the logrus standard logger.
func WithLogger(l log.FieldLogger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithRoot sets an extra path that OpenDir accepts as the directory root,
// in addition to "" and "/".
func WithRoot(root string) Option {
	return func(s *Service) {
		s.root = path.Clean("/" + root)
	}
}

// New creates a Service with an empty catalog.
func New(opts ...Option) *Service {
	s := &Service{
		catalog: catalog.New(),
		handles: handles.NewTable(),
		root:    "/",
		logger:  log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Setup populates the catalog with entries and, if reg is non-nil, installs
// the callback table at mountPath. It may be called once. On failure the
// catalog and the registry are left as they were.
func (s *Service) Setup(entries []fs.Entry, reg *vfs.Registry, mountPath string) error {
	if mountPath == "" {
		mountPath = DefaultMountPath
	}

	s.mu.Lock()
	if s.setup {
		s.mu.Unlock()
		return ErrAlreadySetup
	}
	if _, err := s.merge(entries); err != nil {
		s.mu.Unlock()
		return err
	}
	s.setup = true
	s.mu.Unlock()

	if reg != nil {
		if status := reg.Register(mountPath, s.Callbacks()); status != vfs.StatusOK {
			s.mu.Lock()
			s.setup = false
			s.mu.Unlock()
			return fmt.Errorf("setup: register %s: %w", mountPath, vfs.StatusToError("register", status))
		}
	}

	// entries registered while the table was being installed are kept
	s.mu.Lock()
	next, err := s.merge(entries)
	if err == nil {
		s.catalog = next
	} else {
		s.setup = false
	}
	s.mu.Unlock()

	if err != nil {
		if reg != nil {
			reg.Unregister(mountPath)
		}
		return err
	}

	s.logger.WithFields(log.Fields{
		"mount":   mountPath,
		"entries": len(entries),
	}).Info("devfs set up")
	return nil
}

// merge returns a new catalog holding the current entries followed by
// entries. Callers hold s.mu.
func (s *Service) merge(entries []fs.Entry) (*catalog.Catalog, error) {
	next := catalog.New()
	for _, e := range s.catalog.Entries() {
		if err := next.Register(e); err != nil {
			return nil, err
		}
	}
	for _, e := range entries {
		if err := next.Register(e); err != nil {
			return nil, fmt.Errorf("setup: %w", err)
		}
	}
	return next, nil
}

// Register adds an entry to the catalog. Open handles do not see it.
func (s *Service) Register(e fs.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Register(e)
}

// Remove deletes an entry from the catalog. Open handles whose snapshot
// still holds it report fs.ErrEntryVanished when they reach it.
func (s *Service) Remove(inode uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Remove(inode)
}

// Entries returns the catalog in insertion order.
func (s *Service) Entries() []fs.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Entries()
}

// OpenDir starts a scan of the root directory.
func (s *Service) OpenDir(p string) (fs.HandleID, error) {
	if !s.isRoot(p) {
		s.countError()
		return 0, fs.NewError("opendir", p, fs.ErrNotExist)
	}

	s.mu.Lock()
	id := s.handles.Open(s.catalog.Snapshot())
	s.stats.Opened++
	open := s.handles.Len()
	s.mu.Unlock()

	s.logger.WithFields(log.Fields{
		"path":   p,
		"handle": id,
		"open":   open,
	}).Debug("opendir")
	return id, nil
}

// ReadDir stores the next entry of scan id in out.
func (s *Service) ReadDir(id fs.HandleID, out *fs.Entry) (bool, error) {
	if out == nil {
		s.countError()
		return false, fs.NewError("readdir", "nil entry", fs.ErrInvalidName)
	}

	s.mu.Lock()
	inode, ok, err := s.handles.Advance(id)
	var e fs.Entry
	var found bool
	if err == nil && ok {
		e, found = s.catalog.Lookup(inode)
		s.stats.Reads++
	}
	if err != nil || (ok && !found) {
		s.stats.Errors++
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.WithField("handle", id).Warnf("readdir: %v", err)
		return false, err
	}
	if !ok {
		return false, nil
	}
	if !found {
		err := fs.NewError("readdir", fmt.Sprintf("inode %d", inode), fs.ErrEntryVanished)
		s.logger.WithFields(log.Fields{
			"handle": id,
			"inode":  inode,
		}).Error("readdir: entry vanished from catalog")
		return false, err
	}

	*out = e
	return true, nil
}

// CloseDir ends scan id.
func (s *Service) CloseDir(id fs.HandleID) error {
	s.mu.Lock()
	err := s.handles.Close(id)
	if err == nil {
		s.stats.Closed++
	} else {
		s.stats.Errors++
	}
	open := s.handles.Len()
	s.mu.Unlock()

	if err != nil {
		s.logger.WithField("handle", id).Warnf("closedir: %v", err)
		return err
	}
	s.logger.WithFields(log.Fields{
		"handle": id,
		"open":   open,
	}).Debug("closedir")
	return nil
}

// Lookup finds an entry by name.
func (s *Service) Lookup(name string) (fs.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.catalog.LookupName(name)
	if !ok {
		return fs.Entry{}, fs.NewError("lookup", name, fs.ErrNotExist)
	}
	return e, nil
}

// HandleState returns the scan state of handle id.
func (s *Service) HandleState(id fs.HandleID) (handles.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handles.State(id)
}

// CloseAll closes every open scan and returns how many there were.
func (s *Service) CloseAll() int {
	s.mu.Lock()
	unread := make(map[fs.HandleID]int)
	for _, id := range s.handles.IDs() {
		if left, err := s.handles.Remaining(id); err == nil && left > 0 {
			unread[id] = left
		}
	}
	n := s.handles.CloseAll()
	s.stats.Closed += uint64(n)
	s.mu.Unlock()

	for id, left := range unread {
		s.logger.WithField("handle", uint64(id)).Debugf("Closed with %d entries unread", left)
	}
	if n > 0 {
		s.logger.Infof("Closed %d open directory handles", n)
	}
	return n
}

// Stats returns the current counters.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stats
	st.Entries = s.catalog.Len()
	st.OpenHandles = s.handles.Len()
	return st
}

func (s *Service) countError() {
	s.mu.Lock()
	s.stats.Errors++
	s.mu.Unlock()
}

func (s *Service) isRoot(p string) bool {
	if p == "" {
		return true
	}
	clean := path.Clean("/" + p)
	return clean == "/" || clean == s.root
}

package fs

// DirectoryService is the directory enumeration protocol that host adapters
// (the VFS callback table, FUSE, gRPC) drive. A scan is
// OpenDir, zero or more ReadDir calls, then CloseDir.
type DirectoryService interface {
	// OpenDir starts a scan of the directory at path and returns its handle.
	// The handle iterates a snapshot of the entries present at open time.
	OpenDir(path string) (HandleID, error)

	// ReadDir stores the next entry of the scan in out.
	// It returns false with a nil error once the scan is exhausted, and keeps
	// doing so on every further call until the handle is closed.
	// ErrEntryVanished reports an entry removed after the scan was opened.
	ReadDir(id HandleID, out *Entry) (bool, error)

	// CloseDir ends the scan and releases the handle.
	// Closing an unknown or already closed handle returns ErrInvalidHandle.
	CloseDir(id HandleID) error

	// Lookup finds an entry by name in the root directory.
	Lookup(name string) (Entry, error)
}

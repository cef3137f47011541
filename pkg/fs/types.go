package fs

import (
	"fmt"
	"strings"
)

// NameMax is the longest entry name, in bytes, that fits the 256-byte
// NUL-terminated name buffer handed to the host framework.
const NameMax = 255

// EntryType represents the type of a catalog entry.
type EntryType uint8

const (
	// EntryTypeRegular is a regular file
	EntryTypeRegular EntryType = iota
	// EntryTypeDirectory is a directory
	EntryTypeDirectory
	// EntryTypeSymlink is a symbolic link
	EntryTypeSymlink
	// EntryTypeBlock is a block special device
	EntryTypeBlock
	// EntryTypeChar is a character special device
	EntryTypeChar
	// EntryTypeFIFO is a named pipe
	EntryTypeFIFO
	// EntryTypeSocket is a socket
	EntryTypeSocket
)

// String returns a string representation of the entry type
func (t EntryType) String() string {
	switch t {
	case EntryTypeRegular:
		return "regular"
	case EntryTypeDirectory:
		return "directory"
	case EntryTypeSymlink:
		return "symlink"
	case EntryTypeBlock:
		return "block"
	case EntryTypeChar:
		return "char"
	case EntryTypeFIFO:
		return "fifo"
	case EntryTypeSocket:
		return "socket"
	default:
		return "unknown"
	}
}

// ParseEntryType is the inverse of EntryType.String.
func ParseEntryType(s string) (EntryType, error) {
	switch strings.ToLower(s) {
	case "", "regular", "file":
		return EntryTypeRegular, nil
	case "directory", "dir":
		return EntryTypeDirectory, nil
	case "symlink":
		return EntryTypeSymlink, nil
	case "block":
		return EntryTypeBlock, nil
	case "char":
		return EntryTypeChar, nil
	case "fifo":
		return EntryTypeFIFO, nil
	case "socket":
		return EntryTypeSocket, nil
	}
	return 0, fmt.Errorf("unknown entry type %q", s)
}

// Entry is one virtual object listed by the pseudo-filesystem.
// It has no backing file; only its directory metadata exists.
type Entry struct {
	// Inode identifies the entry, unique within a catalog
	Inode uint64

	// Type is the entry type
	Type EntryType

	// Name is the externally visible entry name
	Name string
}

// String returns a string representation of the entry
func (e Entry) String() string {
	return fmt.Sprintf("Entry{Inode:%d, Type:%s, Name:%q}", e.Inode, e.Type, e.Name)
}

// ValidateName reports whether name can be stored in a directory entry
// buffer. The returned error wraps ErrInvalidName or ErrNameTooLong.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return NewError("validate", name, ErrInvalidName)
	}
	if len(name) > NameMax {
		return NewError("validate", name, ErrNameTooLong)
	}
	if strings.ContainsAny(name, "/\x00") {
		return NewError("validate", name, ErrInvalidName)
	}
	return nil
}

// HandleID identifies one open directory scan. Zero is never allocated.
type HandleID uint64

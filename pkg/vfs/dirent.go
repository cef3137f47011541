package vfs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/example/devfs/pkg/fs"
)

// Directory entry type tags, as in <dirent.h>.
const (
	DT_UNKNOWN uint8 = 0
	DT_FIFO    uint8 = 1
	DT_CHR     uint8 = 2
	DT_DIR     uint8 = 4
	DT_BLK     uint8 = 6
	DT_REG     uint8 = 8
	DT_LNK     uint8 = 10
	DT_SOCK    uint8 = 12
)

// NameBufSize is the size of the NUL-terminated name buffer of a Dirent.
const NameBufSize = fs.NameMax + 1

// DirentSize is the size of a marshaled Dirent.
const DirentSize = 8 + 1 + NameBufSize

// Dirent is the entry buffer a ReaddirR callback fills in.
type Dirent struct {
	Ino  uint64
	Type uint8
	Name [NameBufSize]byte
}

// SetName copies name into the name buffer and NUL-terminates it.
// Names that do not leave room for the terminator are rejected.
func (d *Dirent) SetName(name string) error {
	if len(name) > fs.NameMax {
		return fs.NewError("dirent", name, fs.ErrNameTooLong)
	}
	if bytes.IndexByte([]byte(name), 0) >= 0 {
		return fs.NewError("dirent", name, fs.ErrInvalidName)
	}
	d.Name = [NameBufSize]byte{}
	copy(d.Name[:], name)
	return nil
}

// NameString returns the name up to the first NUL.
func (d *Dirent) NameString() string {
	if i := bytes.IndexByte(d.Name[:], 0); i >= 0 {
		return string(d.Name[:i])
	}
	return string(d.Name[:])
}

// Fill sets the buffer from e.
func (d *Dirent) Fill(e fs.Entry) error {
	if err := d.SetName(e.Name); err != nil {
		return err
	}
	d.Ino = e.Inode
	d.Type = TypeTag(e.Type)
	return nil
}

// Entry converts the buffer back to an entry.
func (d *Dirent) Entry() fs.Entry {
	return fs.Entry{
		Inode: d.Ino,
		Type:  EntryType(d.Type),
		Name:  d.NameString(),
	}
}

// MarshalBinary encodes the buffer as inode (little endian), type tag and
// the 256-byte name buffer.
func (d *Dirent) MarshalBinary() ([]byte, error) {
	data := make([]byte, DirentSize)
	binary.LittleEndian.PutUint64(data[0:8], d.Ino)
	data[8] = d.Type
	copy(data[9:], d.Name[:])
	return data, nil
}

// UnmarshalBinary decodes data produced by MarshalBinary.
func (d *Dirent) UnmarshalBinary(data []byte) error {
	if len(data) != DirentSize {
		return fmt.Errorf("dirent: want %d bytes, got %d", DirentSize, len(data))
	}
	if data[DirentSize-1] != 0 {
		return errors.New("dirent: name is not NUL-terminated")
	}
	d.Ino = binary.LittleEndian.Uint64(data[0:8])
	d.Type = data[8]
	copy(d.Name[:], data[9:])
	return nil
}

// TypeTag maps an entry type to its DT_* tag.
func TypeTag(t fs.EntryType) uint8 {
	switch t {
	case fs.EntryTypeRegular:
		return DT_REG
	case fs.EntryTypeDirectory:
		return DT_DIR
	case fs.EntryTypeSymlink:
		return DT_LNK
	case fs.EntryTypeBlock:
		return DT_BLK
	case fs.EntryTypeChar:
		return DT_CHR
	case fs.EntryTypeFIFO:
		return DT_FIFO
	case fs.EntryTypeSocket:
		return DT_SOCK
	default:
		return DT_UNKNOWN
	}
}

// EntryType maps a DT_* tag to an entry type. Unknown tags are regular.
func EntryType(tag uint8) fs.EntryType {
	switch tag {
	case DT_DIR:
		return fs.EntryTypeDirectory
	case DT_LNK:
		return fs.EntryTypeSymlink
	case DT_BLK:
		return fs.EntryTypeBlock
	case DT_CHR:
		return fs.EntryTypeChar
	case DT_FIFO:
		return fs.EntryTypeFIFO
	case DT_SOCK:
		return fs.EntryTypeSocket
	default:
		return fs.EntryTypeRegular
	}
}

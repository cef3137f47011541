// pkg/fs/handle.go
package fs

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HandleRef is the opaque directory handle reference handed across a
// transport boundary. Only the adapters convert between a HandleRef and
// the HandleID used by the handle table.
type HandleRef struct {
	// InstanceID identifies the service instance that issued the handle
	InstanceID uint32

	// ID is the handle table identifier
	ID HandleID

	// Reserved is carried as-is; zero on issue
	Reserved uint32
}

// HandleRefSize is the size of a serialized HandleRef in bytes.
const HandleRefSize = 16 // 4 + 8 + 4 bytes

// Serialize converts the handle reference to a byte slice
func (r HandleRef) Serialize() []byte {
	data := make([]byte, HandleRefSize)

	binary.BigEndian.PutUint32(data[0:4], r.InstanceID)
	binary.BigEndian.PutUint64(data[4:12], uint64(r.ID))
	binary.BigEndian.PutUint32(data[12:16], r.Reserved)

	return data
}

// DeserializeHandleRef parses a byte slice into a handle reference
func DeserializeHandleRef(data []byte) (HandleRef, error) {
	if len(data) != HandleRefSize {
		return HandleRef{}, errors.New("handle reference must be 16 bytes")
	}

	ref := HandleRef{
		InstanceID: binary.BigEndian.Uint32(data[0:4]),
		ID:         HandleID(binary.BigEndian.Uint64(data[4:12])),
		Reserved:   binary.BigEndian.Uint32(data[12:16]),
	}
	if ref.ID == 0 {
		return HandleRef{}, errors.New("handle reference has zero id")
	}

	return ref, nil
}

// String returns a string representation of the handle reference
func (r HandleRef) String() string {
	return fmt.Sprintf("HandleRef{Instance:%08x, ID:%d}", r.InstanceID, r.ID)
}

// Package handles tracks open directory scans.
//
// Each open handle owns a snapshot of catalog inodes and a cursor that only
// moves forward. Handles live in an index-based arena; callers only ever see
// the HandleID, which is allocated from a monotonically increasing counter
// and never reused while the table exists.
package handles

import (
	"fmt"
	"sort"

	"github.com/example/devfs/pkg/fs"
)

// State is the position of a handle in the scan state machine.
// A closed handle is no longer in the table.
type State int

const (
	// StateOpen is a handle that has not been advanced yet
	StateOpen State = iota
	// StateIterating is a handle that has produced at least one inode
	StateIterating
	// StateExhausted is a handle whose snapshot is used up
	StateExhausted
)

// String returns a string representation of the state
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateIterating:
		return "iterating"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

type handle struct {
	id       fs.HandleID
	snapshot []uint64
	cursor   int
	state    State
}

// Table holds the open handles. It is not safe for concurrent use;
// the owning service serializes access.
type Table struct {
	// slots is the handle arena; nil entries are free
	slots []*handle

	// free lists reusable slot indexes
	free []int

	// index maps handle ids to slot indexes
	index map[fs.HandleID]int

	// lastID is the most recently allocated id
	lastID fs.HandleID
}

// NewTable creates an empty handle table.
func NewTable() *Table {
	return &Table{
		index: make(map[fs.HandleID]int),
	}
}

// Open inserts a handle iterating snapshot and returns its id.
// The table takes ownership of snapshot.
func (t *Table) Open(snapshot []uint64) fs.HandleID {
	t.lastID++
	for t.lastID == 0 || t.has(t.lastID) {
		t.lastID++
	}
	h := &handle{
		id:       t.lastID,
		snapshot: snapshot,
		state:    StateOpen,
	}

	var slot int
	if n := len(t.free); n > 0 {
		slot = t.free[n-1]
		t.free = t.free[:n-1]
		t.slots[slot] = h
	} else {
		slot = len(t.slots)
		t.slots = append(t.slots, h)
	}
	t.index[h.id] = slot
	return h.id
}

// Advance moves the cursor of handle id and returns the next inode.
// ok is false once the snapshot is exhausted, on this and every later call.
func (t *Table) Advance(id fs.HandleID) (inode uint64, ok bool, err error) {
	h, err := t.get("advance", id)
	if err != nil {
		return 0, false, err
	}
	if h.cursor >= len(h.snapshot) {
		h.state = StateExhausted
		return 0, false, nil
	}
	inode = h.snapshot[h.cursor]
	h.cursor++
	h.state = StateIterating
	return inode, true, nil
}

// Close removes handle id from the table.
func (t *Table) Close(id fs.HandleID) error {
	slot, ok := t.index[id]
	if !ok {
		return fs.NewError("close", idPath(id), fs.ErrInvalidHandle)
	}
	if slot >= len(t.slots) || t.slots[slot] == nil || t.slots[slot].id != id {
		return fs.NewError("close", idPath(id), fs.ErrHandleTableCorruption)
	}

	before := len(t.index)
	delete(t.index, id)
	t.slots[slot] = nil
	t.free = append(t.free, slot)

	if len(t.index) != before-1 {
		return fs.NewError("close", idPath(id), fs.ErrHandleTableCorruption)
	}
	return nil
}

// CloseAll removes every handle and returns how many were open.
func (t *Table) CloseAll() int {
	n := len(t.index)
	t.slots = nil
	t.free = nil
	t.index = make(map[fs.HandleID]int)
	return n
}

// State returns the scan state of handle id.
func (t *Table) State(id fs.HandleID) (State, error) {
	h, err := t.get("state", id)
	if err != nil {
		return 0, err
	}
	return h.state, nil
}

// Remaining returns how many snapshot inodes handle id has not produced yet.
func (t *Table) Remaining(id fs.HandleID) (int, error) {
	h, err := t.get("remaining", id)
	if err != nil {
		return 0, err
	}
	return len(h.snapshot) - h.cursor, nil
}

// Len returns the number of open handles.
func (t *Table) Len() int {
	return len(t.index)
}

// IDs returns the ids of the open handles in ascending order.
func (t *Table) IDs() []fs.HandleID {
	ids := make([]fs.HandleID, 0, len(t.index))
	for id := range t.index {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (t *Table) has(id fs.HandleID) bool {
	_, ok := t.index[id]
	return ok
}

func (t *Table) get(op string, id fs.HandleID) (*handle, error) {
	slot, ok := t.index[id]
	if !ok {
		return nil, fs.NewError(op, idPath(id), fs.ErrInvalidHandle)
	}
	if slot >= len(t.slots) || t.slots[slot] == nil || t.slots[slot].id != id {
		return nil, fs.NewError(op, idPath(id), fs.ErrHandleTableCorruption)
	}
	return t.slots[slot], nil
}

func idPath(id fs.HandleID) string {
	return fmt.Sprintf("handle %d", id)
}

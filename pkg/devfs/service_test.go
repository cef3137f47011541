package devfs

import (
	"fmt"
	"sync"
	"testing"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/example/devfs/pkg/fs"
	"github.com/example/devfs/pkg/handles"
	"github.com/example/devfs/pkg/vfs"
)

func newTestService(t *testing.T, entries ...fs.Entry) (*Service, *logtest.Hook) {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(log.DebugLevel)
	s := New(WithLogger(logger))
	require.NoError(t, s.Setup(entries, nil, ""))
	return s, hook
}

func entriesNamed(names ...string) []fs.Entry {
	out := make([]fs.Entry, len(names))
	for i, name := range names {
		out[i] = fs.Entry{Inode: uint64(i + 1), Type: fs.EntryTypeRegular, Name: name}
	}
	return out
}

func readAll(t *testing.T, s *Service, id fs.HandleID) []string {
	t.Helper()
	var names []string
	for {
		var e fs.Entry
		more, err := s.ReadDir(id, &e)
		require.NoError(t, err)
		if !more {
			return names
		}
		names = append(names, e.Name)
	}
}

func TestScenarioSingleEntry(t *testing.T) {
	s, _ := newTestService(t, DefaultEntries()...)

	a, err := s.OpenDir("/")
	require.NoError(t, err)

	var e fs.Entry
	more, err := s.ReadDir(a, &e)
	require.NoError(t, err)
	require.True(t, more)
	assert.Equal(t, fs.Entry{Inode: 1, Type: fs.EntryTypeRegular, Name: "test"}, e)

	more, err = s.ReadDir(a, &e)
	require.NoError(t, err)
	assert.False(t, more)

	require.NoError(t, s.CloseDir(a))
	require.ErrorIs(t, s.CloseDir(a), fs.ErrInvalidHandle)
}

func TestOpenReturnsDistinctIDs(t *testing.T) {
	s, _ := newTestService(t, DefaultEntries()...)

	seen := make(map[fs.HandleID]bool)
	for i := 0; i < 50; i++ {
		id, err := s.OpenDir("")
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Equal(t, 50, s.Stats().OpenHandles)
}

func TestReadDirOrderAndExhaustion(t *testing.T) {
	s, _ := newTestService(t, entriesNamed("a", "b", "c", "d")...)

	id, err := s.OpenDir("/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, readAll(t, s, id))

	for i := 0; i < 3; i++ {
		var e fs.Entry
		more, err := s.ReadDir(id, &e)
		require.NoError(t, err)
		assert.False(t, more, "end marker must repeat until close")
	}

	state, err := s.HandleState(id)
	require.NoError(t, err)
	assert.Equal(t, handles.StateExhausted, state)
	require.NoError(t, s.CloseDir(id))

	_, err = s.HandleState(id)
	require.ErrorIs(t, err, fs.ErrInvalidHandle)
}

func TestCloseNeverOpened(t *testing.T) {
	s, _ := newTestService(t, DefaultEntries()...)
	_, err := s.OpenDir("/")
	require.NoError(t, err)
	before := s.Stats().OpenHandles

	require.ErrorIs(t, s.CloseDir(999), fs.ErrInvalidHandle)
	assert.Equal(t, before, s.Stats().OpenHandles)
}

func TestOpenCloseRestoresHandleCount(t *testing.T) {
	s, _ := newTestService(t, DefaultEntries()...)
	before := s.Stats().OpenHandles

	id, err := s.OpenDir("/")
	require.NoError(t, err)
	require.NoError(t, s.CloseDir(id))
	assert.Equal(t, before, s.Stats().OpenHandles)
}

func TestReadDirReportsVanishedEntry(t *testing.T) {
	s, hook := newTestService(t, entriesNamed("a", "b", "c")...)

	id, err := s.OpenDir("/")
	require.NoError(t, err)

	var e fs.Entry
	more, err := s.ReadDir(id, &e)
	require.NoError(t, err)
	require.True(t, more)
	assert.Equal(t, "a", e.Name)

	require.NoError(t, s.Remove(2))

	more, err = s.ReadDir(id, &e)
	require.ErrorIs(t, err, fs.ErrEntryVanished)
	assert.False(t, more)
	assert.Equal(t, log.ErrorLevel, hook.LastEntry().Level)

	// the scan continues past the vanished entry
	more, err = s.ReadDir(id, &e)
	require.NoError(t, err)
	require.True(t, more)
	assert.Equal(t, "c", e.Name)

	// a new scan does not see the removed entry
	fresh, err := s.OpenDir("/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, readAll(t, s, fresh))
}

func TestSnapshotIgnoresLaterRegistrations(t *testing.T) {
	s, _ := newTestService(t, entriesNamed("a")...)

	id, err := s.OpenDir("/")
	require.NoError(t, err)
	require.NoError(t, s.Register(fs.Entry{Inode: 7, Name: "late"}))

	assert.Equal(t, []string{"a"}, readAll(t, s, id))
}

func TestOpenDirRejectsOtherPaths(t *testing.T) {
	s, _ := newTestService(t, DefaultEntries()...)

	_, err := s.OpenDir("/sub")
	require.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, 0, s.Stats().OpenHandles)

	rooted := New(WithRoot("/dev"), WithLogger(log.New()))
	_, err = rooted.OpenDir("/dev")
	require.NoError(t, err)
	_, err = rooted.OpenDir("/dev/")
	require.NoError(t, err)
}

func TestReadDirUnknownHandle(t *testing.T) {
	s, _ := newTestService(t, DefaultEntries()...)

	var e fs.Entry
	_, err := s.ReadDir(3, &e)
	require.ErrorIs(t, err, fs.ErrInvalidHandle)
	assert.Equal(t, uint64(1), s.Stats().Errors)
}

func TestLookup(t *testing.T) {
	s, _ := newTestService(t, entriesNamed("test", "tty")...)

	e, err := s.Lookup("tty")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), e.Inode)

	_, err = s.Lookup("nope")
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestSetup(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	reg := vfs.NewRegistry()
	s := New(WithLogger(logger))

	require.NoError(t, s.Setup(DefaultEntries(), reg, ""))
	assert.Equal(t, []string{DefaultMountPath}, reg.Mounts())
	require.ErrorIs(t, s.Setup(DefaultEntries(), reg, ""), ErrAlreadySetup)

	dup := New(WithLogger(logger))
	err := dup.Setup([]fs.Entry{{Inode: 1, Name: "a"}, {Inode: 1, Name: "b"}}, nil, "")
	require.ErrorIs(t, err, fs.ErrDuplicateInode)
	assert.Empty(t, dup.Entries(), "failed setup must not populate the catalog")
	require.NoError(t, dup.Setup(entriesNamed("a"), nil, ""), "failed setup may be retried")

	taken := New(WithLogger(logger))
	err = taken.Setup(DefaultEntries(), reg, DefaultMountPath)
	require.Error(t, err)
	assert.Empty(t, taken.Entries())
}

func TestSetupFailedRegistrationKeepsCatalog(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	reg := vfs.NewRegistry()
	require.NoError(t, New(WithLogger(logger)).Setup(DefaultEntries(), reg, DefaultMountPath))

	s := New(WithLogger(logger))
	early := fs.Entry{Inode: 7, Type: fs.EntryTypeRegular, Name: "early"}
	require.NoError(t, s.Register(early))

	require.Error(t, s.Setup(entriesNamed("a"), reg, DefaultMountPath))
	assert.Equal(t, []fs.Entry{early}, s.Entries())

	require.NoError(t, s.Setup(entriesNamed("a"), reg, "/devices"))
	assert.Equal(t, []string{DefaultMountPath, "/devices"}, reg.Mounts())
	assert.Equal(t, []fs.Entry{early, entriesNamed("a")[0]}, s.Entries())
}

func TestSetupDuplicateOfEarlyEntryLeavesRegistryUntouched(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	reg := vfs.NewRegistry()
	s := New(WithLogger(logger))
	require.NoError(t, s.Register(fs.Entry{Inode: 1, Type: fs.EntryTypeRegular, Name: "early"}))

	err := s.Setup(DefaultEntries(), reg, "")
	require.ErrorIs(t, err, fs.ErrDuplicateInode)
	assert.Empty(t, reg.Mounts())
}

func TestReadDirNilEntry(t *testing.T) {
	s, _ := newTestService(t, DefaultEntries()...)
	id, err := s.OpenDir("/")
	require.NoError(t, err)

	_, err = s.ReadDir(id, nil)
	require.ErrorIs(t, err, fs.ErrInvalidName)

	// the cursor did not move
	var e fs.Entry
	more, err := s.ReadDir(id, &e)
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, "test", e.Name)
}

func TestCallbacksThroughRegistry(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	reg := vfs.NewRegistry()
	s := New(WithLogger(logger))
	require.NoError(t, s.Setup(entriesNamed("test", "tty", "null"), reg, "/dev"))

	names, err := reg.ReadDirNames("/dev")
	require.NoError(t, err)
	assert.Equal(t, []string{"test", "tty", "null"}, names)
	assert.Equal(t, 0, s.Stats().OpenHandles)

	dir, status := reg.Opendir("/dev")
	require.Equal(t, vfs.StatusOK, status)
	require.Equal(t, vfs.StatusOK, reg.Closedir(dir))
	assert.Equal(t, -int32(unix.EBADF), reg.Closedir(dir))

	var ent vfs.Dirent
	_, status = reg.ReaddirR(dir, &ent)
	assert.Equal(t, -int32(unix.EBADF), status)

	_, status = reg.Opendir("/dev/missing")
	assert.Equal(t, -int32(unix.ENOENT), status)
}

func TestCallbacksReportVanishedEntry(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	reg := vfs.NewRegistry()
	s := New(WithLogger(logger))
	require.NoError(t, s.Setup(entriesNamed("a", "b"), reg, "/dev"))

	dir, status := reg.Opendir("/dev")
	require.Equal(t, vfs.StatusOK, status)
	require.NoError(t, s.Remove(1))

	var ent vfs.Dirent
	more, status := reg.ReaddirR(dir, &ent)
	assert.False(t, more)
	assert.Equal(t, -int32(unix.ESTALE), status, "vanished entry is not end of directory")

	more, status = reg.ReaddirR(dir, &ent)
	require.Equal(t, vfs.StatusOK, status)
	require.True(t, more)
	assert.Equal(t, "b", ent.NameString())
	assert.Equal(t, vfs.DT_REG, ent.Type)
	assert.Equal(t, vfs.StatusOK, reg.Closedir(dir))
}

func TestCloseAll(t *testing.T) {
	s, hook := newTestService(t, DefaultEntries()...)
	var ids []fs.HandleID
	for i := 0; i < 3; i++ {
		id, err := s.OpenDir("/")
		require.NoError(t, err)
		ids = append(ids, id)
	}
	var e fs.Entry
	_, err := s.ReadDir(ids[0], &e)
	require.NoError(t, err)
	hook.Reset()

	assert.Equal(t, 3, s.CloseAll())
	st := s.Stats()
	assert.Equal(t, 0, st.OpenHandles)
	assert.Equal(t, uint64(3), st.Closed)

	// the handle that read its only entry has nothing unread
	var unread []interface{}
	for _, entry := range hook.AllEntries() {
		if entry.Level == log.DebugLevel {
			unread = append(unread, entry.Data["handle"])
		}
	}
	assert.ElementsMatch(t, []interface{}{uint64(ids[1]), uint64(ids[2])}, unread)
}

func TestConcurrentScans(t *testing.T) {
	s, _ := newTestService(t, entriesNamed("a", "b", "c", "d", "e")...)
	before := s.Stats().OpenHandles

	const workers = 32
	const rounds = 20

	var live sync.Map
	var wg sync.WaitGroup
	errs := make(chan error, workers*rounds)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				id, err := s.OpenDir("/")
				if err != nil {
					errs <- err
					return
				}
				if _, dup := live.LoadOrStore(id, true); dup {
					errs <- fs.NewError("opendir", "", fs.ErrHandleTableCorruption)
					return
				}

				n := 0
				for {
					var e fs.Entry
					more, err := s.ReadDir(id, &e)
					if err != nil {
						errs <- err
						return
					}
					if !more {
						break
					}
					n++
				}
				if n != 5 {
					errs <- fmt.Errorf("scan of handle %d returned %d entries, want 5", id, n)
					return
				}

				live.Delete(id)
				if err := s.CloseDir(id); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	st := s.Stats()
	assert.Equal(t, before, st.OpenHandles)
	assert.Equal(t, uint64(workers*rounds), st.Opened)
	assert.Equal(t, uint64(workers*rounds), st.Closed)
}

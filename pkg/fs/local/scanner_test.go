package local

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"github.com/example/devfs/pkg/fs"
)

func TestScanMemFs(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := fsys.MkdirAll("/seed/sub", 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	for _, name := range []string{"tty", "null", "sub/nested"} {
		if err := afero.WriteFile(fsys, "/seed/"+name, []byte("ignored"), 0644); err != nil {
			t.Fatalf("WriteFile %s failed: %v", name, err)
		}
	}

	scanner, err := NewScanner(fsys, "/seed", Options{})
	if err != nil {
		t.Fatalf("NewScanner failed: %v", err)
	}
	entries, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	want := []fs.Entry{
		{Inode: DefaultInodeBase, Type: fs.EntryTypeRegular, Name: "null"},
		{Inode: DefaultInodeBase + 1, Type: fs.EntryTypeDirectory, Name: "sub"},
		{Inode: DefaultInodeBase + 2, Type: fs.EntryTypeRegular, Name: "tty"},
	}
	if len(entries) != len(want) {
		t.Fatalf("Wrong number of entries: got %d, want %d (%v)", len(entries), len(want), entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("Entry %d: got %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestScanInodeBase(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/seed/a", nil, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	// host inodes are unavailable on a memory filesystem
	scanner, err := NewScanner(fsys, "/seed", Options{InodeBase: 50, HostInodes: true})
	if err != nil {
		t.Fatalf("NewScanner failed: %v", err)
	}
	entries, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Inode != 50 {
		t.Errorf("Unexpected entries: %v", entries)
	}
}

func TestNewScannerErrors(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/file", nil, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := NewScanner(fsys, "/missing", Options{}); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected ErrNotExist, got %v", err)
	}
	if _, err := NewScanner(fsys, "/file", Options{}); !errors.Is(err, fs.ErrNotDir) {
		t.Errorf("Expected ErrNotDir, got %v", err)
	}
}

func TestScanOsFsHostInodes(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "data"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.Link(filepath.Join(dir, "data"), filepath.Join(dir, "link")); err != nil {
		t.Skipf("hard links unsupported: %v", err)
	}
	if err := os.Symlink("data", filepath.Join(dir, "sym")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	scanner, err := NewScanner(afero.NewOsFs(), dir, Options{HostInodes: true})
	if err != nil {
		t.Fatalf("NewScanner failed: %v", err)
	}
	entries, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	// "link" shares the inode of "data" and is skipped
	if len(entries) != 2 {
		t.Fatalf("Wrong number of entries: got %d, want 2 (%v)", len(entries), entries)
	}
	if entries[0].Name != "data" || entries[0].Type != fs.EntryTypeRegular {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}
	if entries[1].Name != "sym" || entries[1].Type != fs.EntryTypeSymlink {
		t.Errorf("Unexpected second entry: %+v", entries[1])
	}
	if entries[0].Inode == entries[1].Inode {
		t.Errorf("Expected distinct inodes, got %d twice", entries[0].Inode)
	}
}

func TestEntryType(t *testing.T) {
	tests := []struct {
		mode os.FileMode
		want fs.EntryType
	}{
		{0644, fs.EntryTypeRegular},
		{os.ModeDir | 0755, fs.EntryTypeDirectory},
		{os.ModeSymlink | 0777, fs.EntryTypeSymlink},
		{os.ModeDevice | os.ModeCharDevice | 0600, fs.EntryTypeChar},
		{os.ModeDevice | 0600, fs.EntryTypeBlock},
		{os.ModeNamedPipe | 0600, fs.EntryTypeFIFO},
		{os.ModeSocket | 0600, fs.EntryTypeSocket},
	}

	for _, tt := range tests {
		if got := entryType(tt.mode); got != tt.want {
			t.Errorf("entryType(%v) = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

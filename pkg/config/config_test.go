package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/example/devfs/pkg/devfs"
	dfs "github.com/example/devfs/pkg/fs"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(afero.NewMemMapFs(), DefaultPath, false)
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
	entries, err := cfg.CatalogEntries()
	require.NoError(t, err)
	assert.Equal(t, devfs.DefaultEntries(), entries)
}

func TestLoadMissingRequiredFile(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "/etc/devfs.yaml", true)
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/etc/devfs.yaml", []byte(`
log_level: debug
devfs:
  mount_path: /devices
  entries:
    - {inode: 1, name: test}
    - {inode: 5, type: char, name: tty}
server:
  address: ":9000"
  request_timeout: 5s
client:
  cache_ttl: 2s
`), 0644))

	cfg, err := Load(fsys, "/etc/devfs.yaml", true)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/devices", cfg.Devfs.MountPath)
	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	// untouched keys keep their defaults
	assert.Equal(t, 100, cfg.Server.MaxConcurrent)
	assert.Equal(t, 2*time.Second, cfg.ClientConfig().CacheTTL)

	entries, err := cfg.CatalogEntries()
	require.NoError(t, err)
	assert.Equal(t, []dfs.Entry{
		{Inode: 1, Type: dfs.EntryTypeRegular, Name: "test"},
		{Inode: 5, Type: dfs.EntryTypeChar, Name: "tty"},
	}, entries)

	srv := cfg.ServerConfig()
	assert.Equal(t, ":9000", srv.ListenAddress)
	assert.Equal(t, 5*time.Second, srv.RequestTimeout)
	assert.True(t, cfg.MountOptions().ReadOnly)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"bad yaml":       "log_level: [",
		"bad level":      "log_level: loud",
		"bad entry type": "devfs: {entries: [{inode: 1, type: pipe, name: x}]}",
		"missing inode":  "devfs: {entries: [{name: x}]}",
		"no workers":     "server: {max_concurrent: 0}",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fsys, "devfs.yaml", []byte(content), 0644))
			_, err := Load(fsys, "devfs.yaml", true)
			assert.Error(t, err)
		})
	}
}

func TestCatalogEntriesNamesBadEntry(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "devfs.yaml", []byte(`
devfs:
  entries:
    - {inode: 1, name: test}
    - {inode: 2, type: char, name: null}
`), 0644))

	_, err := Load(fsys, "devfs.yaml", true)
	require.Error(t, err)
	assert.ErrorIs(t, err, dfs.ErrInvalidName)
	assert.Contains(t, err.Error(), "devfs.entries[1]")

	cfg := DefaultConfig()
	cfg.Devfs.Entries = []EntryConfig{{Inode: 1, Name: "null"}}
	entries, err := cfg.CatalogEntries()
	require.NoError(t, err)
	assert.Equal(t, "null", entries[0].Name)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DEVFS_LOG_LEVEL":       "warn",
		"DEVFS_LISTEN_ADDRESS":  ":7171",
		"DEVFS_SERVER_ADDRESS":  "devfs:7171",
		"DEVFS_MOUNT_POINT":     "/mnt/devfs",
		"DEVFS_MAX_CONCURRENT":  "8",
		"DEVFS_REQUEST_TIMEOUT": "1s",
		"DEVFS_ROOT":            "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv(lookup))

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, ":7171", cfg.Server.Address)
	assert.Equal(t, "devfs:7171", cfg.Client.Address)
	assert.Equal(t, "/mnt/devfs", cfg.Mount.MountPoint)
	assert.Equal(t, 8, cfg.Server.MaxConcurrent)
	assert.Equal(t, time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "", cfg.Devfs.Root)

	env["DEVFS_MAX_RETRIES"] = "many"
	assert.Error(t, DefaultConfig().ApplyEnv(lookup))
}

func TestLoadAppliesProcessEnv(t *testing.T) {
	t.Setenv("DEVFS_LISTEN_ADDRESS", ":7272")

	cfg, err := Load(afero.NewMemMapFs(), DefaultPath, false)
	require.NoError(t, err)
	assert.Equal(t, ":7272", cfg.Server.Address)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("DEVFS_TEST_DOTENV=loaded\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("DEVFS_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "loaded", os.Getenv("DEVFS_TEST_DOTENV"))
}

func TestSampleConfigParses(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, yaml.Unmarshal([]byte(SampleConfig), cfg))
	require.NoError(t, cfg.Validate())

	entries, err := cfg.CatalogEntries()
	require.NoError(t, err)
	assert.Equal(t, devfs.DefaultEntries(), entries)
}

func TestConfigureLogging(t *testing.T) {
	assert.NoError(t, ConfigureLogging("info"))
	assert.Error(t, ConfigureLogging("chatty"))
}

func TestSeedEntries(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/seed/tty", nil, 0644))
	require.NoError(t, afero.WriteFile(fsys, "/seed/null", nil, 0644))

	cfg := DefaultConfig()
	entries, err := cfg.SeedEntries(fsys)
	require.NoError(t, err)
	assert.Empty(t, entries)

	cfg.Devfs.Seed = SeedConfig{Dir: "/seed", InodeBase: 10}
	entries, err = cfg.SeedEntries(fsys)
	require.NoError(t, err)
	assert.Equal(t, []dfs.Entry{
		{Inode: 10, Type: dfs.EntryTypeRegular, Name: "null"},
		{Inode: 11, Type: dfs.EntryTypeRegular, Name: "tty"},
	}, entries)

	cfg.Devfs.Seed.Dir = "/missing"
	_, err = cfg.SeedEntries(fsys)
	assert.ErrorIs(t, err, dfs.ErrNotExist)
}

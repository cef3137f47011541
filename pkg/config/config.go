// Package config loads the devfs configuration file and environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/example/devfs/pkg/client"
	"github.com/example/devfs/pkg/devfs"
	dfs "github.com/example/devfs/pkg/fs"
	"github.com/example/devfs/pkg/fs/local"
	"github.com/example/devfs/pkg/fuse"
	"github.com/example/devfs/pkg/server"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "devfs.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DEVFS_"

// Config represents the entire configuration file
type Config struct {
	LogLevel string       `yaml:"log_level"`
	Devfs    DevfsConfig  `yaml:"devfs"`
	Server   ServerConfig `yaml:"server"`
	Client   ClientConfig `yaml:"client"`
	Mount    MountConfig  `yaml:"mount"`
}

// DevfsConfig describes the catalog and where it is registered
type DevfsConfig struct {
	MountPath string        `yaml:"mount_path"`
	Root      string        `yaml:"root"`
	Entries   []EntryConfig `yaml:"entries"`
	Seed      SeedConfig    `yaml:"seed"`
}

// SeedConfig adds one entry per child of a host directory
type SeedConfig struct {
	Dir        string `yaml:"dir"`
	InodeBase  uint64 `yaml:"inode_base"`
	HostInodes bool   `yaml:"host_inodes"`
}

// EntryConfig is one catalog entry
type EntryConfig struct {
	Inode uint64 `yaml:"inode"`
	Type  string `yaml:"type"`
	Name  string `yaml:"name"`
}

// ServerConfig contains gRPC server settings
type ServerConfig struct {
	Address        string        `yaml:"address"`
	MaxConcurrent  int           `yaml:"max_concurrent"`
	MaxConnections int           `yaml:"max_connections"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// ClientConfig contains gRPC client settings
type ClientConfig struct {
	Address      string        `yaml:"address"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
	MaxCacheSize int           `yaml:"max_cache_size"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
}

// MountConfig contains FUSE mount settings
type MountConfig struct {
	MountPoint string `yaml:"mount_point"`
	FSName     string `yaml:"fs_name"`
	AllowOther bool   `yaml:"allow_other"`
	Debug      bool   `yaml:"debug"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	srv := server.DefaultConfig()
	cli := client.DefaultConfig()
	return &Config{
		LogLevel: "info",
		Devfs: DevfsConfig{
			MountPath: devfs.DefaultMountPath,
		},
		Server: ServerConfig{
			Address:        srv.ListenAddress,
			MaxConcurrent:  srv.MaxConcurrent,
			MaxConnections: srv.MaxConnections,
			RequestTimeout: srv.RequestTimeout,
		},
		Client: ClientConfig{
			Address:      cli.ServerAddress,
			Timeout:      cli.Timeout,
			MaxRetries:   cli.MaxRetries,
			RetryDelay:   cli.RetryDelay,
			MaxCacheSize: cli.MaxCacheSize,
			CacheTTL:     cli.CacheTTL,
		},
		Mount: MountConfig{
			FSName: "devfs",
		},
	}
}

// Load reads the YAML file at path from fsys over the defaults, then applies
// environment overrides. A missing file is only an error when required.
func Load(fsys afero.Fs, path string, required bool) (*Config, error) {
	cfg := DefaultConfig()

	data, err := afero.ReadFile(fsys, path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !required:
		log.Debugf("No config file at %s, using defaults", path)
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig loads configuration from a YAML file on disk
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return Load(afero.NewOsFs(), DefaultPath, false)
	}
	return Load(afero.NewOsFs(), path, true)
}

// LoadDotEnv loads .env files into the environment. Missing files are
// ignored; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from DEVFS_* variables found through lookup
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}
	dur := func(name string, dst *time.Duration) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
		}
		*dst = d
		return nil
	}

	str("LOG_LEVEL", &c.LogLevel)
	str("MOUNT_PATH", &c.Devfs.MountPath)
	str("ROOT", &c.Devfs.Root)
	str("SEED_DIR", &c.Devfs.Seed.Dir)
	str("LISTEN_ADDRESS", &c.Server.Address)
	str("SERVER_ADDRESS", &c.Client.Address)
	str("MOUNT_POINT", &c.Mount.MountPoint)

	if err := num("MAX_CONCURRENT", &c.Server.MaxConcurrent); err != nil {
		return err
	}
	if err := num("MAX_CONNECTIONS", &c.Server.MaxConnections); err != nil {
		return err
	}
	if err := num("MAX_RETRIES", &c.Client.MaxRetries); err != nil {
		return err
	}
	if err := dur("REQUEST_TIMEOUT", &c.Server.RequestTimeout); err != nil {
		return err
	}
	return dur("CLIENT_TIMEOUT", &c.Client.Timeout)
}

// Validate checks the configuration for values nothing downstream accepts
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if c.Server.MaxConcurrent <= 0 {
		return fmt.Errorf("server.max_concurrent must be positive, got %d", c.Server.MaxConcurrent)
	}
	if c.Server.MaxConnections < 0 {
		return fmt.Errorf("server.max_connections must not be negative, got %d", c.Server.MaxConnections)
	}
	if c.Client.MaxRetries < 0 {
		return fmt.Errorf("client.max_retries must not be negative, got %d", c.Client.MaxRetries)
	}
	if _, err := c.CatalogEntries(); err != nil {
		return err
	}
	return nil
}

// CatalogEntries converts the configured entries. An empty list yields the
// default catalog.
func (c *Config) CatalogEntries() ([]dfs.Entry, error) {
	if len(c.Devfs.Entries) == 0 {
		return devfs.DefaultEntries(), nil
	}

	entries := make([]dfs.Entry, 0, len(c.Devfs.Entries))
	for i, ec := range c.Devfs.Entries {
		t, err := dfs.ParseEntryType(ec.Type)
		if err != nil {
			return nil, fmt.Errorf("devfs.entries[%d]: %w", i, err)
		}
		if ec.Inode == 0 {
			return nil, fmt.Errorf("devfs.entries[%d]: inode is required", i)
		}
		if err := dfs.ValidateName(ec.Name); err != nil {
			return nil, fmt.Errorf("devfs.entries[%d]: name %q: %w", i, ec.Name, err)
		}
		entries = append(entries, dfs.Entry{Inode: ec.Inode, Type: t, Name: ec.Name})
	}
	return entries, nil
}

// SeedEntries scans the seed directory on fsys. It returns nothing when no
// seed directory is configured.
func (c *Config) SeedEntries(fsys afero.Fs) ([]dfs.Entry, error) {
	if c.Devfs.Seed.Dir == "" {
		return nil, nil
	}
	scanner, err := local.NewScanner(fsys, c.Devfs.Seed.Dir, local.Options{
		InodeBase:  c.Devfs.Seed.InodeBase,
		HostInodes: c.Devfs.Seed.HostInodes,
	})
	if err != nil {
		return nil, err
	}
	return scanner.Scan()
}

// ServerConfig returns the gRPC server configuration
func (c *Config) ServerConfig() *server.Config {
	return &server.Config{
		ListenAddress:  c.Server.Address,
		MaxConcurrent:  c.Server.MaxConcurrent,
		MaxConnections: c.Server.MaxConnections,
		RequestTimeout: c.Server.RequestTimeout,
	}
}

// ClientConfig returns the gRPC client configuration
func (c *Config) ClientConfig() *client.Config {
	cfg := client.DefaultConfig()
	cfg.ServerAddress = c.Client.Address
	cfg.Timeout = c.Client.Timeout
	cfg.MaxRetries = c.Client.MaxRetries
	cfg.RetryDelay = c.Client.RetryDelay
	cfg.MaxCacheSize = c.Client.MaxCacheSize
	cfg.CacheTTL = c.Client.CacheTTL
	return cfg
}

// MountOptions returns the FUSE mount options
func (c *Config) MountOptions() fuse.MountOptions {
	return fuse.MountOptions{
		MountPoint: c.Mount.MountPoint,
		FSName:     c.Mount.FSName,
		ReadOnly:   true,
		AllowOther: c.Mount.AllowOther,
		Debug:      c.Mount.Debug,
	}
}

// ConfigureLogging sets the logrus level and formatter
func ConfigureLogging(level string) error {
	logLevel, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	log.SetLevel(logLevel)
	return nil
}

// SampleConfig is a commented configuration file with every option
const SampleConfig = `# devfs configuration
log_level: "info"           # debug, info, warn, error

devfs:
  mount_path: "/dev"        # where the callback table is registered
  root: ""                  # extra path accepted as the directory root
  entries:
    - inode: 1
      type: regular         # regular, directory, symlink, char, block, fifo, socket
      name: "test"
  seed:
    dir: ""                 # host directory whose children become entries
    inode_base: 1000        # first inode for seeded entries
    host_inodes: false      # keep host inode numbers instead

server:
  address: ":7070"
  max_concurrent: 100
  max_connections: 256
  request_timeout: "30s"

client:
  address: "localhost:7070"
  timeout: "30s"
  max_retries: 3
  retry_delay: "500ms"
  max_cache_size: 128
  cache_ttl: "0s"           # zero disables the listing cache

mount:
  mount_point: ""
  fs_name: "devfs"
  allow_other: false
  debug: false
`

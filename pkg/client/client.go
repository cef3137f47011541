// Package client implements a gRPC client for the directory service
package client

import (
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/example/devfs/pkg/api"
)

// Config contains the client configuration options
type Config struct {
	// ServerAddress is the address of the directory server (e.g., "localhost:7070")
	ServerAddress string

	// Timeout is the default timeout for RPC operations
	Timeout time.Duration

	// MaxRetries is the maximum number of retries for operations
	MaxRetries int

	// RetryDelay is the initial delay between retries (will be multiplied by backoff factor)
	RetryDelay time.Duration

	// BackoffFactor is the multiplier for retry delay after each attempt
	BackoffFactor float64

	// MaxCacheSize is the maximum number of cached directory listings
	MaxCacheSize int

	// CacheTTL is the time-to-live for cached listings; zero disables the cache
	CacheTTL time.Duration
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		ServerAddress: "localhost:7070",
		Timeout:       30 * time.Second,
		MaxRetries:    3,
		RetryDelay:    500 * time.Millisecond,
		BackoffFactor: 2.0,
		MaxCacheSize:  128,
		CacheTTL:      0,
	}
}

// Client talks to a directory server and implements DirClient
type Client struct {
	// gRPC connection to the server
	conn *grpc.ClientConn

	// Directory service client
	dirClient api.DirServiceClient

	// Client configuration
	config *Config

	// Listing cache used by ReadDirAll; nil when disabled
	listCache *ListingCache
}

var _ DirClient = (*Client)(nil)

// NewClient creates a new client. The connection is established lazily on
// the first call.
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	conn, err := grpc.NewClient(
		config.ServerAddress,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}

	return newClient(conn, config)
}

func newClient(conn *grpc.ClientConn, config *Config) (*Client, error) {
	c := &Client{
		conn:      conn,
		dirClient: api.NewDirServiceClient(conn),
		config:    config,
	}
	if config.CacheTTL > 0 && config.MaxCacheSize > 0 {
		cache, err := NewListingCache(config.MaxCacheSize, config.CacheTTL)
		if err != nil {
			conn.Close()
			return nil, err
		}
		c.listCache = cache
	}
	return c, nil
}

// ClearCache drops every cached listing
func (c *Client) ClearCache() {
	if c.listCache != nil {
		c.listCache.Purge()
	}
}

// Close closes the client connection
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

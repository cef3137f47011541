package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/devfs/pkg/fs"
)

func TestListingCacheExpiry(t *testing.T) {
	cache, err := NewListingCache(2, time.Minute)
	require.NoError(t, err)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	listing := []fs.Entry{{Inode: 1, Name: "test"}}
	cache.Store("/", listing)
	listing[0].Name = "mutated"

	got, ok := cache.Get("/")
	require.True(t, ok)
	assert.Equal(t, "test", got[0].Name)

	now = now.Add(time.Minute)
	_, ok = cache.Get("/")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}

func TestListingCacheEviction(t *testing.T) {
	cache, err := NewListingCache(2, time.Hour)
	require.NoError(t, err)

	cache.Store("/a", nil)
	cache.Store("/b", nil)
	cache.Store("/c", nil)
	assert.Equal(t, 2, cache.Len())

	_, ok := cache.Get("/a")
	assert.False(t, ok)

	cache.Purge()
	assert.Equal(t, 0, cache.Len())
}

func TestNewListingCacheRejectsBadSize(t *testing.T) {
	_, err := NewListingCache(0, time.Minute)
	assert.Error(t, err)
}

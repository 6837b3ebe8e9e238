package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	k1 := Key("Q42", "separate")
	k2 := Key("Q42", "expanded")
	k3 := Key("Q43", "separate")

	assert.NotEqual(t, k1, k2, "mode is part of the key")
	assert.NotEqual(t, k1, k3)
	assert.Equal(t, k1, Key("Q42", "separate"))
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	_, found := c.Get("missing")
	assert.False(t, found)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	val, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, []byte("v"), val)

	require.NoError(t, c.Delete("k"))
	_, found = c.Get("k")
	assert.False(t, found)
}

func TestDiskCache(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	val, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, []byte("v"), val)

	require.NoError(t, c.Clear())
	_, found = c.Get("k")
	assert.False(t, found)
}

func TestDiskCacheExpiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	require.NoError(t, c.Set("k", []byte("v"), time.Nanosecond))
	time.Sleep(10 * time.Millisecond)

	_, found := c.Get("k")
	assert.False(t, found, "expired entry must not be served")
}

func TestLayeredCachePromotion(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Minute)

	require.NoError(t, c.Set("k", []byte("v"), 0))

	// A fresh layered cache over the same directory finds the entry on
	// disk and promotes it to memory.
	c2 := NewLayeredCache(time.Minute, dir, time.Minute)
	val, found := c2.Get("k")
	require.True(t, found)
	assert.Equal(t, []byte("v"), val)

	val, found = c2.Get("k")
	require.True(t, found)
	assert.Equal(t, []byte("v"), val)
}

// Package cache stores raw knowledge-base API responses so re-runs and
// resumed crawls do not re-query entities the pipeline has already seen.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the storage interface shared by the memory, disk, and layered
// implementations.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives the cache key for one (entity, mode) fetch.
func Key(entity, mode string) string {
	hash := sha256.Sum256([]byte(entity + "|" + mode))
	return "tripletforge:v1:" + hex.EncodeToString(hash[:])
}

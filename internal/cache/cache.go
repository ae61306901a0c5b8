// Package cache stores fetched page payloads between runs so re-running the
// fetch stage does not re-hit the marketplace.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the storage interface shared by the memory, disk and layered
// implementations.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a cache key for a URL.
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "claimlens:v1:" + hex.EncodeToString(hash[:])
}

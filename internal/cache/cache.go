// Package cache stores raw oracle responses so repeated checks of the same
// claim on the same day skip the network.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

const keyPrefix = "credence-oracle-v1-"

// OracleKey identifies an oracle response. The date is truncated to the day:
// the same claim evaluated on another day may deserve different evidence.
func OracleKey(provider, model, claim string, now time.Time) string {
	h := sha256.New()
	for _, part := range []string{
		strings.ToLower(provider),
		model,
		strings.Join(strings.Fields(strings.ToLower(claim)), " "),
		now.UTC().Format(time.DateOnly),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// New builds the configured cache: memory only when dir is empty, memory
// over disk otherwise
func New(memoryTTL time.Duration, dir string, diskTTL time.Duration) Cache {
	if dir == "" {
		return NewMemoryCache(memoryTTL, cleanupInterval(memoryTTL))
	}
	return NewLayeredCache(memoryTTL, dir, diskTTL)
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 10 * time.Minute
	}
	return 2 * ttl
}

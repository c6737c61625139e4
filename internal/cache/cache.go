package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey generates a deterministic key for one classifier call. Provider,
// model and the exact description text are hashed together: the same text
// sent to a different model must miss. NUL separators keep field boundaries
// unambiguous.
func CacheKey(provider, model, text string) string {
	hash := sha256.Sum256([]byte(provider + "\x00" + model + "\x00" + text))
	return "cotations:v1:" + hex.EncodeToString(hash[:])
}

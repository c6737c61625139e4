package cache

import (
	"os"
	"path/filepath"

	"github.com/routebeta/cotations/internal/model"
)

// ReplyCache stores raw classifier replies keyed by provider, model and the
// exact description text. The raw text is cached rather than the parsed
// result, so extraction logic can evolve without re-billing the API.
//
// A nil *ReplyCache is valid and caches nothing, which is how --no-cache is
// implemented.
type ReplyCache struct {
	backend Cache
}

// NewReplyCache wraps a cache backend
func NewReplyCache(backend Cache) *ReplyCache {
	return &ReplyCache{backend: backend}
}

// NewReplyCacheFromConfig builds the layered reply cache described by the
// config, or nil when caching is disabled.
func NewReplyCacheFromConfig(cfg model.CacheConfig) *ReplyCache {
	if !cfg.Enabled {
		return nil
	}

	dir := cfg.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dir = filepath.Join(home, ".cotations", "cache")
	}

	return NewReplyCache(NewLayeredCache(cfg.MemoryTTL, dir, cfg.DiskTTL))
}

// Get returns the cached raw reply for this provider/model/description
func (c *ReplyCache) Get(provider, model, description string) (string, bool) {
	if c == nil || c.backend == nil {
		return "", false
	}

	data, found := c.backend.Get(CacheKey(provider, model, description))
	if !found {
		return "", false
	}
	return string(data), true
}

// Set stores a raw reply. Empty replies are not stored: an empty string is a
// provider hiccup, not an answer worth keeping for a month.
func (c *ReplyCache) Set(provider, model, description, raw string) {
	if c == nil || c.backend == nil || raw == "" {
		return
	}
	_ = c.backend.Set(CacheKey(provider, model, description), []byte(raw), 0)
}

// Clear drops every cached reply
func (c *ReplyCache) Clear() error {
	if c == nil || c.backend == nil {
		return nil
	}
	return c.backend.Clear()
}

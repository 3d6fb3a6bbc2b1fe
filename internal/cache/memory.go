package cache

import (
	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/agtrack/internal/model"
)

// Memory implements in-memory memoization. Entries never expire: a batch
// run sees the same raw names repeatedly and normalization output for a
// given input never changes.
type Memory struct {
	cache *gocache.Cache
}

// NewMemory creates a new memory cache
func NewMemory() *Memory {
	return &Memory{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// Get retrieves a normalized name from the cache
func (c *Memory) Get(key string) (model.NormalizedName, bool) {
	if val, found := c.cache.Get(key); found {
		return val.(model.NormalizedName), true
	}
	return model.NormalizedName{}, false
}

// Set stores a normalized name in the cache
func (c *Memory) Set(key string, name model.NormalizedName) {
	c.cache.Set(key, name, gocache.NoExpiration)
}

// Clear removes all cached entries
func (c *Memory) Clear() {
	c.cache.Flush()
}

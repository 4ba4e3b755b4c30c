package resolve

import "sync"

// Cache holds resolved buildspecs and discovered paths across resolutions.
// Implementations must be safe for concurrent use.
type Cache interface {
	Specs(key cacheKey) ([]*Processed, bool)
	StoreSpecs(key cacheKey, procs []*Processed)
	Path(key pathKey) (string, bool)
	StorePath(key pathKey, path string)
	Clear()
}

// memoryCache is the in-process cache: unbounded, never evicted, dropped
// wholesale on Clear.
type memoryCache struct {
	mu    sync.RWMutex
	specs map[cacheKey][]*Processed
	paths map[pathKey]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		specs: make(map[cacheKey][]*Processed),
		paths: make(map[pathKey]string),
	}
}

func (c *memoryCache) Specs(key cacheKey) ([]*Processed, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	procs, ok := c.specs[key]
	return procs, ok
}

func (c *memoryCache) StoreSpecs(key cacheKey, procs []*Processed) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.specs[key] = procs
}

func (c *memoryCache) Path(key pathKey) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	path, ok := c.paths[key]
	return path, ok
}

func (c *memoryCache) StorePath(key pathKey, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths[key] = path
}

func (c *memoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.specs = make(map[cacheKey][]*Processed)
	c.paths = make(map[pathKey]string)
}

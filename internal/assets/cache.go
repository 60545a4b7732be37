package assets

import "sync"

// Cache keeps built previews keyed by file path.
type Cache struct {
	data map[string]*Preview
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*Preview),
	}
}

// Get retrieves a preview from the cache.
func (c *Cache) Get(key string) (*Preview, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return p, ok
}

// Set stores a preview.
func (c *Cache) Set(key string, p *Preview) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = p
}

// Clear drops all previews and resets the statistics.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*Preview)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

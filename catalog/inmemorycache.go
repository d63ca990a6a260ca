package catalog

import (
	"sync"
	"time"
)

// InMemoryProductCache is an in-process ProductCache, safe for concurrent access
type InMemoryProductCache struct {
	products []*Product
	cachedAt time.Time
	config   CacheConfig
	mu       sync.RWMutex
	isValid  bool
}

// NewInMemoryProductCache creates a new in-memory product cache
func NewInMemoryProductCache(config CacheConfig) *InMemoryProductCache {
	return &InMemoryProductCache{
		config: config,
	}
}

// Get retrieves cached products.
// Returns nil if the cache is invalid or expired.
func (c *InMemoryProductCache) Get() []*Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.isValid {
		return nil
	}

	if c.config.TTL > 0 && time.Since(c.cachedAt) > c.config.TTL {
		return nil
	}

	// Return copy to prevent external modifications
	productsCopy := make([]*Product, len(c.products))
	copy(productsCopy, c.products)
	return productsCopy
}

// Set stores products in cache
func (c *InMemoryProductCache) Set(products []*Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.products = make([]*Product, len(products))
	copy(c.products, products)
	c.cachedAt = time.Now()
	c.isValid = true
}

// Invalidate clears the cache
func (c *InMemoryProductCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.isValid = false
	c.products = nil
}

// IsValid returns true if cache contains valid data
func (c *InMemoryProductCache) IsValid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.isValid {
		return false
	}

	if c.config.TTL > 0 {
		return time.Since(c.cachedAt) <= c.config.TTL
	}

	return true
}

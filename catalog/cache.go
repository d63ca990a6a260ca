package catalog

import "time"

// ProductCache provides an abstraction for caching a tenant's active products.
// Implementations exist for in-process memory and Redis.
type ProductCache interface {
	// Get retrieves cached products, returns nil on a miss or when expired
	Get() []*Product

	// Set stores products in cache
	Set(products []*Product)

	// Invalidate clears the cache, forcing a refresh on next Get
	Invalidate()

	// IsValid returns true if cache has valid data
	IsValid() bool
}

// CacheConfig holds configuration for cache behavior
type CacheConfig struct {
	// TTL is the time-to-live for cached entries.
	// Zero means no expiration (manual invalidation only).
	TTL time.Duration
}

// DefaultCacheConfig returns the defaults for catalog caching
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL: 0,
	}
}

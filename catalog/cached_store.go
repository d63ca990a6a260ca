package catalog

import "sync"

// CachedCatalog serves a tenant's active products from a cache in front of a
// ProductStore. Every mutation invalidates the cache and bumps the generation,
// so a load that raced with a mutation is returned but never cached.
type CachedCatalog struct {
	store      ProductStore
	cache      ProductCache
	generation uint64
	mu         sync.Mutex
}

// NewCachedCatalog wraps store with cache
func NewCachedCatalog(store ProductStore, cache ProductCache) *CachedCatalog {
	return &CachedCatalog{store: store, cache: cache}
}

// Store returns the underlying product store
func (c *CachedCatalog) Store() ProductStore {
	return c.store
}

// Active returns the active products, loading them from the store on a cache miss
func (c *CachedCatalog) Active() ([]*Product, error) {
	if products := c.cache.Get(); products != nil {
		return products, nil
	}

	c.mu.Lock()
	generation := c.generation
	c.mu.Unlock()

	products, err := c.store.ListActive()
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []*Product{}
	}

	c.mu.Lock()
	if c.generation == generation {
		c.cache.Set(products)
	}
	c.mu.Unlock()
	return products, nil
}

func (c *CachedCatalog) invalidate() {
	c.mu.Lock()
	c.generation++
	c.cache.Invalidate()
	c.mu.Unlock()
}

// Add stores a new product and invalidates the cache
func (c *CachedCatalog) Add(product *Product) error {
	if err := c.store.Add(product); err != nil {
		return err
	}
	c.invalidate()
	return nil
}

// List returns every product straight from the store
func (c *CachedCatalog) List() ([]*Product, error) {
	return c.store.List()
}

// Get retrieves a product by ID from the store
func (c *CachedCatalog) Get(id string) (*Product, error) {
	return c.store.Get(id)
}

// Update modifies a product and invalidates the cache
func (c *CachedCatalog) Update(product *Product) error {
	if err := c.store.Update(product); err != nil {
		return err
	}
	c.invalidate()
	return nil
}

// Delete removes a product and invalidates the cache
func (c *CachedCatalog) Delete(id string) error {
	if err := c.store.Delete(id); err != nil {
		return err
	}
	c.invalidate()
	return nil
}

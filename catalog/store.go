package catalog

import (
	"fmt"
	"sync"
	"time"
)

// ProductStore manages product persistence and retrieval
type ProductStore interface {
	// Add a new product
	Add(product *Product) error

	// Get a product by ID
	Get(id string) (*Product, error)

	// List all products, active or not, in catalog order
	List() ([]*Product, error)

	// List all active products in catalog order
	ListActive() ([]*Product, error)

	// Update an existing product
	Update(product *Product) error

	// Delete a product
	Delete(id string) error
}

// InMemoryProductStore implements ProductStore using an in-memory map.
// Insertion order is kept so the catalog order is stable.
type InMemoryProductStore struct {
	products map[string]*Product
	order    []string
	mu       sync.RWMutex
}

// NewInMemoryProductStore creates a new in-memory product store
func NewInMemoryProductStore() *InMemoryProductStore {
	return &InMemoryProductStore{
		products: make(map[string]*Product),
	}
}

// Add adds a new product to the store and stamps its timestamps
func (s *InMemoryProductStore) Add(product *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; exists {
		return fmt.Errorf("product %s: %w", product.ID, ErrProductExists)
	}

	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	s.products[product.ID] = product
	s.order = append(s.order, product.ID)
	return nil
}

// Get retrieves a product by ID
func (s *InMemoryProductStore) Get(id string) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, fmt.Errorf("product %s: %w", id, ErrProductNotFound)
	}
	return product, nil
}

// List returns every product in insertion order
func (s *InMemoryProductStore) List() ([]*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*Product, 0, len(s.order))
	for _, id := range s.order {
		all = append(all, s.products[id])
	}
	return all, nil
}

// ListActive returns all active products in insertion order
func (s *InMemoryProductStore) ListActive() ([]*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []*Product
	for _, id := range s.order {
		if p := s.products[id]; p.Active {
			active = append(active, p)
		}
	}
	return active, nil
}

// Update replaces an existing product, preserving its creation time
func (s *InMemoryProductStore) Update(product *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.products[product.ID]
	if !exists {
		return fmt.Errorf("product %s: %w", product.ID, ErrProductNotFound)
	}

	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now()
	s.products[product.ID] = product
	return nil
}

// Delete removes a product from the store
func (s *InMemoryProductStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return fmt.Errorf("product %s: %w", id, ErrProductNotFound)
	}

	delete(s.products, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

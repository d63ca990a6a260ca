package catalog

import (
	"errors"
	"time"
)

var (
	// ErrProductNotFound is returned when a product ID does not exist in the store
	ErrProductNotFound = errors.New("product not found")
	// ErrProductExists is returned when adding a product whose ID is taken
	ErrProductExists = errors.New("product already exists")
)

// Product is one sellable item in a tenant's catalog
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"product_name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Names returns the product names in catalog order, ready for resolution
func Names(products []*Product) []string {
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	return names
}

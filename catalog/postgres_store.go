package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresProductStore implements ProductStore backed by PostgreSQL
type PostgresProductStore struct {
	db       *sql.DB
	tenantID string
}

// NewPostgresProductStore creates a PostgreSQL-backed ProductStore for a specific tenant
func NewPostgresProductStore(db *sql.DB, tenantID string) *PostgresProductStore {
	return &PostgresProductStore{
		db:       db,
		tenantID: tenantID,
	}
}

// Add inserts a new product into the database
func (s *PostgresProductStore) Add(product *Product) error {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM products WHERE id = $1 AND tenant_id = $2)
	`, product.ID, s.tenantID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check product existence: %w", err)
	}
	if exists {
		return fmt.Errorf("product %s: %w", product.ID, ErrProductExists)
	}

	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	_, err = s.db.Exec(`
		INSERT INTO products (id, tenant_id, name, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, product.ID, s.tenantID, product.Name, product.Active,
		product.CreatedAt, product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	return nil
}

// Get retrieves a product by ID
func (s *PostgresProductStore) Get(id string) (*Product, error) {
	var p Product
	err := s.db.QueryRow(`
		SELECT id, name, active, created_at, updated_at
		FROM products
		WHERE id = $1 AND tenant_id = $2
	`, id, s.tenantID).Scan(&p.ID, &p.Name, &p.Active, &p.CreatedAt, &p.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %s: %w", id, ErrProductNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &p, nil
}

// List returns every product for the tenant, oldest first
func (s *PostgresProductStore) List() ([]*Product, error) {
	return s.query(`
		SELECT id, name, active, created_at, updated_at
		FROM products
		WHERE tenant_id = $1
		ORDER BY created_at ASC, id ASC
	`)
}

// ListActive returns all active products for the tenant, oldest first
func (s *PostgresProductStore) ListActive() ([]*Product, error) {
	return s.query(`
		SELECT id, name, active, created_at, updated_at
		FROM products
		WHERE tenant_id = $1 AND active = true
		ORDER BY created_at ASC, id ASC
	`)
}

func (s *PostgresProductStore) query(q string) ([]*Product, error) {
	rows, err := s.db.Query(q, s.tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// Update modifies an existing product
func (s *PostgresProductStore) Update(product *Product) error {
	product.UpdatedAt = time.Now()

	result, err := s.db.Exec(`
		UPDATE products
		SET name = $1, active = $2, updated_at = $3
		WHERE id = $4 AND tenant_id = $5
	`, product.Name, product.Active, product.UpdatedAt, product.ID, s.tenantID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("product %s: %w", product.ID, ErrProductNotFound)
	}

	return nil
}

// Delete removes a product from the database
func (s *PostgresProductStore) Delete(id string) error {
	result, err := s.db.Exec(`
		DELETE FROM products
		WHERE id = $1 AND tenant_id = $2
	`, id, s.tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("product %s: %w", id, ErrProductNotFound)
	}

	return nil
}

package policy

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresPolicyStore implements PolicyStore backed by PostgreSQL
type PostgresPolicyStore struct {
	db       *sql.DB
	tenantID string
}

// NewPostgresPolicyStore creates a PostgreSQL-backed PolicyStore for a specific tenant
func NewPostgresPolicyStore(db *sql.DB, tenantID string) *PostgresPolicyStore {
	return &PostgresPolicyStore{
		db:       db,
		tenantID: tenantID,
	}
}

// Add inserts a new policy
func (s *PostgresPolicyStore) Add(policy *Policy) error {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM policies WHERE id = $1 AND tenant_id = $2)
	`, policy.ID, s.tenantID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check policy existence: %w", err)
	}
	if exists {
		return fmt.Errorf("policy %s: %w", policy.ID, ErrPolicyExists)
	}

	now := time.Now()
	policy.CreatedAt = now
	policy.UpdatedAt = now

	_, err = s.db.Exec(`
		INSERT INTO policies (id, tenant_id, name, expression, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, policy.ID, s.tenantID, policy.Name, policy.Expression, policy.Active,
		policy.CreatedAt, policy.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert policy: %w", err)
	}

	return nil
}

// Get retrieves a policy by ID
func (s *PostgresPolicyStore) Get(id string) (*Policy, error) {
	var p Policy
	err := s.db.QueryRow(`
		SELECT id, name, expression, active, created_at, updated_at
		FROM policies
		WHERE id = $1 AND tenant_id = $2
	`, id, s.tenantID).Scan(&p.ID, &p.Name, &p.Expression, &p.Active, &p.CreatedAt, &p.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("policy %s: %w", id, ErrPolicyNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get policy: %w", err)
	}

	return &p, nil
}

// List returns every policy for the tenant, oldest first
func (s *PostgresPolicyStore) List() ([]*Policy, error) {
	return s.query(`
		SELECT id, name, expression, active, created_at, updated_at
		FROM policies
		WHERE tenant_id = $1
		ORDER BY created_at ASC, id ASC
	`)
}

// ListActive returns the active policies for the tenant, oldest first
func (s *PostgresPolicyStore) ListActive() ([]*Policy, error) {
	return s.query(`
		SELECT id, name, expression, active, created_at, updated_at
		FROM policies
		WHERE tenant_id = $1 AND active = true
		ORDER BY created_at ASC, id ASC
	`)
}

func (s *PostgresPolicyStore) query(q string) ([]*Policy, error) {
	rows, err := s.db.Query(q, s.tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	defer rows.Close()

	var policies []*Policy
	for rows.Next() {
		var p Policy
		if err := rows.Scan(&p.ID, &p.Name, &p.Expression, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan policy: %w", err)
		}
		policies = append(policies, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating policies: %w", err)
	}

	return policies, nil
}

// Update modifies an existing policy
func (s *PostgresPolicyStore) Update(policy *Policy) error {
	policy.UpdatedAt = time.Now()

	result, err := s.db.Exec(`
		UPDATE policies
		SET name = $1, expression = $2, active = $3, updated_at = $4
		WHERE id = $5 AND tenant_id = $6
	`, policy.Name, policy.Expression, policy.Active, policy.UpdatedAt, policy.ID, s.tenantID)
	if err != nil {
		return fmt.Errorf("failed to update policy: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("policy %s: %w", policy.ID, ErrPolicyNotFound)
	}

	return nil
}

// Delete removes a policy
func (s *PostgresPolicyStore) Delete(id string) error {
	result, err := s.db.Exec(`
		DELETE FROM policies
		WHERE id = $1 AND tenant_id = $2
	`, id, s.tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete policy: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("policy %s: %w", id, ErrPolicyNotFound)
	}

	return nil
}

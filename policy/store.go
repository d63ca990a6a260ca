package policy

import (
	"fmt"
	"sync"
	"time"
)

// PolicyStore manages policy persistence and retrieval
type PolicyStore interface {
	Add(policy *Policy) error
	Get(id string) (*Policy, error)
	List() ([]*Policy, error)
	ListActive() ([]*Policy, error)
	Update(policy *Policy) error
	Delete(id string) error
}

// InMemoryPolicyStore implements PolicyStore with a map plus insertion order
type InMemoryPolicyStore struct {
	policies map[string]*Policy
	order    []string
	mu       sync.RWMutex
}

// NewInMemoryPolicyStore creates a new in-memory policy store
func NewInMemoryPolicyStore() *InMemoryPolicyStore {
	return &InMemoryPolicyStore{
		policies: make(map[string]*Policy),
	}
}

// Add adds a new policy and stamps its timestamps
func (s *InMemoryPolicyStore) Add(policy *Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.policies[policy.ID]; exists {
		return fmt.Errorf("policy %s: %w", policy.ID, ErrPolicyExists)
	}

	now := time.Now()
	policy.CreatedAt = now
	policy.UpdatedAt = now
	s.policies[policy.ID] = policy
	s.order = append(s.order, policy.ID)
	return nil
}

// Get retrieves a policy by ID
func (s *InMemoryPolicyStore) Get(id string) (*Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	policy, exists := s.policies[id]
	if !exists {
		return nil, fmt.Errorf("policy %s: %w", id, ErrPolicyNotFound)
	}
	return policy, nil
}

// List returns every policy in insertion order
func (s *InMemoryPolicyStore) List() ([]*Policy, error) {
	return s.list(false), nil
}

// ListActive returns the active policies in insertion order
func (s *InMemoryPolicyStore) ListActive() ([]*Policy, error) {
	return s.list(true), nil
}

func (s *InMemoryPolicyStore) list(activeOnly bool) []*Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Policy, 0, len(s.order))
	for _, id := range s.order {
		if p := s.policies[id]; !activeOnly || p.Active {
			out = append(out, p)
		}
	}
	return out
}

// Update replaces an existing policy, preserving CreatedAt
func (s *InMemoryPolicyStore) Update(policy *Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.policies[policy.ID]
	if !exists {
		return fmt.Errorf("policy %s: %w", policy.ID, ErrPolicyNotFound)
	}

	policy.CreatedAt = existing.CreatedAt
	policy.UpdatedAt = time.Now()
	s.policies[policy.ID] = policy
	return nil
}

// Delete removes a policy
func (s *InMemoryPolicyStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.policies[id]; !exists {
		return fmt.Errorf("policy %s: %w", id, ErrPolicyNotFound)
	}

	delete(s.policies, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

package policy

import (
	"errors"
	"time"
)

var (
	// ErrPolicyNotFound is returned when a policy ID does not exist in the store
	ErrPolicyNotFound = errors.New("policy not found")
	// ErrPolicyExists is returned when adding a policy whose ID is taken
	ErrPolicyExists = errors.New("policy already exists")
)

// Policy is a CEL expression evaluated against each resolved order line.
// A line the expression matches is flagged for review; quantities are never changed.
type Policy struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Expression string    `json:"expression"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Result is the outcome of evaluating one policy against one order line
type Result struct {
	PolicyID    string `json:"policyId"`
	PolicyName  string `json:"policyName"`
	Line        int    `json:"line"`
	ProductName string `json:"product_name"`
	Matched     bool   `json:"matched"`
	Error       string `json:"error,omitempty"`
}

// Flagged returns the results that need attention: the policy matched the
// line, or it failed to evaluate and Error says why
func Flagged(results []*Result) []*Result {
	var flagged []*Result
	for _, r := range results {
		if r.Matched || r.Error != "" {
			flagged = append(flagged, r)
		}
	}
	return flagged
}

package policy

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/nexabiz/orderres/resolution"
)

// costLimit bounds the work a single policy evaluation may do
const costLimit = 1000000

// NewEnv returns the CEL environment policies are compiled in.
// `line` is the order line under evaluation, `order` the whole resolved order.
func NewEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("line", cel.DynType),
		cel.Variable("order", cel.DynType),
	)
}

// Engine compiles a tenant's policies and evaluates them against resolved orders.
// Safe for concurrent use.
type Engine struct {
	env        *cel.Env
	store      PolicyStore
	programs   map[string]cel.Program
	active     []*Policy // nil until loaded, reset on every mutation
	generation uint64    // bumped on every mutation
	mu         sync.RWMutex
}

// NewEngine creates an engine over store and compiles every active policy in it
func NewEngine(store PolicyStore) (*Engine, error) {
	env, err := NewEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	en := &Engine{
		env:      env,
		store:    store,
		programs: make(map[string]cel.Program),
	}

	if err := en.CompileAll(); err != nil {
		return nil, fmt.Errorf("failed to compile policies: %w", err)
	}

	return en, nil
}

// Store returns the engine's policy store
func (en *Engine) Store() PolicyStore {
	return en.store
}

// Check compiles expression without keeping it. Expressions must yield a boolean.
func (en *Engine) Check(expression string) error {
	_, err := en.program(expression)
	return err
}

func (en *Engine) program(expression string) (cel.Program, error) {
	ast, issues := en.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}

	switch ast.OutputType().Kind() {
	case types.BoolKind, types.DynKind, types.AnyKind:
	default:
		return nil, fmt.Errorf("policy must evaluate to bool, got %s", ast.OutputType())
	}

	prog, err := en.env.Program(ast, cel.CostLimit(costLimit))
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}
	return prog, nil
}

// Compile compiles expression and caches the program under policyID
func (en *Engine) Compile(policyID, expression string) error {
	prog, err := en.program(expression)
	if err != nil {
		return err
	}

	en.mu.Lock()
	en.programs[policyID] = prog
	en.mu.Unlock()

	return nil
}

// CompileAll compiles every active policy in the store and snapshots the active list
func (en *Engine) CompileAll() error {
	generation := en.currentGeneration()
	policies, err := en.store.ListActive()
	if err != nil {
		return err
	}

	for _, p := range policies {
		if err := en.Compile(p.ID, p.Expression); err != nil {
			return fmt.Errorf("failed to compile policy %s: %w", p.ID, err)
		}
	}

	en.setActive(policies, generation)
	return nil
}

// AddPolicy validates, compiles and stores a new policy
func (en *Engine) AddPolicy(p *Policy) error {
	if _, err := en.store.Get(p.ID); err == nil {
		return fmt.Errorf("policy %s: %w", p.ID, ErrPolicyExists)
	}

	if err := en.Compile(p.ID, p.Expression); err != nil {
		return fmt.Errorf("policy validation failed: %w", err)
	}

	if err := en.store.Add(p); err != nil {
		en.mu.Lock()
		delete(en.programs, p.ID)
		en.mu.Unlock()
		return err
	}

	en.invalidate()
	return nil
}

// UpdatePolicy recompiles and stores a changed policy
func (en *Engine) UpdatePolicy(p *Policy) error {
	prog, err := en.program(p.Expression)
	if err != nil {
		return fmt.Errorf("policy validation failed: %w", err)
	}

	if err := en.store.Update(p); err != nil {
		return err
	}

	en.mu.Lock()
	en.programs[p.ID] = prog
	en.active = nil
	en.generation++
	en.mu.Unlock()

	return nil
}

// DeletePolicy removes a policy and its compiled program
func (en *Engine) DeletePolicy(policyID string) error {
	if err := en.store.Delete(policyID); err != nil {
		return err
	}

	en.mu.Lock()
	delete(en.programs, policyID)
	en.active = nil
	en.generation++
	en.mu.Unlock()

	return nil
}

func (en *Engine) invalidate() {
	en.mu.Lock()
	en.active = nil
	en.generation++
	en.mu.Unlock()
}

func (en *Engine) currentGeneration() uint64 {
	en.mu.RLock()
	defer en.mu.RUnlock()
	return en.generation
}

// setActive keeps policies as the active snapshot unless a mutation happened
// since generation was read
func (en *Engine) setActive(policies []*Policy, generation uint64) {
	if policies == nil {
		policies = []*Policy{}
	}
	en.mu.Lock()
	if en.generation == generation {
		en.active = policies
	}
	en.mu.Unlock()
}

func (en *Engine) activePolicies() ([]*Policy, error) {
	en.mu.RLock()
	active, generation := en.active, en.generation
	en.mu.RUnlock()
	if active != nil {
		return active, nil
	}

	policies, err := en.store.ListActive()
	if err != nil {
		return nil, err
	}
	en.setActive(policies, generation)
	return policies, nil
}

// Evaluate runs every active policy against every line of a resolved order.
// A failing policy is reported in its Result and does not stop the others.
func (en *Engine) Evaluate(lines []resolution.ResolvedOrderLine) ([]*Result, error) {
	policies, err := en.activePolicies()
	if err != nil {
		return nil, err
	}

	lineFacts, order := orderFacts(lines)

	results := make([]*Result, 0, len(policies)*len(lines))
	for _, p := range policies {
		en.mu.RLock()
		prog, exists := en.programs[p.ID]
		en.mu.RUnlock()

		for i, line := range lines {
			result := &Result{
				PolicyID:    p.ID,
				PolicyName:  p.Name,
				Line:        i,
				ProductName: line.ProductName,
			}
			results = append(results, result)

			if !exists {
				result.Error = fmt.Sprintf("policy %s is not compiled", p.ID)
				continue
			}

			out, _, err := prog.Eval(map[string]any{
				"line":  lineFacts[i],
				"order": order,
			})
			if err != nil {
				result.Error = err.Error()
				continue
			}

			// Non-boolean results never flag a line
			if matched, ok := out.Value().(bool); ok {
				result.Matched = matched
			}
		}
	}

	return results, nil
}

// orderFacts builds the CEL activation values for a resolved order
func orderFacts(lines []resolution.ResolvedOrderLine) ([]map[string]any, map[string]any) {
	lineFacts := make([]map[string]any, len(lines))
	all := make([]any, len(lines))
	var total int64
	for i, line := range lines {
		lineFacts[i] = map[string]any{
			"product": line.ProductName,
			"qty":     int64(line.Qty),
			"index":   int64(i),
		}
		all[i] = lineFacts[i]
		total += int64(line.Qty)
	}

	order := map[string]any{
		"lines":      all,
		"line_count": int64(len(lines)),
		"total_qty":  total,
	}
	return lineFacts, order
}

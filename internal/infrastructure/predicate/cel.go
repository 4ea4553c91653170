// Package predicate evaluates link filters written in CEL. A filter sees the
// order projection as the map variable "order", for example
//
//	order.country == "US" && order.totalPrice > 100.0
package predicate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/Rafcin/openship/internal/domain/routing"
)

const (
	// OrderVariable is the name filters use to reach the order projection
	OrderVariable = "order"

	defaultCostLimit     = 10000
	interruptCheckFreq   = 100
	defaultMaxCacheEntry = 1024
)

var (
	ErrCompile    = errors.New("predicate: compile failed")
	ErrNotBoolean = errors.New("predicate: expression does not yield a boolean")
	ErrEvaluate   = errors.New("predicate: evaluation failed")
)

// CELEvaluator implements routing.PredicateEvaluator with a compiled-program
// cache keyed by expression source.
type CELEvaluator struct {
	env       *cel.Env
	mu        sync.RWMutex
	prgCache  map[string]cel.Program
	maxCache  int
	costLimit uint64
}

var _ routing.PredicateEvaluator = (*CELEvaluator)(nil)

// NewCELEvaluator creates the evaluator and its CEL environment
func NewCELEvaluator() (*CELEvaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable(OrderVariable, cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}
	return &CELEvaluator{
		env:       env,
		prgCache:  make(map[string]cel.Program),
		maxCache:  defaultMaxCacheEntry,
		costLimit: defaultCostLimit,
	}, nil
}

// Compile checks that expression is a valid boolean filter. An empty
// expression is valid and matches every order.
func (e *CELEvaluator) Compile(expression string) error {
	if strings.TrimSpace(expression) == "" {
		return nil
	}
	_, err := e.program(expression)
	return err
}

// Evaluate runs expression against the order projection
func (e *CELEvaluator) Evaluate(ctx context.Context, expression string, input map[string]any) (bool, error) {
	if strings.TrimSpace(expression) == "" {
		return true, nil
	}
	prg, err := e.program(expression)
	if err != nil {
		return false, err
	}

	out, _, err := prg.ContextEval(ctx, map[string]any{OrderVariable: input})
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrEvaluate, err)
	}
	val, ok := out.Value().(bool)
	if !ok {
		return false, ErrNotBoolean
	}
	return val, nil
}

func (e *CELEvaluator) program(expression string) (cel.Program, error) {
	e.mu.RLock()
	prg, hit := e.prgCache[expression]
	e.mu.RUnlock()
	if hit {
		return prg, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	// Double check
	if prg, hit = e.prgCache[expression]; hit {
		return prg, nil
	}

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompile, issues.Err())
	}
	if ot := ast.OutputType(); !ot.IsExactType(cel.BoolType) && !ot.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w: got %s", ErrNotBoolean, ot)
	}
	p, err := e.env.Program(ast,
		cel.InterruptCheckFrequency(interruptCheckFreq),
		cel.CostLimit(e.costLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompile, err)
	}

	if len(e.prgCache) >= e.maxCache {
		e.prgCache = make(map[string]cel.Program)
	}
	e.prgCache[expression] = p
	return p, nil
}

// CacheSize returns the number of compiled programs held
func (e *CELEvaluator) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.prgCache)
}

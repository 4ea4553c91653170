// Package adapter implements the uniform adapter contract: it invokes a named
// operation against either a built-in platform module or a remote HTTP
// endpoint, and normalises failures into the integration error taxonomy.
package adapter

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Rafcin/openship/internal/domain/integration"
)

var (
	ErrModuleNameEmpty  = errors.New("adapter: module name is empty")
	ErrModuleRegistered = errors.New("adapter: module already registered")
)

// Registry maps symbolic module names to built-in platform modules. It is
// populated at startup and read concurrently afterwards.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]integration.Module
}

// NewRegistry creates a registry holding modules
func NewRegistry(modules ...integration.Module) (*Registry, error) {
	r := &Registry{modules: make(map[string]integration.Module)}
	for _, m := range modules {
		if err := r.Register(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a module. Names must be unique.
func (r *Registry) Register(m integration.Module) error {
	name := m.Name()
	if name == "" {
		return ErrModuleNameEmpty
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.modules[name]; exists {
		return fmt.Errorf("%w: %s", ErrModuleRegistered, name)
	}
	r.modules[name] = m
	return nil
}

// Lookup returns the module registered under name
func (r *Registry) Lookup(name string) (integration.Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[name]
	return m, ok
}

// Names returns the registered module names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StaticModule is a Module backed by a fixed operation table. Built-in
// platforms and tests use it to register plain functions.
type StaticModule struct {
	ModuleName string
	Funcs      map[integration.Operation]integration.Func
}

// Name returns the module name
func (m StaticModule) Name() string {
	return m.ModuleName
}

// Operations returns the operation table
func (m StaticModule) Operations() map[integration.Operation]integration.Func {
	return m.Funcs
}

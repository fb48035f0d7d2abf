package compiler

import (
	"fmt"
	"sort"
)

// Registry holds the available compiler backends.
type Registry struct {
	compilers map[string]Compiler
}

// NewRegistry creates a registry holding the given backends.
func NewRegistry(compilers ...Compiler) (*Registry, error) {
	r := &Registry{compilers: make(map[string]Compiler)}
	for _, c := range compilers {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a backend. Names must be unique.
func (r *Registry) Register(c Compiler) error {
	name := c.Name()
	if _, exists := r.compilers[name]; exists {
		return fmt.Errorf("compiler %q already registered", name)
	}
	r.compilers[name] = c
	return nil
}

// Get retrieves a backend by name.
func (r *Registry) Get(name string) (Compiler, error) {
	c, exists := r.compilers[name]
	if !exists {
		return nil, fmt.Errorf("compiler %q not found (available: %v)", name, r.List())
	}
	return c, nil
}

// List returns the registered backend names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.compilers))
	for name := range r.compilers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
